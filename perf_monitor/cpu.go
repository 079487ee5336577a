package perfmonitor

import (
	"strconv"
	"strings"
)

type cpuTimeStat struct {
	user      int
	system    int
	idle      int
	nice      int
	iowait    int
	irq       int
	softIrq   int
	steal     int
	guest     int
	guestNice int
}

func (ts *cpuTimeStat) totalCPUTime() int {
	return ts.user + ts.system + ts.nice + ts.iowait + ts.irq + ts.softIrq + ts.steal + ts.idle
}

func (ts *cpuTimeStat) idleTime() int {
	return ts.idle + ts.iowait
}

func parseCPUTimeStat(buf []byte) *cpuTimeStat {
	for _, line := range strings.Split(string(buf), "\n") {
		// Only the aggregate line matters, per-core lines start with "cpu0", "cpu1", ...
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 11 {
			return nil
		}
		vals := make([]int, 10)
		for i := range vals {
			vals[i], _ = strconv.Atoi(parts[i+1])
		}
		return &cpuTimeStat{
			user:      vals[0],
			nice:      vals[1],
			system:    vals[2],
			idle:      vals[3],
			iowait:    vals[4],
			irq:       vals[5],
			softIrq:   vals[6],
			steal:     vals[7],
			guest:     vals[8],
			guestNice: vals[9],
		}
	}
	return nil
}

// cpuUsagePct is the share of non-idle time between two readings, or false if the counters went backwards.
func cpuUsagePct(curr, prev *cpuTimeStat) (float64, bool) {
	delta := float64(curr.totalCPUTime() - prev.totalCPUTime())
	if delta <= 0 {
		return 0, false
	}
	idle := float64(curr.idleTime() - prev.idleTime())
	return 100 * (delta - idle) / delta, true
}
