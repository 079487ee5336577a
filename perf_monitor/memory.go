package perfmonitor

import (
	"strconv"
	"strings"
)

type memInfo struct {
	total   int
	free    int
	buffers int
	cached  int
}

func parseMemInfo(buf []byte) memInfo {
	var mi memInfo
	for _, line := range strings.Split(string(buf), "\n") {
		parts := strings.Fields(line)
		if len(parts) != 3 {
			continue
		}
		value, _ := strconv.Atoi(parts[1])
		bytes := value * 1024
		switch key := strings.TrimSuffix(parts[0], ":"); key {
		case "MemTotal":
			mi.total = bytes
		case "MemFree":
			mi.free = bytes
		case "Buffers":
			mi.buffers = bytes
		case "Cached":
			mi.cached += bytes
		case "SReclaimable":
			mi.cached += bytes
		}
	}
	return mi
}

func (mi memInfo) usedBytes() int {
	return mi.total - mi.free - mi.buffers - mi.cached
}

func (mi memInfo) usedPct() float64 {
	if mi.total == 0 {
		return 0
	}
	return 100 * float64(mi.usedBytes()) / float64(mi.total)
}
