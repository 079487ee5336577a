package perfmonitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Octogonapus/EditorBenchmark/report"
)

// HostCounters reads CPU and memory usage of the machine running the browser from procfs.
type HostCounters struct {
	procDir string
	mu      sync.Mutex
	prevCPU *cpuTimeStat
}

func NewHostCounters(procDir string) *HostCounters {
	if procDir == "" {
		procDir = "/proc"
	}
	return &HostCounters{procDir: procDir}
}

// Read implements CounterReader. CPU usage needs two readings, so the first call only reports memory.
func (h *HostCounters) Read(ctx context.Context) ([]report.Metric, error) {
	var out []report.Metric

	buf, err := os.ReadFile(filepath.Join(h.procDir, "stat"))
	if err != nil {
		return nil, fmt.Errorf("reading cpu stats failed: %w", err)
	}
	curr := parseCPUTimeStat(buf)
	h.mu.Lock()
	prev := h.prevCPU
	h.prevCPU = curr
	h.mu.Unlock()
	if prev != nil && curr != nil {
		if pct, ok := cpuUsagePct(curr, prev); ok {
			out = append(out, report.Metric{Name: report.HostCPUUsagePct, Value: pct})
		}
	}

	buf, err = os.ReadFile(filepath.Join(h.procDir, "meminfo"))
	if err != nil {
		return nil, fmt.Errorf("reading meminfo failed: %w", err)
	}
	mi := parseMemInfo(buf)
	out = append(out,
		report.Metric{Name: report.HostMemUsedBytes, Value: float64(mi.usedBytes())},
		report.Metric{Name: report.HostMemUsedPct, Value: mi.usedPct()},
	)
	return out, nil
}
