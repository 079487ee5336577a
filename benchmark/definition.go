package benchmark

import (
	"fmt"
	"time"

	"github.com/Octogonapus/EditorBenchmark/report"
)

// Definition parameterises a benchmark run. The same definition is used for every compared system.
type Definition struct {
	Iterations         int           // maximum number of steps
	Interval           time.Duration // sampling interval
	Metrics            []string      // counters kept in each sample
	CheckpointInterval int           // record elapsed time every this many steps
	Timeout            time.Duration // driving stops after this long, 0 disables
}

func DefaultDefinition() Definition {
	return Definition{
		Iterations:         20000,
		Interval:           15 * time.Second,
		Metrics:            report.DefaultMetrics,
		CheckpointInterval: 200,
		Timeout:            time.Hour,
	}
}

func (d Definition) Validate() error {
	if d.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", d.Iterations)
	}
	if d.Interval <= 0 {
		return fmt.Errorf("sampling interval must be positive, got %s", d.Interval)
	}
	if d.CheckpointInterval <= 0 {
		return fmt.Errorf("checkpoint interval must be positive, got %d", d.CheckpointInterval)
	}
	if d.Timeout < 0 {
		return fmt.Errorf("timeout can't be negative, got %s", d.Timeout)
	}
	if len(d.Metrics) == 0 {
		return fmt.Errorf("at least one metric must be selected")
	}
	for _, m := range d.Metrics {
		if !report.IsKnownMetric(m) {
			return fmt.Errorf("unknown metric: %s", m)
		}
	}
	return nil
}
