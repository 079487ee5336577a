package benchmark

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/Octogonapus/EditorBenchmark/report"
)

// Recorder keeps the node count to elapsed time checkpoints of a run. Node counts never decrease.
type Recorder struct {
	interval int

	mu          sync.Mutex
	checkpoints []report.Checkpoint
}

func NewRecorder(interval int) *Recorder {
	return &Recorder{interval: interval}
}

// ShouldRecord reports whether a checkpoint is due at this node count: the first node and every interval-th node.
func (r *Recorder) ShouldRecord(progress int) bool {
	return progress == 1 || (r.interval > 0 && progress > 0 && progress%r.interval == 0)
}

// RecordCheckpoint appends a checkpoint. A node count lower than the last recorded one is rejected.
func (r *Recorder) RecordCheckpoint(progress int, elapsedMs float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.checkpoints); n > 0 && progress < r.checkpoints[n-1].NodeCount {
		slog.Warn("Recorder: rejecting decreasing node count",
			slog.Int("nodeCount", progress),
			slog.Int("last", r.checkpoints[n-1].NodeCount),
		)
		return false
	}
	r.checkpoints = append(r.checkpoints, report.Checkpoint{NodeCount: progress, TimeMs: elapsedMs})
	return true
}

// Last returns the most recent checkpoint, if any.
func (r *Recorder) Last() (report.Checkpoint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.checkpoints) == 0 {
		return report.Checkpoint{}, false
	}
	return r.checkpoints[len(r.checkpoints)-1], true
}

func (r *Recorder) Checkpoints() []report.Checkpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.checkpoints)
}
