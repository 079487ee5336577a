package benchmark

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/Octogonapus/EditorBenchmark/report"
)

// Step latencies are recorded in microseconds, up to an hour.
const (
	minLatencyUs = 1
	maxLatencyUs = int64(time.Hour / time.Microsecond)
)

// RunContext holds the mutable state of one run of one system. It is never shared between runs.
type RunContext struct {
	System   string
	Recorder *Recorder

	start    time.Time
	progress atomic.Int64

	mu      sync.Mutex
	samples []report.Sample
	latency *hdrhistogram.Histogram
}

func NewRunContext(system string, checkpointInterval int) *RunContext {
	return &RunContext{
		System:   system,
		Recorder: NewRecorder(checkpointInterval),
		start:    time.Now(),
		latency:  hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
	}
}

// Begin resets the clock that checkpoint and sample times are measured from.
func (rc *RunContext) Begin() {
	rc.start = time.Now()
}

func (rc *RunContext) Start() time.Time {
	return rc.start
}

func (rc *RunContext) ElapsedMs() float64 {
	return float64(time.Since(rc.start).Microseconds()) / 1000
}

func (rc *RunContext) Progress() int {
	return int(rc.progress.Load())
}

// Advance increments the node count and returns the new value.
func (rc *RunContext) Advance() int {
	return int(rc.progress.Add(1))
}

// AppendSample implements perfmonitor.SampleSink.
func (rc *RunContext) AppendSample(s report.Sample) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.samples = append(rc.samples, s)
}

func (rc *RunContext) Samples() []report.Sample {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return slices.Clone(rc.samples)
}

func (rc *RunContext) Checkpoints() []report.Checkpoint {
	return rc.Recorder.Checkpoints()
}

func (rc *RunContext) RecordLatency(d time.Duration) {
	us := max(d.Microseconds(), minLatencyUs)
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if err := rc.latency.RecordValue(min(us, maxLatencyUs)); err != nil {
		slog.Warn("Driver: failed to record step latency", slog.String("error", err.Error()))
	}
}

func (rc *RunContext) LatencySummary() *report.LatencySummary {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.latency.TotalCount() == 0 {
		return nil
	}
	toMs := func(us int64) float64 {
		return float64(us) / 1000
	}
	return &report.LatencySummary{
		Count:  rc.latency.TotalCount(),
		MinMs:  toMs(rc.latency.Min()),
		MeanMs: rc.latency.Mean() / 1000,
		P50Ms:  toMs(rc.latency.ValueAtQuantile(50)),
		P95Ms:  toMs(rc.latency.ValueAtQuantile(95)),
		P99Ms:  toMs(rc.latency.ValueAtQuantile(99)),
		MaxMs:  toMs(rc.latency.Max()),
	}
}
