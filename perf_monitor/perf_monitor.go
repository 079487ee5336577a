package perfmonitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Octogonapus/EditorBenchmark/metrics"
	"github.com/Octogonapus/EditorBenchmark/report"
)

// CounterReader reads the current value of every counter the instrumentation exposes.
type CounterReader func(ctx context.Context) ([]report.Metric, error)

// ProgressFunc returns the current progress counter of the run being sampled.
type ProgressFunc func() int

// SampleSink receives samples. Appends must be safe to call from the sampling goroutine.
type SampleSink interface {
	AppendSample(report.Sample)
}

type Config struct {
	Interval     time.Duration
	Metrics      []string // only these counter names are kept
	ReadCounters CounterReader
	Progress     ProgressFunc
	Start        time.Time // sample times are relative to this
	System       string    // label for harness metrics
}

var (
	ErrNoMatchingCounters = errors.New("no matching counters")
	ErrInvalidInterval    = errors.New("sampling interval must be positive")
)

// Handle controls one running sampler.
type Handle struct {
	cancel  context.CancelFunc
	stop    sync.Once
	done    chan struct{}
	samples atomic.Int64
	skipped atomic.Int64
}

var maxJitter = 1 * time.Second

// StartSampling reads the counters every cfg.Interval on its own goroutine and appends one sample per tick to
// sink until the handle is stopped or ctx is done.
func StartSampling(ctx context.Context, cfg Config, sink SampleSink) (*Handle, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("%w, got %s", ErrInvalidInterval, cfg.Interval)
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	if cfg.Start.IsZero() {
		cfg.Start = time.Now()
	}
	if len(cfg.Metrics) == 0 {
		cfg.Metrics = report.DefaultMetrics
	}
	go h.run(ctx, cfg, sink)
	return h, nil
}

// Stop halts further ticks. It can be called any number of times. A tick that is already reading counters may
// still append its sample.
func (h *Handle) Stop() {
	h.stop.Do(h.cancel)
}

// Wait blocks until the sampling goroutine has exited.
func (h *Handle) Wait() {
	<-h.done
}

func (h *Handle) Samples() int {
	return int(h.samples.Load())
}

func (h *Handle) Skipped() int {
	return int(h.skipped.Load())
}

func (h *Handle) run(ctx context.Context, cfg Config, sink SampleSink) {
	defer close(h.done)
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	lastWakeTime := time.Now()
	for {
		select {
		case <-ctx.Done():
			slog.Debug("Sampler: stopped", slog.String("system", cfg.System), slog.Int64("samples", h.samples.Load()))
			return
		case now := <-ticker.C:
			jitter := now.Sub(lastWakeTime) - cfg.Interval
			if jitter > min(maxJitter, cfg.Interval) {
				slog.Warn("Sampler: jitter exceeded maximum", slog.Int64("jitterMs", jitter.Milliseconds()))
			}
			lastWakeTime = now
			h.tick(ctx, cfg, sink)
		}
	}
}

func (h *Handle) tick(ctx context.Context, cfg Config, sink SampleSink) {
	readings, err := cfg.ReadCounters(ctx)
	if err == nil {
		readings = filterCounters(readings, cfg.Metrics)
		if len(readings) == 0 {
			err = ErrNoMatchingCounters
		}
	}
	if err != nil {
		h.skipped.Add(1)
		metrics.SkippedTicksTotal.WithLabelValues(cfg.System).Inc()
		slog.Warn("Sampler: skipping tick", slog.String("system", cfg.System), slog.String("error", err.Error()))
		return
	}

	sink.AppendSample(report.Sample{
		NodeCount: cfg.Progress(),
		TimeMs:    float64(time.Since(cfg.Start).Microseconds()) / 1000,
		Metrics:   readings,
	})
	h.samples.Add(1)
	metrics.SamplesTotal.WithLabelValues(cfg.System).Inc()
}

func filterCounters(readings []report.Metric, names []string) []report.Metric {
	out := make([]report.Metric, 0, len(names))
	for _, r := range readings {
		if slices.Contains(names, r.Name) && report.IsKnownMetric(r.Name) {
			out = append(out, r)
		}
	}
	return out
}

// CombineReaders reads every reader and concatenates the results. It only fails when all readers fail.
func CombineReaders(readers ...CounterReader) CounterReader {
	return func(ctx context.Context) ([]report.Metric, error) {
		var out []report.Metric
		var errs []error
		for _, r := range readers {
			m, err := r(ctx)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			out = append(out, m...)
		}
		if len(errs) == len(readers) {
			return nil, errors.Join(errs...)
		}
		for _, err := range errs {
			slog.Debug("Sampler: counter source failed", slog.String("error", err.Error()))
		}
		return out, nil
	}
}
