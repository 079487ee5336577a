package perfmonitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Octogonapus/EditorBenchmark/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu      sync.Mutex
	samples []report.Sample
}

func (s *memorySink) AppendSample(sample report.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, sample)
}

func (s *memorySink) get() []report.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]report.Sample(nil), s.samples...)
}

func staticCounters(m ...report.Metric) CounterReader {
	return func(ctx context.Context) ([]report.Metric, error) {
		return m, nil
	}
}

func TestSampleCountTracksElapsedTime(t *testing.T) {
	sink := &memorySink{}
	var progress atomic.Int64
	interval := 50 * time.Millisecond

	start := time.Now()
	h, err := StartSampling(context.Background(), Config{
		Interval:     interval,
		Metrics:      []string{report.LayoutCount},
		ReadCounters: staticCounters(report.Metric{Name: report.LayoutCount, Value: 7}),
		Progress:     func() int { return int(progress.Add(1)) },
		Start:        start,
		System:       "test",
	}, sink)
	require.NoError(t, err)
	// stop halfway between two ticks
	time.Sleep(525 * time.Millisecond)
	h.Stop()
	h.Wait()
	elapsed := time.Since(start)

	expected := int(elapsed / interval)
	samples := sink.get()
	assert.InDelta(t, expected, len(samples), 1)
	assert.Equal(t, len(samples), h.Samples())
	assert.Zero(t, h.Skipped())

	for i, s := range samples {
		v, ok := s.Lookup(report.LayoutCount)
		assert.True(t, ok)
		assert.Equal(t, 7.0, v)
		if i > 0 {
			assert.Greater(t, s.NodeCount, samples[i-1].NodeCount)
			assert.GreaterOrEqual(t, s.TimeMs, samples[i-1].TimeMs)
		}
	}
}

func TestFailedReadsAreSkipped(t *testing.T) {
	sink := &memorySink{}
	h, err := StartSampling(context.Background(), Config{
		Interval: 10 * time.Millisecond,
		ReadCounters: func(ctx context.Context) ([]report.Metric, error) {
			return nil, errors.New("target closed")
		},
		Progress: func() int { return 0 },
		System:   "test",
	}, sink)
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	h.Stop()
	h.Wait()

	assert.Empty(t, sink.get())
	assert.Greater(t, h.Skipped(), 0)
}

func TestTickWithoutSelectedCountersIsSkipped(t *testing.T) {
	sink := &memorySink{}
	h, err := StartSampling(context.Background(), Config{
		Interval:     10 * time.Millisecond,
		Metrics:      []string{report.ScriptDuration},
		ReadCounters: staticCounters(report.Metric{Name: report.LayoutCount, Value: 1}),
		Progress:     func() int { return 0 },
		System:       "test",
	}, sink)
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	h.Stop()
	h.Wait()

	assert.Empty(t, sink.get())
	assert.Greater(t, h.Skipped(), 0)
}

func TestNonPositiveIntervalIsRejected(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		h, err := StartSampling(context.Background(), Config{
			Interval:     interval,
			ReadCounters: staticCounters(),
			Progress:     func() int { return 0 },
		}, &memorySink{})
		assert.ErrorIs(t, err, ErrInvalidInterval)
		assert.Nil(t, h)
	}
}

func TestFilterCounters(t *testing.T) {
	readings := []report.Metric{
		{Name: report.LayoutCount, Value: 1},
		{Name: report.ScriptDuration, Value: 0.5},
		{Name: "SomethingNew", Value: 3},
		{Name: report.HeapUsedBytes, Value: 2097152},
	}

	out := filterCounters(readings, []string{report.LayoutCount, report.HeapUsedBytes, "SomethingNew"})
	assert.Equal(t, []report.Metric{
		{Name: report.LayoutCount, Value: 1},
		{Name: report.HeapUsedBytes, Value: 2097152},
	}, out)
}

func TestStopIsIdempotent(t *testing.T) {
	h, err := StartSampling(context.Background(), Config{
		Interval:     time.Hour,
		ReadCounters: staticCounters(),
		Progress:     func() int { return 0 },
	}, &memorySink{})
	require.NoError(t, err)
	h.Stop()
	h.Stop()
	h.Wait()
	h.Stop()
	assert.Zero(t, h.Samples())
}

func TestParentCancellationStopsSampler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h, err := StartSampling(ctx, Config{
		Interval:     time.Hour,
		ReadCounters: staticCounters(),
		Progress:     func() int { return 0 },
	}, &memorySink{})
	require.NoError(t, err)
	cancel()

	done := make(chan struct{})
	go func() {
		h.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sampler did not exit after cancellation")
	}
}

func TestCombineReaders(t *testing.T) {
	failing := func(ctx context.Context) ([]report.Metric, error) {
		return nil, errors.New("boom")
	}
	ok := staticCounters(report.Metric{Name: report.LayoutCount, Value: 1})

	out, err := CombineReaders(failing, ok)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []report.Metric{{Name: report.LayoutCount, Value: 1}}, out)

	_, err = CombineReaders(failing, failing)(context.Background())
	assert.ErrorContains(t, err, "boom")
}

func writeProc(t *testing.T, dir, stat, meminfo string) {
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stat"), []byte(stat), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meminfo"), []byte(meminfo), 0o644))
}

func TestHostCounters(t *testing.T) {
	dir := t.TempDir()
	meminfo := "MemTotal:       1000 kB\nMemFree:         200 kB\nBuffers:         100 kB\nCached:          100 kB\nSReclaimable:    100 kB\n"
	writeProc(t, dir, "cpu  100 0 100 800 0 0 0 0 0 0\ncpu0 100 0 100 800 0 0 0 0 0 0\n", meminfo)

	h := NewHostCounters(dir)
	first, err := h.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []report.Metric{
		{Name: report.HostMemUsedBytes, Value: 500 * 1024},
		{Name: report.HostMemUsedPct, Value: 50},
	}, first)

	// 100 more busy jiffies and 100 more idle jiffies
	writeProc(t, dir, "cpu  150 0 150 900 0 0 0 0 0 0\n", meminfo)
	second, err := h.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 3)
	assert.Equal(t, report.HostCPUUsagePct, second[0].Name)
	assert.InDelta(t, 50.0, second[0].Value, 1e-9)
}

func TestHostCountersMissingProc(t *testing.T) {
	_, err := NewHostCounters(filepath.Join(t.TempDir(), "nope")).Read(context.Background())
	assert.Error(t, err)
}
