package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Octogonapus/EditorBenchmark/aggregate"
	"github.com/Octogonapus/EditorBenchmark/browser"
	"github.com/Octogonapus/EditorBenchmark/editor"
	perfmonitor "github.com/Octogonapus/EditorBenchmark/perf_monitor"
	"github.com/Octogonapus/EditorBenchmark/profile"
	"github.com/Octogonapus/EditorBenchmark/report"
)

// Browser is everything a run needs from the browser tab.
type Browser interface {
	browser.Automation
	browser.Instrumentation
}

type RunnerConfig struct {
	Definition   Definition
	BaseURL      string
	Writer       *report.Writer
	ProfilerKind profile.ProfilerKind
	ShowProgress bool
	// Extra counters sampled next to the browser ones, e.g. perfmonitor.HostCounters.
	ExtraCounters []perfmonitor.CounterReader
}

type benchmarkRunner struct {
	s   Scenario
	cfg *RunnerConfig
}

// Helps implement a benchmark orchestrator. Handles the sampler, the recorder, the profiler and the artifacts of
// one run. Wrap each scenario via NewBenchmarkRunner.
type BenchmarkRunner interface {
	// Run the scenario against one system in b and write its artifacts. Never returns nil.
	Run(ctx context.Context, b Browser, system editor.System) *report.RunResult
}

func NewBenchmarkRunner(s Scenario, cfg *RunnerConfig) BenchmarkRunner {
	return &benchmarkRunner{s: s, cfg: cfg}
}

func (br *benchmarkRunner) Run(ctx context.Context, b Browser, system editor.System) *report.RunResult {
	def := br.cfg.Definition
	rc := NewRunContext(system.ID, def.CheckpointInterval)
	res := &report.RunResult{
		Name:   br.s.GetName(),
		System: system.ID,
		Label:  system.Name,
		Input:  br.s.GetInput(),
	}
	defer br.finish(rc, res, def)

	slog.Info("Runner: starting benchmark setup", slog.String("name", br.s.GetName()), slog.String("system", system.ID))
	env := &Env{Automation: b, BaseURL: br.cfg.BaseURL, System: system}
	err := br.s.SetUp(ctx, env)
	if err != nil {
		res.Error = fmt.Errorf("setting up scenario failed: %w", err).Error()
		return res
	}

	if def.Interval <= 0 {
		res.Error = fmt.Errorf("starting sampler failed: %w, got %s", perfmonitor.ErrInvalidInterval, def.Interval).Error()
		return res
	}

	var prof profile.Profiler
	if br.cfg.ProfilerKind != "" && br.cfg.ProfilerKind != profile.None {
		target, ok := b.(profile.Target)
		if !ok {
			res.Error = fmt.Sprintf("browser %T can't be profiled", b)
			return res
		}
		prof, err = profile.NewProfiler(br.cfg.ProfilerKind, target)
		if err != nil {
			res.Error = fmt.Errorf("creating profiler failed: %w", err).Error()
			return res
		}
		err = prof.Start(ctx)
		if err != nil {
			res.Error = fmt.Errorf("starting profiler failed: %w", err).Error()
			return res
		}
	}

	rc.Begin()
	readers := append([]perfmonitor.CounterReader{b.GetMetrics}, br.cfg.ExtraCounters...)
	sampler, err := perfmonitor.StartSampling(ctx, perfmonitor.Config{
		Interval:     def.Interval,
		Metrics:      def.Metrics,
		ReadCounters: perfmonitor.CombineReaders(readers...),
		Progress:     rc.Progress,
		Start:        rc.Start(),
		System:       system.ID,
	}, rc)
	if err != nil {
		res.Error = fmt.Errorf("starting sampler failed: %w", err).Error()
		return res
	}
	defer func() {
		sampler.Stop()
		sampler.Wait()
	}()

	drive := RunBenchmark(ctx, rc, DriveOptions{
		MaxIterations: def.Iterations,
		Timeout:       def.Timeout,
		ShowProgress:  br.cfg.ShowProgress,
	}, func(ctx context.Context, i int) error {
		return br.s.Step(ctx, env, i)
	})
	sampler.Stop()
	sampler.Wait()

	res.StopReason = drive.StopReason
	res.StepErrors = drive.StepErrors
	res.SkippedTicks = sampler.Skipped()

	if prof != nil {
		path, err := br.saveProfile(ctx, prof, system)
		if err != nil {
			res.Error = fmt.Errorf("saving profile failed: %w", err).Error()
			return res
		}
		res.TracePath = path
	}

	slog.Info("Runner: finished benchmark", slog.String("name", br.s.GetName()), slog.String("system", system.ID))
	return res
}

// finish fills in the collected data and writes the artifacts, whatever happened during the run.
func (br *benchmarkRunner) finish(rc *RunContext, res *report.RunResult, def Definition) {
	res.FinalNodeCount = rc.Progress()
	res.DurationSec = time.Since(rc.Start()).Seconds()
	res.Samples = rc.Samples()
	res.Checkpoints = rc.Checkpoints()
	res.Latency = rc.LatencySummary()

	series := aggregate.FilterMetrics(res.System, def.Metrics, res.Samples)
	res.Summaries = aggregate.SummarizeAll(series)

	if br.cfg.Writer == nil {
		return
	}
	err := br.cfg.Writer.WriteRun(res, series)
	if err != nil {
		slog.Error("Runner: some artifacts were not written", slog.String("system", res.System), slog.String("error", err.Error()))
	}
}

func (br *benchmarkRunner) saveProfile(ctx context.Context, prof profile.Profiler, system editor.System) (string, error) {
	// The trace is still worth saving when the run was cancelled.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Minute)
	defer cancel()

	dir := "."
	if br.cfg.Writer != nil {
		dir = br.cfg.Writer.Dir()
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-trace%s", system.ID, prof.Ext()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to open local result path for writing: %w", err)
	}
	defer f.Close()

	err = prof.Stop(ctx, f)
	if err != nil {
		return "", err
	}
	slog.Info("Runner: saved profile", slog.String("path", path))
	return path, nil
}
