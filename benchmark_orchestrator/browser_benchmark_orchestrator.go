package benchmarkorchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/Octogonapus/EditorBenchmark/benchmark"
	"github.com/Octogonapus/EditorBenchmark/chart"
	"github.com/Octogonapus/EditorBenchmark/editor"
	perfmonitor "github.com/Octogonapus/EditorBenchmark/perf_monitor"
	"github.com/Octogonapus/EditorBenchmark/report"
	"github.com/alitto/pond"
)

// Session is one browser tab dedicated to a single run.
type Session interface {
	benchmark.Browser
	Close()
}

// SessionFactory opens a fresh browser session for a run against system.
type SessionFactory func(ctx context.Context, system editor.System) (Session, error)

type BrowserBenchmarkOrchestratorInput struct {
	NewSession           SessionFactory
	BenchmarkConcurrency int // runs one at a time by default
}

type browserBenchmarkOrchestrator struct {
	input      *BrowserBenchmarkOrchestratorInput
	cfg        *BenchmarkConfig
	benchmarks []benchmark.Scenario
}

type benchmarkResult struct {
	scenario int
	system   int
	report   *report.RunResult
}

func NewBrowserBenchmarkOrchestrator(input *BrowserBenchmarkOrchestratorInput) (*browserBenchmarkOrchestrator, error) {
	if input.NewSession == nil {
		return nil, errors.New("a session factory is required")
	}
	return &browserBenchmarkOrchestrator{input: input}, nil
}

func (o *browserBenchmarkOrchestrator) AddBenchmark(b benchmark.Scenario) error {
	for _, other := range o.benchmarks {
		if ScenarioDirName(other.GetName()) == ScenarioDirName(b.GetName()) {
			return fmt.Errorf("scenario %q was already added", b.GetName())
		}
	}
	o.benchmarks = append(o.benchmarks, b)
	return nil
}

func (o *browserBenchmarkOrchestrator) SetUp(cfg *BenchmarkConfig) error {
	err := cfg.Definition.Validate()
	if err != nil {
		return err
	}
	if len(cfg.Systems) == 0 {
		cfg.Systems = editor.All()
	}
	for i, s := range cfg.Systems {
		if slices.ContainsFunc(cfg.Systems[:i], func(other editor.System) bool { return other.ID == s.ID }) {
			return fmt.Errorf("system %s is listed more than once", s.ID)
		}
	}
	if cfg.ResultDir == "" {
		cfg.ResultDir = "results"
	}
	// Creates the result dir.
	_, err = report.NewWriter(cfg.ResultDir)
	if err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

var unsafeDirChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ScenarioDirName is the subdirectory of the result dir holding the artifacts of one scenario.
func ScenarioDirName(name string) string {
	name = strings.Trim(unsafeDirChars.ReplaceAllString(name, "_"), "_")
	if name == "" {
		return "scenario"
	}
	return name
}

func (o *browserBenchmarkOrchestrator) scenarioDir(b benchmark.Scenario) string {
	return filepath.Join(o.cfg.ResultDir, ScenarioDirName(b.GetName()))
}

func (o *browserBenchmarkOrchestrator) runBenchmark(
	ctx context.Context,
	resultCh chan *benchmarkResult,
	scenario int,
	system int,
) {
	b := o.benchmarks[scenario]
	sys := o.cfg.Systems[system]
	result := &benchmarkResult{scenario: scenario, system: system}
	defer func() { resultCh <- result }()

	fail := func(err error) {
		slog.Error("Orchestrator: benchmark failed",
			slog.String("error", err.Error()),
			slog.String("benchmark", b.GetName()),
			slog.String("system", sys.ID),
		)
		result.report = &report.RunResult{
			Name:   b.GetName(),
			System: sys.ID,
			Label:  sys.Name,
			Input:  b.GetInput(),
			Error:  err.Error(),
		}
	}

	w, err := report.NewWriter(o.scenarioDir(b))
	if err != nil {
		fail(err)
		return
	}

	slog.Info("Orchestrator: opening browser session", slog.String("benchmark", b.GetName()), slog.String("system", sys.ID))
	session, err := o.input.NewSession(ctx, sys)
	if err != nil {
		fail(fmt.Errorf("opening browser session failed: %w", err))
		return
	}
	defer session.Close()

	var extra []perfmonitor.CounterReader
	if o.cfg.HostProcDir != "" {
		extra = append(extra, perfmonitor.NewHostCounters(o.cfg.HostProcDir).Read)
	}
	runner := benchmark.NewBenchmarkRunner(b, &benchmark.RunnerConfig{
		Definition:    o.cfg.Definition,
		BaseURL:       o.cfg.BaseURL,
		Writer:        w,
		ProfilerKind:  o.cfg.ProfilerKind,
		ShowProgress:  o.cfg.ShowProgress,
		ExtraCounters: extra,
	})
	result.report = runner.Run(ctx, session, sys)
	if result.report.Error != "" {
		slog.Error("Orchestrator: benchmark failed",
			slog.String("error", result.report.Error),
			slog.String("benchmark", b.GetName()),
			slog.String("system", sys.ID),
		)
	}
}

func (o *browserBenchmarkOrchestrator) RunBenchmarks(ctx context.Context) (*Report, error) {
	if o.cfg == nil {
		return nil, errors.New("orchestrator was not set up")
	}

	ntotal := len(o.benchmarks) * len(o.cfg.Systems)
	resultCh := make(chan *benchmarkResult, ntotal)

	concurrency := o.input.BenchmarkConcurrency
	if concurrency <= 0 {
		for i := range o.benchmarks {
			for j := range o.cfg.Systems {
				o.runBenchmark(ctx, resultCh, i, j)
			}
		}
	} else {
		pool := pond.New(concurrency, 0, pond.MinWorkers(concurrency))
		for i := range o.benchmarks {
			for j := range o.cfg.Systems {
				pool.Submit(func() {
					o.runBenchmark(ctx, resultCh, i, j)
				})
			}
		}
		pool.StopAndWait()
	}

	close(resultCh)

	results := make([]*benchmarkResult, 0, ntotal)
	for result := range resultCh {
		results = append(results, result)
	}
	slices.SortFunc(results, func(a, b *benchmarkResult) int {
		if a.scenario != b.scenario {
			return a.scenario - b.scenario
		}
		return a.system - b.system
	})

	rep := &Report{
		Config:  o.cfg,
		Reports: []*report.RunResult{},
	}
	for _, result := range results {
		rep.Reports = append(rep.Reports, result.report)
	}

	w, err := report.NewWriter(o.cfg.ResultDir)
	if err != nil {
		return rep, err
	}
	err = w.WriteJSON(report.ReportFileName, rep)
	if err != nil {
		return rep, err
	}
	slog.Info("Orchestrator: wrote report", slog.String("path", filepath.Join(o.cfg.ResultDir, report.ReportFileName)))

	err = o.renderGraphs()
	if err != nil {
		// The raw artifacts are still there, the graphs can be rendered again later.
		slog.Error("Orchestrator: some graphs failed to render", slog.String("error", err.Error()))
	}

	if o.cfg.Publisher != nil {
		err = o.cfg.Publisher.Publish(ctx, o.cfg.ResultDir)
		if err != nil {
			return rep, fmt.Errorf("publishing results failed: %w", err)
		}
	}
	return rep, nil
}

// GraphSystems is the pair of systems every comparison chart plots, series A first.
func GraphSystems(systems []editor.System) [2]string {
	pair := [2]string{editor.Lexical.ID, editor.ProseMirror.ID}
	if len(systems) >= 2 {
		pair = [2]string{systems[0].ID, systems[1].ID}
	}
	return pair
}

func (o *browserBenchmarkOrchestrator) renderGraphs() error {
	if o.cfg.Renderer == nil {
		return nil
	}
	var errs []error
	for _, b := range o.benchmarks {
		dir := o.scenarioDir(b)
		slog.Info("Orchestrator: rendering graphs", slog.String("dir", dir))
		err := chart.GenerateGraphs(chart.GraphConfig{
			ResultDir:   dir,
			Systems:     GraphSystems(o.cfg.Systems),
			Metrics:     o.cfg.Definition.Metrics,
			Renderer:    o.cfg.Renderer,
			Concurrency: o.cfg.GraphConcurrency,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.GetName(), err))
		}
	}
	return errors.Join(errs...)
}
