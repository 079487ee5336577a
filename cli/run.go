package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Octogonapus/EditorBenchmark/benchmark"
	benchmarkorchestrator "github.com/Octogonapus/EditorBenchmark/benchmark_orchestrator"
	"github.com/Octogonapus/EditorBenchmark/browser"
	"github.com/Octogonapus/EditorBenchmark/editor"
	"github.com/Octogonapus/EditorBenchmark/profile"
	"github.com/spf13/cobra"
)

func (a *app) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive every scenario against every editor and collect the counters",
		Long: fmt.Sprintf(`Opens a fresh browser per editor, runs the scenarios and writes the node count checkpoints,
the sampled counters, report.json and the graphs into the result dir.

Scenario files are JSON lists of {"Type": ..., "Input": {...}}. Known types: %s.
Without a scenario file the stress scenario is run.`, benchmark.ExplainScenarios()),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	defaultDefinitionFlags(flags)
	addSystemFlags(flags)
	addBrowserFlags(flags)
	addRendererFlag(flags)
	addPublishFlags(flags)
	flags.String("result-dir", "results", "The directory the artifacts are written to.")
	flags.StringSlice("scenario-file", nil, "A scenario file. Can be used multiple times; all scenarios will be loaded.")
	flags.String("profiler", string(profile.None), fmt.Sprintf("Capture a profile of every run. Must be one of: %s.", profile.ExplainProfilers()))
	flags.Int("concurrency", 0, "How many browsers can run at once. Runs one at a time by default.")
	flags.Int("graph-concurrency", 4, "The number of goroutines rendering graphs.")
	flags.String("host-counters", "", "Also sample host CPU and memory from this procfs mount, e.g. /proc.")
	flags.Bool("progress", true, "Show a progress bar while driving.")
	return cmd
}

func (a *app) sessionFactory() benchmarkorchestrator.SessionFactory {
	opts := a.browserOptions()
	return func(ctx context.Context, system editor.System) (benchmarkorchestrator.Session, error) {
		o := opts
		o.Label = system.Name
		return browser.NewSession(ctx, o)
	}
}

func (a *app) run(ctx context.Context) error {
	def, err := a.definition()
	if err != nil {
		return err
	}
	systems, err := a.systems()
	if err != nil {
		return err
	}
	scenarios, err := a.scenarios()
	if err != nil {
		return err
	}
	renderer, err := a.renderer()
	if err != nil {
		return err
	}
	publisher, err := a.publisher(ctx)
	if err != nil {
		return err
	}
	a.serveMetrics(ctx)

	orch, err := benchmarkorchestrator.NewBrowserBenchmarkOrchestrator(&benchmarkorchestrator.BrowserBenchmarkOrchestratorInput{
		NewSession:           a.sessionFactory(),
		BenchmarkConcurrency: a.v.GetInt("concurrency"),
	})
	if err != nil {
		return err
	}
	for _, s := range scenarios {
		err = orch.AddBenchmark(s)
		if err != nil {
			return err
		}
	}

	err = orch.SetUp(&benchmarkorchestrator.BenchmarkConfig{
		Definition:       def,
		BaseURL:          a.v.GetString("base-url"),
		ResultDir:        a.v.GetString("result-dir"),
		Systems:          systems,
		ProfilerKind:     profile.ProfilerKind(a.v.GetString("profiler")),
		ShowProgress:     a.v.GetBool("progress"),
		HostProcDir:      a.v.GetString("host-counters"),
		Renderer:         renderer,
		GraphConcurrency: a.v.GetInt("graph-concurrency"),
		Publisher:        publisher,
	})
	if err != nil {
		return err
	}

	rep, err := orch.RunBenchmarks(ctx)
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range rep.Reports {
		if r.Error != "" {
			failed++
		}
		slog.Info("run finished",
			slog.String("scenario", r.Name),
			slog.String("system", r.System),
			slog.Int("nodes", r.FinalNodeCount),
			slog.String("stopReason", r.StopReason),
		)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed, see report.json", failed, len(rep.Reports))
	}
	return nil
}
