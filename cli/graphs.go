package main

import (
	"fmt"

	benchmarkorchestrator "github.com/Octogonapus/EditorBenchmark/benchmark_orchestrator"
	"github.com/Octogonapus/EditorBenchmark/chart"
	"github.com/spf13/cobra"
)

func (a *app) newGraphsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graphs <dir>",
		Short: "Render the graphs of a results directory again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.graphs(args[0])
		},
	}
	flags := cmd.Flags()
	addSystemFlags(flags)
	addRendererFlag(flags)
	flags.StringSlice("metrics", defaultMetrics(), "The metrics to chart.")
	flags.String("out-dir", "", "Where the images are written. Defaults to <dir>/graphs.")
	flags.Int("graph-concurrency", 4, "The number of goroutines rendering graphs.")
	return cmd
}

func (a *app) graphs(dir string) error {
	systems, err := a.systems()
	if err != nil {
		return err
	}
	renderer, err := a.renderer()
	if err != nil {
		return err
	}
	if renderer == nil {
		return fmt.Errorf("a renderer is required to render graphs")
	}
	return chart.GenerateGraphs(chart.GraphConfig{
		ResultDir:   dir,
		OutDir:      a.v.GetString("out-dir"),
		Systems:     benchmarkorchestrator.GraphSystems(systems),
		Metrics:     a.metricNames(),
		Renderer:    renderer,
		Concurrency: a.v.GetInt("graph-concurrency"),
	})
}
