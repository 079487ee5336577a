package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Octogonapus/EditorBenchmark/benchmark"
	benchmarkorchestrator "github.com/Octogonapus/EditorBenchmark/benchmark_orchestrator"
	"github.com/Octogonapus/EditorBenchmark/editor"
	"github.com/Octogonapus/EditorBenchmark/report"
	"github.com/spf13/cobra"
)

// PageLoadResult is the averaged counters of one editor after loads page loads.
type PageLoadResult struct {
	System  string
	Loads   int
	Metrics []report.Metric
	Error   string `json:",omitempty"`
}

func (a *app) newAverageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "average",
		Short: "Load each editor page repeatedly and average the counters per metric",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.average(cmd.Context())
		},
	}
	flags := cmd.Flags()
	addSystemFlags(flags)
	addBrowserFlags(flags)
	flags.Int("loads", 10, "How many times each page is loaded.")
	flags.String("result-dir", "results", "The directory pageLoad.json is written to.")
	return cmd
}

const pageLoadFileName = "pageLoad.json"

func (a *app) average(ctx context.Context) error {
	systems, err := a.systems()
	if err != nil {
		return err
	}
	loads := a.v.GetInt("loads")
	if loads <= 0 {
		return fmt.Errorf("loads must be positive, got %d", loads)
	}
	w, err := report.NewWriter(a.v.GetString("result-dir"))
	if err != nil {
		return err
	}
	newSession := a.sessionFactory()

	results := []PageLoadResult{}
	for _, s := range systems {
		res := a.averageSystem(ctx, newSession, s, loads)
		if res.Error != "" {
			slog.Error("page load measurement failed", slog.String("system", s.ID), slog.String("error", res.Error))
		}
		results = append(results, res)
	}

	err = w.WriteJSON(pageLoadFileName, results)
	if err != nil {
		return err
	}
	slog.Info("wrote page load averages", slog.String("path", filepath.Join(w.Dir(), pageLoadFileName)))
	for _, r := range results {
		if r.Error != "" {
			return fmt.Errorf("some page loads failed, see %s", pageLoadFileName)
		}
	}
	return nil
}

func (a *app) averageSystem(ctx context.Context, newSession benchmarkorchestrator.SessionFactory, s editor.System, loads int) PageLoadResult {
	res := PageLoadResult{System: s.ID, Loads: loads}
	session, err := newSession(ctx, s)
	if err != nil {
		res.Error = fmt.Errorf("opening browser session failed: %w", err).Error()
		return res
	}
	defer session.Close()

	metrics, err := benchmark.MeasurePageLoad(ctx, session, a.v.GetString("base-url"), s, loads)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Metrics = metrics
	return res
}
