package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Octogonapus/EditorBenchmark/aggregate"
	"github.com/Octogonapus/EditorBenchmark/chart"
	"github.com/Octogonapus/EditorBenchmark/profile"
	"github.com/Octogonapus/EditorBenchmark/report"
	"github.com/spf13/cobra"
)

var traceMetrics = []string{report.ScriptDuration, report.HeapUsedBytes, report.LayoutCount, report.ThreadTime}

func (a *app) newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <file>",
		Short: "Bucket a recorded trace into per-interval counters and chart them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.trace(args[0])
		},
	}
	flags := cmd.Flags()
	addRendererFlag(flags)
	flags.Duration("bucket", profile.DefaultBucket, "The width of one bucket.")
	flags.String("out-dir", "", "Where the extracted data and graphs are written. Defaults to the directory of the trace.")
	return cmd
}

// traceLabel names the outputs after the trace file, e.g. Lexical-trace.json becomes Lexical-trace.
func traceLabel(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func (a *app) trace(path string) error {
	bucket := a.v.GetDuration("bucket")
	if bucket <= 0 {
		return fmt.Errorf("bucket must be positive, got %s", bucket)
	}
	renderer, err := a.renderer()
	if err != nil {
		return err
	}
	outDir := a.v.GetString("out-dir")
	if outDir == "" {
		outDir = filepath.Dir(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	events, err := profile.ReadTrace(f)
	if err != nil {
		return err
	}
	data := profile.ProcessTrace(events, bucket)
	slog.Info("processed trace", slog.String("path", path), slog.Int("events", len(events)), slog.Int("buckets", len(data.ScriptDurations)))

	w, err := report.NewWriter(outDir)
	if err != nil {
		return err
	}
	label := traceLabel(path)
	err = w.WriteJSON(label+"-extracted.json", data)
	if err != nil {
		return err
	}
	if renderer == nil {
		return nil
	}

	samples := data.Samples(bucket)
	xLabel := fmt.Sprintf("Elapsed (%s buckets)", bucket)
	for _, m := range traceMetrics {
		series := aggregate.FilterMetric(label, m, samples)
		ds := aggregate.BuildComparisonDataset(m, [2]string{label, ""}, &series, nil, nil)
		out := filepath.Join(outDir, chart.FileName(m, label+"-"+m))
		err = renderer.RenderLineChart(ds, xLabel, m, out)
		if err != nil {
			return fmt.Errorf("rendering %s failed: %w", m, err)
		}
	}
	return nil
}
