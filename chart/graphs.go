package chart

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Octogonapus/EditorBenchmark/aggregate"
	"github.com/Octogonapus/EditorBenchmark/report"
	"github.com/alitto/pond"
)

// GraphsDirName is where the graph pass writes its images, relative to the results directory.
const GraphsDirName = "graphs"

type GraphConfig struct {
	ResultDir   string
	OutDir      string    // defaults to ResultDir/graphs
	Systems     [2]string // system ids, series A and B of every comparison
	Metrics     []string
	Renderer    Renderer
	Concurrency int
}

type job struct {
	ds     report.ComparisonDataset
	yLabel string
	file   string
}

type systemData struct {
	samples     []report.Sample
	checkpoints []report.Checkpoint
}

// GenerateGraphs reads the JSON artifacts of both systems and renders, per metric, the comparison chart and one
// chart per system, plus the node count vs. time charts. A system without artifacts is charted as empty. All
// charts are attempted; the returned error joins the failures.
func GenerateGraphs(cfg GraphConfig) error {
	outDir := cfg.OutDir
	if outDir == "" {
		outDir = filepath.Join(cfg.ResultDir, GraphsDirName)
	}
	err := os.MkdirAll(outDir, fs.ModePerm)
	if err != nil {
		return fmt.Errorf("creating graphs dir failed: %w", err)
	}

	var data [2]systemData
	for i, system := range cfg.Systems {
		data[i] = readSystem(cfg.ResultDir, system)
	}

	jobs := planGraphs(cfg.Systems, cfg.Metrics, data)
	for i := range jobs {
		jobs[i].file = filepath.Join(outDir, jobs[i].file)
	}

	concurrency := max(cfg.Concurrency, 1)
	var mu sync.Mutex
	var errs []error
	pool := pond.New(concurrency, 0, pond.MinWorkers(concurrency))
	for _, j := range jobs {
		pool.Submit(func() {
			err := cfg.Renderer.RenderLineChart(j.ds, NodeCountAxis, j.yLabel, j.file)
			if err != nil {
				slog.Error("ChartRenderer: rendering failed", slog.String("file", j.file), slog.String("error", err.Error()))
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			slog.Info("ChartRenderer: graph created", slog.String("file", j.file))
		})
	}
	pool.StopAndWait()
	return errors.Join(errs...)
}

func readSystem(dir, system string) systemData {
	samples, err := report.ReadSamples(dir, system)
	if err != nil {
		slog.Warn("ChartRenderer: no samples", slog.String("system", system), slog.String("error", err.Error()))
	}
	checkpoints, err := report.ReadCheckpoints(dir, system)
	if err != nil {
		slog.Warn("ChartRenderer: no checkpoints", slog.String("system", system), slog.String("error", err.Error()))
	}
	return systemData{samples: samples, checkpoints: checkpoints}
}

func yLabel(metric string) string {
	if metric == report.HeapUsedBytes {
		return metric + " (MB)"
	}
	return metric
}

func planGraphs(systems [2]string, metrics []string, data [2]systemData) []job {
	var jobs []job
	allCheckpoints := append(append([]report.Checkpoint{}, data[0].checkpoints...), data[1].checkpoints...)

	for _, m := range metrics {
		a := aggregate.FilterMetric(systems[0], m, data[0].samples)
		b := aggregate.FilterMetric(systems[1], m, data[1].samples)
		jobs = append(jobs,
			job{
				ds:     aggregate.BuildComparisonDataset(m, systems, &a, &b, allCheckpoints),
				yLabel: yLabel(m),
				file:   FileName(m, ""),
			},
			job{
				ds:     aggregate.BuildComparisonDataset(m, systems, &a, nil, data[0].checkpoints),
				yLabel: yLabel(m),
				file:   FileName(m, systems[0]+"-"+m),
			},
			job{
				ds:     aggregate.BuildComparisonDataset(m, systems, nil, &b, data[1].checkpoints),
				yLabel: yLabel(m),
				file:   FileName(m, systems[1]+"-"+m),
			},
		)
	}

	timeLabel := aggregate.TimeMetric + " (s)"
	jobs = append(jobs,
		job{
			ds:     aggregate.BuildTimeDataset(systems, data[0].checkpoints, data[1].checkpoints),
			yLabel: timeLabel,
			file:   FileName(aggregate.TimeMetric, ""),
		},
		job{
			ds:     aggregate.BuildTimeDataset(systems, data[0].checkpoints, nil),
			yLabel: timeLabel,
			file:   FileName(aggregate.TimeMetric, systems[0]+"-"+aggregate.TimeMetric),
		},
		job{
			ds:     aggregate.BuildTimeDataset(systems, nil, data[1].checkpoints),
			yLabel: timeLabel,
			file:   FileName(aggregate.TimeMetric, systems[1]+"-"+aggregate.TimeMetric),
		},
	)
	return jobs
}
