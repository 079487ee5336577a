package benchmarkorchestrator

import (
	"context"

	"github.com/Octogonapus/EditorBenchmark/benchmark"
	"github.com/Octogonapus/EditorBenchmark/chart"
	"github.com/Octogonapus/EditorBenchmark/editor"
	"github.com/Octogonapus/EditorBenchmark/profile"
	"github.com/Octogonapus/EditorBenchmark/publish"
	"github.com/Octogonapus/EditorBenchmark/report"
)

type BenchmarkConfig struct {
	Definition   benchmark.Definition
	BaseURL      string
	ResultDir    string
	Systems      []editor.System
	ProfilerKind profile.ProfilerKind
	ShowProgress bool
	HostProcDir  string // also sample host CPU and memory from this procfs mount when set

	Renderer         chart.Renderer    `json:"-"` // no graph pass when nil
	GraphConcurrency int               `json:"-"`
	Publisher        publish.Publisher `json:"-"` // results stay local when nil
}

type Report struct {
	Config  *BenchmarkConfig
	Reports []*report.RunResult
}

// Runs every scenario against every compared system.
type BenchmarkOrchestrator interface {
	// Add a scenario to be ran later.
	AddBenchmark(benchmark.Scenario) error

	// Prepare the result directory.
	SetUp(*BenchmarkConfig) error

	// Run all scenarios, write the report, render the graphs and publish the results.
	RunBenchmarks(ctx context.Context) (*Report, error)
}
