package aggregate

import (
	"log/slog"

	"github.com/Octogonapus/EditorBenchmark/report"
	"github.com/montanaflynn/stats"
)

// AverageMetrics averages repeated readings per metric name. Names keep the order in which they were first seen.
func AverageMetrics(readings [][]report.Metric) []report.Metric {
	var order []string
	values := map[string][]float64{}
	for _, metrics := range readings {
		for _, m := range metrics {
			if _, ok := values[m.Name]; !ok {
				order = append(order, m.Name)
			}
			values[m.Name] = append(values[m.Name], m.Value)
		}
	}

	out := make([]report.Metric, 0, len(order))
	for _, name := range order {
		mean, err := stats.Mean(values[name])
		if err != nil {
			slog.Warn("Aggregator: can't average metric", slog.String("metric", name), slog.String("error", err.Error()))
			continue
		}
		out = append(out, report.Metric{Name: name, Value: mean})
	}
	return out
}

// Summarize describes the distribution of a series as returned by FilterMetric. Empty series give a zero summary.
func Summarize(series report.MetricSeries) report.SeriesSummary {
	out := report.SeriesSummary{Metric: series.Metric, Count: len(series.Points)}
	if len(series.Points) == 0 {
		return out
	}

	data := make(stats.Float64Data, len(series.Points))
	for i, p := range series.Points {
		data[i] = p.Value
	}
	// Errors only happen for empty input, which is handled above.
	out.Min, _ = data.Min()
	out.Max, _ = data.Max()
	out.Mean, _ = data.Mean()
	out.Median, _ = data.Median()
	out.P95, _ = data.Percentile(95)
	return out
}

func SummarizeAll(series []report.MetricSeries) []report.SeriesSummary {
	out := make([]report.SeriesSummary, 0, len(series))
	for _, s := range series {
		out = append(out, Summarize(s))
	}
	return out
}
