// Package aggregate turns raw samples and checkpoints into chartable series.
package aggregate

import (
	"math"
	"slices"

	"github.com/Octogonapus/EditorBenchmark/report"
)

// ConvertValue applies the display unit of a metric. Only the JS heap size is converted, from bytes to MB.
func ConvertValue(metric string, v float64) float64 {
	if metric == report.HeapUsedBytes {
		return v / report.BytesPerMB
	}
	return v
}

// FilterMetric extracts one metric from every sample that carries it, in display units. Samples without the metric
// contribute no point.
func FilterMetric(system, metric string, samples []report.Sample) report.MetricSeries {
	out := report.MetricSeries{System: system, Metric: metric, Points: []report.Point{}}
	for _, s := range samples {
		v, ok := s.Lookup(metric)
		if !ok {
			continue
		}
		out.Points = append(out.Points, report.Point{NodeCount: s.NodeCount, Value: ConvertValue(metric, v)})
	}
	return out
}

// FilterMetrics runs FilterMetric for every selected metric.
func FilterMetrics(system string, metrics []string, samples []report.Sample) []report.MetricSeries {
	out := make([]report.MetricSeries, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, FilterMetric(system, m, samples))
	}
	return out
}

type merged struct {
	a, b *float64
}

// BuildComparisonDataset aligns two series, as returned by FilterMetric, on node count. seriesA and seriesB may be
// nil when only one system is charted; the checkpoints only add node counts. The result has exactly one point per
// node count, sorted ascending. A real reading always wins over a missing one, and when one system has several
// readings at the same node count the later one is kept.
func BuildComparisonDataset(metric string, labels [2]string, seriesA, seriesB *report.MetricSeries, checkpoints []report.Checkpoint) report.ComparisonDataset {
	byNodeCount := map[int]*merged{}
	get := func(nodeCount int) *merged {
		m, ok := byNodeCount[nodeCount]
		if !ok {
			m = &merged{}
			byNodeCount[nodeCount] = m
		}
		return m
	}

	if seriesA != nil {
		for _, p := range seriesA.Points {
			v := p.Value
			get(p.NodeCount).a = &v
		}
	}
	if seriesB != nil {
		for _, p := range seriesB.Points {
			v := p.Value
			get(p.NodeCount).b = &v
		}
	}
	for _, c := range checkpoints {
		get(c.NodeCount)
	}

	return toDataset(metric, labels, byNodeCount)
}

// BuildTimeDataset charts elapsed seconds (rounded) against node count for both systems.
func BuildTimeDataset(labels [2]string, checkpointsA, checkpointsB []report.Checkpoint) report.ComparisonDataset {
	byNodeCount := map[int]*merged{}
	add := func(checkpoints []report.Checkpoint, b bool) {
		for _, c := range checkpoints {
			m, ok := byNodeCount[c.NodeCount]
			if !ok {
				m = &merged{}
				byNodeCount[c.NodeCount] = m
			}
			v := math.Round(c.TimeMs / 1000)
			if b {
				m.b = &v
			} else {
				m.a = &v
			}
		}
	}
	add(checkpointsA, false)
	add(checkpointsB, true)
	return toDataset(TimeMetric, labels, byNodeCount)
}

// TimeMetric names the node count vs. elapsed time chart.
const TimeMetric = "Time"

func toDataset(metric string, labels [2]string, byNodeCount map[int]*merged) report.ComparisonDataset {
	keys := make([]int, 0, len(byNodeCount))
	for k := range byNodeCount {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := report.ComparisonDataset{Metric: metric, Labels: labels, Points: make([]report.ComparisonPoint, 0, len(keys))}
	for _, k := range keys {
		m := byNodeCount[k]
		out.Points = append(out.Points, report.ComparisonPoint{NodeCount: k, ValueA: m.a, ValueB: m.b})
	}
	return out
}
