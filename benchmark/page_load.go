package benchmark

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Octogonapus/EditorBenchmark/aggregate"
	"github.com/Octogonapus/EditorBenchmark/editor"
	"github.com/Octogonapus/EditorBenchmark/report"
)

// InitializationTime is the name of the page load metric. It is not a DevTools counter, so it is never sampled.
const InitializationTime = "InitializationTimeMs"

type navigationTimer interface {
	InteractiveTimeMs(ctx context.Context) (float64, error)
}

// MeasurePageLoad loads the editor page loads times, reads the counters once the editor is visible and averages
// them per metric. When the browser exposes navigation timing, the time to interactive is averaged as well.
func MeasurePageLoad(ctx context.Context, b Browser, baseURL string, system editor.System, loads int) ([]report.Metric, error) {
	if loads <= 0 {
		return nil, fmt.Errorf("loads must be positive, got %d", loads)
	}
	u, err := system.URL(baseURL)
	if err != nil {
		return nil, err
	}
	timer, hasTimer := b.(navigationTimer)

	readings := make([][]report.Metric, 0, loads)
	for i := range loads {
		if err := b.Navigate(ctx, u); err != nil {
			return nil, err
		}
		if err := b.WaitVisible(ctx, system.QuerySelector); err != nil {
			return nil, fmt.Errorf("waiting for %s editor failed: %w", system.Name, err)
		}

		metrics, err := b.GetMetrics(ctx)
		if err != nil {
			return nil, err
		}
		if hasTimer {
			ms, err := timer.InteractiveTimeMs(ctx)
			if err != nil {
				slog.Warn("PageLoad: no initialization time", slog.String("system", system.ID), slog.String("error", err.Error()))
			} else {
				metrics = append(metrics, report.Metric{Name: InitializationTime, Value: ms})
			}
		}
		readings = append(readings, metrics)
		slog.Debug("PageLoad: loaded", slog.String("system", system.ID), slog.Int("load", i+1))
	}
	return aggregate.AverageMetrics(readings), nil
}
