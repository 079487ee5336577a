package benchmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Octogonapus/EditorBenchmark/metrics"
	"github.com/Octogonapus/EditorBenchmark/report"
	"github.com/schollz/progressbar/v3"
)

// StepFunc performs iteration i of a run.
type StepFunc func(ctx context.Context, i int) error

type DriveResult struct {
	Iterations int // steps attempted
	StepErrors int
	StopReason string
}

type DriveOptions struct {
	MaxIterations int
	Timeout       time.Duration // 0 disables the timeout
	ShowProgress  bool
}

// RunBenchmark performs the steps one after another until MaxIterations is reached, the timeout elapses or ctx is
// done. Each successful step advances the node count of rc and records a checkpoint when one is due. A failing step
// is logged and counted, and the loop moves on to the next iteration. Stopping on timeout or cancellation is not an
// error: whatever was collected until then is the result.
func RunBenchmark(ctx context.Context, rc *RunContext, opts DriveOptions, step StepFunc) DriveResult {
	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}
	defer cancel()

	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.Default(int64(opts.MaxIterations), fmt.Sprintf("%s:", rc.System))
	}

	slog.Info("Driver: starting", slog.String("system", rc.System), slog.Int("maxIterations", opts.MaxIterations))
	res := DriveResult{StopReason: report.StopCompleted}
	for i := 0; i < opts.MaxIterations; i++ {
		if runCtx.Err() != nil {
			break
		}

		stepStart := time.Now()
		err := step(runCtx, i)
		res.Iterations++
		if err != nil {
			if runCtx.Err() != nil && isContextErr(err) {
				// Interrupted by the timeout or cancellation, not a failure of the step.
				break
			}
			res.StepErrors++
			metrics.StepErrorsTotal.WithLabelValues(rc.System).Inc()
			slog.Warn("Driver: step failed", slog.String("system", rc.System), slog.Int("iteration", i), slog.String("error", err.Error()))
			continue
		}
		elapsed := time.Since(stepStart)
		rc.RecordLatency(elapsed)
		metrics.StepsTotal.WithLabelValues(rc.System).Inc()
		metrics.StepDuration.WithLabelValues(rc.System).Observe(elapsed.Seconds())

		progress := rc.Advance()
		metrics.NodeCount.WithLabelValues(rc.System).Set(float64(progress))
		if rc.Recorder.ShouldRecord(progress) {
			rc.Recorder.RecordCheckpoint(progress, rc.ElapsedMs())
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		bar.Finish()
	}

	switch {
	case ctx.Err() != nil:
		res.StopReason = report.StopCancelled
	case runCtx.Err() != nil:
		res.StopReason = report.StopTimeout
	}

	progress := rc.Progress()
	if last, ok := rc.Recorder.Last(); progress > 0 && (!ok || last.NodeCount != progress) {
		rc.Recorder.RecordCheckpoint(progress, rc.ElapsedMs())
	}

	slog.Info("Driver: finished",
		slog.String("system", rc.System),
		slog.String("stopReason", res.StopReason),
		slog.Int("nodeCount", progress),
		slog.Int("stepErrors", res.StepErrors),
	)
	return res
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
