// Package metrics instruments the harness itself so long runs can be watched while they happen.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "editorbench"

var (
	SamplesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "samples_total",
		Help:      "Counter samples appended to a run buffer.",
	}, []string{"system"})

	SkippedTicksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "skipped_ticks_total",
		Help:      "Sampling ticks skipped because counters could not be read.",
	}, []string{"system"})

	StepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "steps_total",
		Help:      "Driver steps performed.",
	}, []string{"system"})

	StepErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "step_errors_total",
		Help:      "Driver steps that returned an error.",
	}, []string{"system"})

	StepDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "step_duration_seconds",
		Help:      "Wall-clock duration of one driver step.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"system"})

	NodeCount = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "node_count",
		Help:      "Current progress counter of the run.",
	}, []string{"system"})
)

var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(SamplesTotal, SkippedTicksTotal, StepsTotal, StepErrorsTotal, StepDuration, NodeCount)
}

// Serve exposes Registry on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("serving metrics", slog.String("addr", addr))
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
