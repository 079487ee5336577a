// Package browsertest provides an in-memory browser for tests.
package browsertest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Octogonapus/EditorBenchmark/browser"
	"github.com/Octogonapus/EditorBenchmark/report"
)

// Fake records every call as a string and answers GetMetrics from Metrics. Selectors listed in Missing fail with
// browser.ErrElementNotFound.
type Fake struct {
	mu      sync.Mutex
	calls   []string
	Missing []string
	Metrics []report.Metric
	// FailMetrics makes every GetMetrics call fail.
	FailMetrics bool
	// Hook runs at the start of every Automation call, e.g. to cancel a context mid-run.
	Hook func(call string)
}

var (
	_ browser.Automation      = (*Fake)(nil)
	_ browser.Instrumentation = (*Fake)(nil)
)

func (f *Fake) record(ctx context.Context, call string) error {
	if f.Hook != nil {
		f.Hook(call)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return nil
}

func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *Fake) element(ctx context.Context, verb, selector string) error {
	if slices.Contains(f.Missing, selector) {
		return fmt.Errorf("%w: %s", browser.ErrElementNotFound, selector)
	}
	return f.record(ctx, verb+" "+selector)
}

func (f *Fake) Navigate(ctx context.Context, url string) error {
	return f.record(ctx, "navigate "+url)
}

func (f *Fake) WaitVisible(ctx context.Context, selector string) error {
	return f.element(ctx, "wait", selector)
}

func (f *Fake) Click(ctx context.Context, selector string) error {
	return f.element(ctx, "click", selector)
}

func (f *Fake) Type(ctx context.Context, text string) error {
	return f.record(ctx, "type "+text)
}

func (f *Fake) PressKey(ctx context.Context, key browser.Key) error {
	return f.record(ctx, "press "+string(key))
}

func (f *Fake) InsertText(ctx context.Context, text string) error {
	return f.record(ctx, "insert "+text)
}

func (f *Fake) SelectAll(ctx context.Context) error {
	return f.record(ctx, "select-all")
}

func (f *Fake) AcceptNextPrompt(ctx context.Context, text string) error {
	return f.record(ctx, "prompt "+text)
}

func (f *Fake) GetMetrics(ctx context.Context) ([]report.Metric, error) {
	if f.FailMetrics {
		return nil, fmt.Errorf("target closed")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.Metrics), nil
}
