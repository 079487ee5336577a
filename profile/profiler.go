package profile

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/chromedp/chromedp"
)

// Target is the browser tab being profiled.
type Target interface {
	Run(ctx context.Context, actions ...chromedp.Action) error
	Listen(fn func(ev any))
}

// Profiler records what the browser does while a benchmark runs.
type Profiler interface {
	// Start recording. Called right before the driver starts.
	Start(ctx context.Context) error

	// Stop recording and write the result to w.
	Stop(ctx context.Context, w io.Writer) error

	// File extension of the written result, including the dot.
	Ext() string
}

type ProfilerKind string

const (
	None  ProfilerKind = "none"
	Trace ProfilerKind = "trace"
)

type ProfilerFactory func(Target) Profiler

var allProfilers map[ProfilerKind]ProfilerFactory

func RegisterProfiler(kind ProfilerKind, factory ProfilerFactory) {
	if allProfilers == nil {
		allProfilers = map[ProfilerKind]ProfilerFactory{
			None: func(t Target) Profiler { panic("Profiler kind none is reserved and can't be created") },
		}
	}
	allProfilers[kind] = factory
}

func NewProfiler(kind ProfilerKind, target Target) (Profiler, error) {
	if kind == None {
		return nil, fmt.Errorf("Profiler kind none is reserved and can't be created")
	}

	factory, ok := allProfilers[kind]
	if !ok {
		return nil, fmt.Errorf("unknown profiler kind: %s", kind)
	}
	return factory(target), nil
}

func ExplainProfilers() string {
	kinds := make([]string, 0, len(allProfilers))
	for kind := range allProfilers {
		kinds = append(kinds, fmt.Sprintf("%q", kind))
	}
	slices.Sort(kinds)
	return strings.Join(kinds, ", ")
}
