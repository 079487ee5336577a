package profile

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	cdpio "github.com/chromedp/cdproto/io"
	"github.com/chromedp/cdproto/tracing"
	"github.com/chromedp/chromedp"
)

// Categories needed by ProcessTrace, plus the default timeline ones.
var traceCategories = []string{
	"devtools.timeline",
	"disabled-by-default-devtools.timeline",
	"v8.execute",
	"blink",
	"toplevel",
}

type chromeTrace struct {
	target   Target
	complete chan *tracing.EventTracingComplete
}

func init() {
	RegisterProfiler(Trace, NewChromeTrace)
}

// NewChromeTrace records a DevTools performance trace of the tab, the same kind of file the Performance panel
// saves.
func NewChromeTrace(target Target) Profiler {
	return &chromeTrace{target: target, complete: make(chan *tracing.EventTracingComplete, 1)}
}

func (c *chromeTrace) Ext() string {
	return ".json"
}

func (c *chromeTrace) Start(ctx context.Context) error {
	c.target.Listen(func(ev any) {
		if ev, ok := ev.(*tracing.EventTracingComplete); ok {
			select {
			case c.complete <- ev:
			default:
			}
		}
	})

	err := c.target.Run(ctx, tracing.Start().
		WithTransferMode(tracing.TransferModeReturnAsStream).
		WithTraceConfig(&tracing.TraceConfig{IncludedCategories: traceCategories}))
	if err != nil {
		return fmt.Errorf("starting trace failed: %w", err)
	}
	slog.Debug("ChromeTrace: started")
	return nil
}

func (c *chromeTrace) Stop(ctx context.Context, w io.Writer) error {
	err := c.target.Run(ctx, tracing.End())
	if err != nil {
		return fmt.Errorf("ending trace failed: %w", err)
	}

	var ev *tracing.EventTracingComplete
	select {
	case ev = <-c.complete:
	case <-ctx.Done():
		return fmt.Errorf("waiting for trace failed: %w", ctx.Err())
	}
	if ev.DataLossOccurred {
		slog.Warn("ChromeTrace: trace buffer overflowed, the trace is incomplete")
	}

	written := 0
	err = c.target.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		defer cdpio.Close(ev.Stream).Do(ctx)
		for {
			data, eof, err := cdpio.Read(ev.Stream).Do(ctx)
			if err != nil {
				return err
			}
			n, err := io.WriteString(w, data)
			written += n
			if err != nil {
				return err
			}
			if eof {
				return nil
			}
		}
	}))
	if err != nil {
		return fmt.Errorf("reading trace stream failed: %w", err)
	}
	slog.Debug("ChromeTrace: stopped", slog.Int("bytes", written))
	return nil
}
