package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Octogonapus/EditorBenchmark/report"
	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/performance"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

type Options struct {
	Headless       bool
	ExecPath       string        // browser binary, found on PATH when empty
	ElementTimeout time.Duration // how long element lookups wait before ErrElementNotFound
	MinVersion     string
	WindowWidth    int
	WindowHeight   int
	Label          string // prefix for forwarded console messages
}

func DefaultOptions() Options {
	return Options{
		Headless:       true,
		ElementTimeout: 10 * time.Second,
		MinVersion:     "100.0",
		WindowWidth:    1280,
		WindowHeight:   1024,
	}
}

// Session is one browser tab controlled over the DevTools protocol. It implements Automation and
// Instrumentation.
type Session struct {
	opts        Options
	ctx         context.Context
	cancel      context.CancelFunc
	product     string
	mu          sync.Mutex
	pendingText *string
}

var (
	_ Automation      = (*Session)(nil)
	_ Instrumentation = (*Session)(nil)
)

// NewSession launches a browser and opens a blank tab. The browser is closed by Close or when ctx is done.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		opts: opts,
		ctx:  tabCtx,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
	}
	chromedp.ListenTarget(tabCtx, s.onEvent)

	// The first Run starts the browser, it must use the tab context itself so that no deadline kills it.
	var protocolVersion, revision, userAgent, jsVersion string
	err := chromedp.Run(tabCtx,
		performance.Enable(),
		runtime.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			protocolVersion, s.product, revision, userAgent, jsVersion, err = cdpbrowser.GetVersion().Do(ctx)
			return err
		}),
	)
	if err != nil {
		s.cancel()
		return nil, fmt.Errorf("starting browser failed: %w", err)
	}
	slog.Debug("Browser: started",
		slog.String("product", s.product),
		slog.String("protocol", protocolVersion),
		slog.String("revision", revision),
		slog.String("userAgent", userAgent),
		slog.String("js", jsVersion),
	)

	if err := CheckVersion(s.product, opts.MinVersion); err != nil {
		s.cancel()
		return nil, err
	}
	return s, nil
}

func (s *Session) Product() string {
	return s.product
}

func (s *Session) Close() {
	s.cancel()
}

// Run executes raw chromedp actions in this tab. It returns when the actions finish or ctx is done.
func (s *Session) Run(ctx context.Context, actions ...chromedp.Action) error {
	return s.run(ctx, 0, actions...)
}

// Listen registers fn for every DevTools event of this tab.
func (s *Session) Listen(fn func(ev any)) {
	chromedp.ListenTarget(s.ctx, fn)
}

func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(s.ctx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *Session) element(ctx context.Context, selector string, action chromedp.Action) error {
	err := s.run(ctx, s.opts.ElementTimeout, action)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return err
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	err := s.run(ctx, 0, chromedp.Navigate(url))
	if err != nil {
		return fmt.Errorf("navigating to %s failed: %w", url, err)
	}
	return nil
}

func (s *Session) WaitVisible(ctx context.Context, selector string) error {
	return s.element(ctx, selector, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (s *Session) Click(ctx context.Context, selector string) error {
	return s.element(ctx, selector, chromedp.Click(selector, chromedp.ByQuery))
}

func (s *Session) Type(ctx context.Context, text string) error {
	return s.run(ctx, 0, chromedp.KeyEvent(text))
}

func (s *Session) PressKey(ctx context.Context, key Key) error {
	code, err := key.code()
	if err != nil {
		return err
	}
	return s.run(ctx, 0, chromedp.KeyEvent(code))
}

func (s *Session) InsertText(ctx context.Context, text string) error {
	return s.run(ctx, 0, input.InsertText(text))
}

func (s *Session) SelectAll(ctx context.Context) error {
	return s.run(ctx, 0, chromedp.KeyEvent("a", chromedp.KeyModifiers(input.ModifierCtrl)))
}

func (s *Session) AcceptNextPrompt(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingText = &text
	return nil
}

func (s *Session) GetMetrics(ctx context.Context) ([]report.Metric, error) {
	var out []report.Metric
	err := s.run(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		metrics, err := performance.GetMetrics().Do(ctx)
		if err != nil {
			return err
		}
		out = make([]report.Metric, 0, len(metrics))
		for _, m := range metrics {
			out = append(out, report.Metric{Name: m.Name, Value: m.Value})
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("reading performance metrics failed: %w", err)
	}
	return out, nil
}

func (s *Session) takePendingText() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingText == nil {
		return "", false
	}
	text := *s.pendingText
	s.pendingText = nil
	return text, true
}

func (s *Session) onEvent(ev any) {
	switch ev := ev.(type) {
	case *page.EventJavascriptDialogOpening:
		text, ok := s.takePendingText()
		// Event handlers must not block, so the answer is sent from another goroutine.
		go func() {
			action := page.HandleJavaScriptDialog(ok)
			if ok {
				action = action.WithPromptText(text)
			}
			if err := chromedp.Run(s.ctx, action); err != nil {
				slog.Warn("Browser: answering dialog failed", slog.String("message", ev.Message), slog.String("error", err.Error()))
			}
		}()
	case *runtime.EventConsoleAPICalled:
		if ev.Type == runtime.APITypeError {
			return
		}
		for _, arg := range ev.Args {
			slog.Info("Browser: console", slog.String("editor", s.opts.Label), slog.String("type", string(ev.Type)), slog.String("text", consoleText(arg)))
		}
	}
}

func consoleText(arg *runtime.RemoteObject) string {
	if len(arg.Value) > 0 {
		return string(arg.Value)
	}
	return arg.Description
}

const interactiveTimeJS = `(() => {
	const t = performance.getEntriesByType("navigation")[0];
	return t ? t.domInteractive - t.startTime : -1;
})()`

// InteractiveTimeMs reads how long the current page took to become interactive from the navigation timing entry.
func (s *Session) InteractiveTimeMs(ctx context.Context) (float64, error) {
	var ms float64
	err := s.run(ctx, 0, chromedp.Evaluate(interactiveTimeJS, &ms))
	if err != nil {
		return 0, fmt.Errorf("reading navigation timing failed: %w", err)
	}
	if ms < 0 {
		return 0, fmt.Errorf("page has no navigation timing entry")
	}
	return ms, nil
}
