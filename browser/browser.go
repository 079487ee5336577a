package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Octogonapus/EditorBenchmark/report"
	"github.com/chromedp/chromedp/kb"
	"github.com/hashicorp/go-version"
)

var (
	// ErrElementNotFound is returned when a selector did not become visible within the element timeout.
	ErrElementNotFound = errors.New("element not found")

	ErrUnsupportedBrowser = errors.New("unsupported browser")
)

// Key is a named keyboard key that can be pressed on its own.
type Key string

const (
	KeyEnter      Key = "Enter"
	KeyBackspace  Key = "Backspace"
	KeyDelete     Key = "Delete"
	KeyTab        Key = "Tab"
	KeyEscape     Key = "Escape"
	KeyArrowUp    Key = "ArrowUp"
	KeyArrowDown  Key = "ArrowDown"
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowRight Key = "ArrowRight"
	KeyHome       Key = "Home"
	KeyEnd        Key = "End"
)

var keyCodes = map[Key]string{
	KeyEnter:      kb.Enter,
	KeyBackspace:  kb.Backspace,
	KeyDelete:     kb.Delete,
	KeyTab:        kb.Tab,
	KeyEscape:     kb.Escape,
	KeyArrowUp:    kb.ArrowUp,
	KeyArrowDown:  kb.ArrowDown,
	KeyArrowLeft:  kb.ArrowLeft,
	KeyArrowRight: kb.ArrowRight,
	KeyHome:       kb.Home,
	KeyEnd:        kb.End,
}

// ParseKey accepts the key names used in scenario files.
func ParseKey(name string) (Key, error) {
	for k := range keyCodes {
		if strings.EqualFold(string(k), name) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown key: %s", name)
}

func (k Key) code() (string, error) {
	code, ok := keyCodes[k]
	if !ok {
		return "", fmt.Errorf("unknown key: %s", k)
	}
	return code, nil
}

// Automation drives a page the way a user would. Every call blocks until the browser acknowledged the input.
type Automation interface {
	Navigate(ctx context.Context, url string) error

	// Wait until the selector matches a visible element. Fails with ErrElementNotFound after the element timeout.
	WaitVisible(ctx context.Context, selector string) error

	Click(ctx context.Context, selector string) error

	// Type text into the focused element, one key event per character.
	Type(ctx context.Context, text string) error

	PressKey(ctx context.Context, key Key) error

	// Insert text into the focused element in one input event, like a paste.
	InsertText(ctx context.Context, text string) error

	SelectAll(ctx context.Context) error

	// Answer the next prompt() dialog with text. Dialogs opened without a pending answer are dismissed.
	AcceptNextPrompt(ctx context.Context, text string) error
}

// Instrumentation reads the browser's performance counters.
type Instrumentation interface {
	GetMetrics(ctx context.Context) ([]report.Metric, error)
}

// CheckVersion fails with ErrUnsupportedBrowser when the product string (e.g. "HeadlessChrome/120.0.6099.109")
// reports a version lower than minVersion. An empty minVersion accepts everything.
func CheckVersion(product, minVersion string) error {
	if minVersion == "" {
		return nil
	}
	want, err := version.NewVersion(minVersion)
	if err != nil {
		return fmt.Errorf("invalid minimum browser version %q: %w", minVersion, err)
	}

	_, raw, ok := strings.Cut(product, "/")
	if !ok {
		return fmt.Errorf("%w: can't parse product %q", ErrUnsupportedBrowser, product)
	}
	have, err := version.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("%w: can't parse version of %q: %v", ErrUnsupportedBrowser, product, err)
	}
	if have.LessThan(want) {
		return fmt.Errorf("%w: %s is older than %s", ErrUnsupportedBrowser, product, want)
	}
	return nil
}
