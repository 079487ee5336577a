package editor

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Octogonapus/EditorBenchmark/browser"
)

// System is one of the compared editors, served by the demo app under Path.
type System struct {
	ID            string // short id used in artifact file names
	Name          string // display name used in charts and reports
	Path          string
	QuerySelector string // the editable root element
}

var (
	Lexical = System{
		ID:            "Lexical",
		Name:          "Lexical",
		Path:          "lexical",
		QuerySelector: ".ContentEditable__root",
	}
	ProseMirror = System{
		ID:            "ProseMirror",
		Name:          "ProseMirror",
		Path:          "prosemirror",
		QuerySelector: "#editor",
	}
)

// All returns the compared systems in comparison order. The first one is series A of every comparison dataset.
func All() []System {
	return []System{Lexical, ProseMirror}
}

func Lookup(name string) (System, error) {
	for _, s := range All() {
		if strings.EqualFold(s.ID, name) || strings.EqualFold(s.Path, name) {
			return s, nil
		}
	}
	return System{}, fmt.Errorf("unknown editor: %s", name)
}

func ExplainSystems() string {
	names := make([]string, 0, len(All()))
	for _, s := range All() {
		names = append(names, fmt.Sprintf("%q", s.Path))
	}
	return strings.Join(names, ", ")
}

func (s System) URL(baseURL string) (string, error) {
	u, err := url.JoinPath(baseURL, s.Path)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	return u, nil
}

// FindEditor opens the editor page, waits for the editable root and focuses it.
func FindEditor(ctx context.Context, a browser.Automation, baseURL string, s System) error {
	u, err := s.URL(baseURL)
	if err != nil {
		return err
	}
	if err := a.Navigate(ctx, u); err != nil {
		return err
	}
	if err := a.WaitVisible(ctx, s.QuerySelector); err != nil {
		return fmt.Errorf("waiting for %s editor failed: %w", s.Name, err)
	}
	if err := a.Click(ctx, s.QuerySelector); err != nil {
		return fmt.Errorf("focusing %s editor failed: %w", s.Name, err)
	}
	return nil
}
