package editor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Octogonapus/EditorBenchmark/browser"
)

type CommandKind string

const (
	Bold           CommandKind = "bold"
	Italic         CommandKind = "italic"
	Code           CommandKind = "code"
	Heading        CommandKind = "heading"
	Quote          CommandKind = "quote"
	CodeBlock      CommandKind = "code-block"
	Paragraph      CommandKind = "paragraph"
	InsertLink     CommandKind = "link"
	HorizontalRule CommandKind = "hr"
	OrderedList    CommandKind = "ordered-list"
	UnorderedList  CommandKind = "unordered-list"
	Undo           CommandKind = "undo"
	Redo           CommandKind = "redo"
)

const (
	MinHeadingLevel = 1
	MaxHeadingLevel = 5
)

var allCommandKinds = []CommandKind{
	Bold, Italic, Code, Heading, Quote, CodeBlock, Paragraph, InsertLink, HorizontalRule, OrderedList, UnorderedList,
	Undo, Redo,
}

// Command is a toolbar action both editors expose. Level is only set for Heading and URL only for InsertLink.
type Command struct {
	Kind  CommandKind
	Level int
	URL   string
}

func NewCommand(kind CommandKind) Command {
	return Command{Kind: kind}
}

func NewHeading(level int) Command {
	return Command{Kind: Heading, Level: level}
}

func NewInsertLink(url string) Command {
	return Command{Kind: InsertLink, URL: url}
}

// ParseCommand reads the text form used in scenario files: "bold", "heading:2", "link:https://example.com".
func ParseCommand(s string) (Command, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(s), ":")
	kind := CommandKind(strings.ToLower(name))

	var c Command
	switch kind {
	case Heading:
		if !hasArg {
			return Command{}, fmt.Errorf("heading needs a level, e.g. heading:2")
		}
		level, err := strconv.Atoi(arg)
		if err != nil {
			return Command{}, fmt.Errorf("invalid heading level %q: %w", arg, err)
		}
		c = NewHeading(level)
	case InsertLink:
		if !hasArg {
			return Command{}, fmt.Errorf("link needs a url, e.g. link:https://example.com")
		}
		c = NewInsertLink(arg)
	default:
		if hasArg {
			return Command{}, fmt.Errorf("command %s takes no argument", name)
		}
		c = NewCommand(kind)
	}
	return c, c.Validate()
}

func (c Command) Validate() error {
	switch c.Kind {
	case Heading:
		if c.Level < MinHeadingLevel || c.Level > MaxHeadingLevel {
			return fmt.Errorf("heading level must be between %d and %d, got %d", MinHeadingLevel, MaxHeadingLevel, c.Level)
		}
	case InsertLink:
		if c.URL == "" {
			return fmt.Errorf("link url is empty")
		}
	default:
		for _, k := range allCommandKinds {
			if k == c.Kind {
				return nil
			}
		}
		return fmt.Errorf("unknown command: %s", c.Kind)
	}
	return nil
}

func (c Command) String() string {
	switch c.Kind {
	case Heading:
		return fmt.Sprintf("%s:%d", c.Kind, c.Level)
	case InsertLink:
		return fmt.Sprintf("%s:%s", c.Kind, c.URL)
	default:
		return string(c.Kind)
	}
}

// Selector is the toolbar button that triggers the command in both demo editors.
func (c Command) Selector() string {
	id := string(c.Kind)
	if c.Kind == Heading {
		id = fmt.Sprintf("heading-%d", c.Level)
	}
	return fmt.Sprintf(`button.toolbar__item[data-command="%s"]`, id)
}

// Dispatch clicks the toolbar button of the command. Links are entered through a prompt dialog, so the answer is
// queued before clicking.
func Dispatch(ctx context.Context, a browser.Automation, c Command) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Kind == InsertLink {
		if err := a.AcceptNextPrompt(ctx, c.URL); err != nil {
			return fmt.Errorf("queueing link prompt answer failed: %w", err)
		}
	}
	if err := a.Click(ctx, c.Selector()); err != nil {
		return fmt.Errorf("dispatching %s failed: %w", c, err)
	}
	return nil
}
