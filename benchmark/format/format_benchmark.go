// Package format selects the whole document and applies toolbar commands to it, one command per step.
package format

import (
	"context"
	"fmt"

	"github.com/Octogonapus/EditorBenchmark/benchmark"
	"github.com/Octogonapus/EditorBenchmark/browser"
	"github.com/Octogonapus/EditorBenchmark/editor"
	"github.com/Octogonapus/EditorBenchmark/util"
	"github.com/mitchellh/mapstructure"
)

var defaultCommands = []string{"bold", "italic", "heading:2", "paragraph", "quote", "paragraph"}

type FormatBenchmarkInput struct {
	Name      string
	SeedText  string   // typed once per seed line during setup
	SeedLines int      // each seed line becomes a paragraph
	Commands  []string // cycled through, see editor.ParseCommand for the syntax
}

type bmark struct {
	input    *FormatBenchmarkInput
	commands []editor.Command
}

func init() {
	benchmark.RegisterScenario("format", func(a map[string]any) (benchmark.Scenario, error) {
		input := &FormatBenchmarkInput{}
		err := mapstructure.Decode(a, input)
		if err != nil {
			return nil, fmt.Errorf("can't convert input to FormatBenchmarkInput: %w", err)
		}
		return NewFormatBenchmark(input)
	})
}

func NewFormatBenchmark(input *FormatBenchmarkInput) (benchmark.Scenario, error) {
	if input.Name == "" {
		input.Name = "format"
	}
	if input.SeedText == "" {
		input.SeedText = "formatting "
	}
	if input.SeedLines == 0 {
		input.SeedLines = 10
	}
	if len(input.Commands) == 0 {
		input.Commands = defaultCommands
	}

	commands := make([]editor.Command, 0, len(input.Commands))
	for _, s := range input.Commands {
		c, err := editor.ParseCommand(s)
		if err != nil {
			return nil, fmt.Errorf("invalid command %q: %w", s, err)
		}
		commands = append(commands, c)
	}
	return &bmark{input: input, commands: commands}, nil
}

func (b *bmark) SetUp(ctx context.Context, env *benchmark.Env) error {
	err := editor.FindEditor(ctx, env.Automation, env.BaseURL, env.System)
	if err != nil {
		return err
	}
	for range b.input.SeedLines {
		err = env.Automation.Type(ctx, b.input.SeedText)
		if err != nil {
			return fmt.Errorf("typing seed text failed: %w", err)
		}
		err = env.Automation.PressKey(ctx, browser.KeyEnter)
		if err != nil {
			return fmt.Errorf("pressing enter failed: %w", err)
		}
	}
	return nil
}

func (b *bmark) Step(ctx context.Context, env *benchmark.Env, i int) error {
	err := env.Automation.SelectAll(ctx)
	if err != nil {
		return fmt.Errorf("selecting document failed: %w", err)
	}
	return editor.Dispatch(ctx, env.Automation, b.commands[i%len(b.commands)])
}

func (b *bmark) GetName() string {
	return b.input.Name
}

func (b *bmark) GetInput() map[string]any {
	return util.StructMap(b.input)
}
