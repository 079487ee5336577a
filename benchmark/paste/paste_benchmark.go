// Package paste inserts a block of text per step, the way a clipboard paste does, and can undo it again.
package paste

import (
	"context"
	"fmt"
	"strings"

	"github.com/Octogonapus/EditorBenchmark/benchmark"
	"github.com/Octogonapus/EditorBenchmark/editor"
	"github.com/Octogonapus/EditorBenchmark/util"
	"github.com/mitchellh/mapstructure"
)

const defaultText = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. "

type PasteBenchmarkInput struct {
	Name      string
	Text      string
	Repeat    int  // the pasted block is Text repeated this many times
	UndoAfter bool // undo every paste right away, so the document size stays flat
}

type bmark struct {
	input *PasteBenchmarkInput
	block string
}

func init() {
	benchmark.RegisterScenario("paste", func(a map[string]any) (benchmark.Scenario, error) {
		input := &PasteBenchmarkInput{}
		err := mapstructure.Decode(a, input)
		if err != nil {
			return nil, fmt.Errorf("can't convert input to PasteBenchmarkInput: %w", err)
		}
		return NewPasteBenchmark(input)
	})
}

func NewPasteBenchmark(input *PasteBenchmarkInput) (benchmark.Scenario, error) {
	if input.Text == "" {
		input.Text = defaultText
	}
	if input.Repeat == 0 {
		input.Repeat = 1
	}
	if input.Repeat < 0 {
		return nil, fmt.Errorf("repeat can't be negative, got %d", input.Repeat)
	}
	if input.Name == "" {
		input.Name = "paste"
	}
	return &bmark{input: input, block: strings.Repeat(input.Text, input.Repeat)}, nil
}

func (b *bmark) SetUp(ctx context.Context, env *benchmark.Env) error {
	return editor.FindEditor(ctx, env.Automation, env.BaseURL, env.System)
}

func (b *bmark) Step(ctx context.Context, env *benchmark.Env, i int) error {
	err := env.Automation.InsertText(ctx, b.block)
	if err != nil {
		return fmt.Errorf("pasting failed: %w", err)
	}
	if b.input.UndoAfter {
		return editor.Dispatch(ctx, env.Automation, editor.NewCommand(editor.Undo))
	}
	return nil
}

func (b *bmark) GetName() string {
	return b.input.Name
}

func (b *bmark) GetInput() map[string]any {
	return util.StructMap(b.input)
}
