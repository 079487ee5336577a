// Package stress types a word and presses Enter in a loop, so every step adds one paragraph node.
package stress

import (
	"context"
	"fmt"

	"github.com/Octogonapus/EditorBenchmark/benchmark"
	"github.com/Octogonapus/EditorBenchmark/browser"
	"github.com/Octogonapus/EditorBenchmark/editor"
	"github.com/Octogonapus/EditorBenchmark/util"
	"github.com/mitchellh/mapstructure"
)

const defaultWord = "typing "

type StressBenchmarkInput struct {
	Name string
	Word string // typed before every Enter
}

type bmark struct {
	input *StressBenchmarkInput
}

func init() {
	benchmark.RegisterScenario("stress", func(a map[string]any) (benchmark.Scenario, error) {
		input := &StressBenchmarkInput{}
		err := mapstructure.Decode(a, input)
		if err != nil {
			return nil, fmt.Errorf("can't convert input to StressBenchmarkInput: %w", err)
		}
		return NewStressBenchmark(input), nil
	})
}

func NewStressBenchmark(input *StressBenchmarkInput) benchmark.Scenario {
	if input.Word == "" {
		input.Word = defaultWord
	}
	if input.Name == "" {
		input.Name = "stress"
	}
	return &bmark{input: input}
}

func (b *bmark) SetUp(ctx context.Context, env *benchmark.Env) error {
	return editor.FindEditor(ctx, env.Automation, env.BaseURL, env.System)
}

func (b *bmark) Step(ctx context.Context, env *benchmark.Env, i int) error {
	err := env.Automation.Type(ctx, b.input.Word)
	if err != nil {
		return fmt.Errorf("typing failed: %w", err)
	}
	err = env.Automation.PressKey(ctx, browser.KeyEnter)
	if err != nil {
		return fmt.Errorf("pressing enter failed: %w", err)
	}
	return nil
}

func (b *bmark) GetName() string {
	return b.input.Name
}

func (b *bmark) GetInput() map[string]any {
	return util.StructMap(b.input)
}
