package format

import (
	"context"
	"testing"

	"github.com/Octogonapus/EditorBenchmark/benchmark"
	"github.com/Octogonapus/EditorBenchmark/browser/browsertest"
	"github.com/Octogonapus/EditorBenchmark/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepsCycleThroughCommands(t *testing.T) {
	s, err := benchmark.DeserializeScenario(&benchmark.SerializedScenario{Type: "format", Input: map[string]any{
		"SeedLines": 1,
		"Commands":  []any{"bold", "heading:3"},
	}})
	require.NoError(t, err)

	fake := &browsertest.Fake{}
	env := &benchmark.Env{Automation: fake, BaseURL: "http://localhost:3000", System: editor.Lexical}
	require.NoError(t, s.SetUp(context.Background(), env))
	fake.Reset()

	for i := range 3 {
		require.NoError(t, s.Step(context.Background(), env, i))
	}
	assert.Equal(t, []string{
		"select-all",
		`click button.toolbar__item[data-command="bold"]`,
		"select-all",
		`click button.toolbar__item[data-command="heading-3"]`,
		"select-all",
		`click button.toolbar__item[data-command="bold"]`,
	}, fake.Calls())
}

func TestInvalidCommand(t *testing.T) {
	_, err := NewFormatBenchmark(&FormatBenchmarkInput{Commands: []string{"heading:9"}})
	assert.Error(t, err)
}
