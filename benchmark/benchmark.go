package benchmark

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Octogonapus/EditorBenchmark/browser"
	"github.com/Octogonapus/EditorBenchmark/editor"
)

// Env is what a scenario gets to work with during one run of one system.
type Env struct {
	Automation browser.Automation
	BaseURL    string
	System     editor.System
}

// Scenario is the user interaction repeated by the driver. The same scenario is run once per compared system.
type Scenario interface {
	// Open the editor and bring it into the state the steps expect. Not measured.
	SetUp(ctx context.Context, env *Env) error

	// Perform iteration i. One successful step advances the node count by one.
	Step(ctx context.Context, env *Env, i int) error

	// A human-friendly name the user can set for this scenario. Used in reports and result directory names.
	GetName() string

	// Any input given to this scenario by the user. Included in the run report. Not used for anything else.
	GetInput() map[string]any
}

type scenarioType string

type scenarioFactory func(map[string]any) (Scenario, error)

var scenarios map[scenarioType]scenarioFactory

// All scenarios must register themselves at module load time so that deserialization can create a scenario of that type.
func RegisterScenario(stype string, f scenarioFactory) {
	if scenarios == nil {
		scenarios = map[scenarioType]scenarioFactory{}
	}
	scenarios[scenarioType(stype)] = f
}

type SerializedScenario struct {
	Type  scenarioType
	Input map[string]any
}

type ScenarioFile []SerializedScenario

func DeserializeScenario(ss *SerializedScenario) (Scenario, error) {
	factory, ok := scenarios[ss.Type]
	if !ok {
		return nil, fmt.Errorf("unknown scenario type: %s", ss.Type)
	}
	return factory(ss.Input)
}

func ExplainScenarios() string {
	names := make([]string, 0, len(scenarios))
	for t := range scenarios {
		names = append(names, fmt.Sprintf("%q", t))
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}
