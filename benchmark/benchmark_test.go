package benchmark

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Octogonapus/EditorBenchmark/browser"
	"github.com/Octogonapus/EditorBenchmark/browser/browsertest"
	"github.com/Octogonapus/EditorBenchmark/editor"
	"github.com/Octogonapus/EditorBenchmark/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodeCounts(checkpoints []report.Checkpoint) []int {
	out := make([]int, len(checkpoints))
	for i, c := range checkpoints {
		out[i] = c.NodeCount
	}
	return out
}

func noop(ctx context.Context, i int) error {
	return nil
}

func TestCheckpointsAtIntervalAndFirstNode(t *testing.T) {
	rc := NewRunContext("Lexical", 50)
	res := RunBenchmark(context.Background(), rc, DriveOptions{MaxIterations: 200}, noop)

	assert.Equal(t, report.StopCompleted, res.StopReason)
	assert.Equal(t, 200, res.Iterations)
	assert.Equal(t, 200, rc.Progress())
	assert.Equal(t, []int{1, 50, 100, 150, 200}, nodeCounts(rc.Checkpoints()))
}

func TestFinalCheckpointIsRecordedOnce(t *testing.T) {
	rc := NewRunContext("Lexical", 50)
	RunBenchmark(context.Background(), rc, DriveOptions{MaxIterations: 120}, noop)
	assert.Equal(t, []int{1, 50, 100, 120}, nodeCounts(rc.Checkpoints()))
}

func TestCheckpointTimesDoNotDecrease(t *testing.T) {
	rc := NewRunContext("Lexical", 2)
	RunBenchmark(context.Background(), rc, DriveOptions{MaxIterations: 10}, func(ctx context.Context, i int) error {
		time.Sleep(time.Millisecond)
		return nil
	})
	checkpoints := rc.Checkpoints()
	for i := 1; i < len(checkpoints); i++ {
		assert.GreaterOrEqual(t, checkpoints[i].TimeMs, checkpoints[i-1].TimeMs)
	}
}

func TestStepErrorsAreCountedAndSkipped(t *testing.T) {
	rc := NewRunContext("ProseMirror", 5)
	res := RunBenchmark(context.Background(), rc, DriveOptions{MaxIterations: 10}, func(ctx context.Context, i int) error {
		if i%2 == 1 {
			return browser.ErrElementNotFound
		}
		return nil
	})

	assert.Equal(t, report.StopCompleted, res.StopReason)
	assert.Equal(t, 10, res.Iterations)
	assert.Equal(t, 5, res.StepErrors)
	assert.Equal(t, 5, rc.Progress())
	assert.Equal(t, []int{1, 5}, nodeCounts(rc.Checkpoints()))
}

func TestTimeoutStopsGracefully(t *testing.T) {
	rc := NewRunContext("Lexical", 1000)
	res := RunBenchmark(context.Background(), rc, DriveOptions{MaxIterations: 100000, Timeout: 50 * time.Millisecond}, func(ctx context.Context, i int) error {
		select {
		case <-time.After(2 * time.Millisecond):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	assert.Equal(t, report.StopTimeout, res.StopReason)
	assert.Zero(t, res.StepErrors)
	progress := rc.Progress()
	assert.Greater(t, progress, 0)
	assert.Less(t, progress, 100000)

	last, ok := rc.Recorder.Last()
	require.True(t, ok)
	assert.Equal(t, progress, last.NodeCount)
}

func TestCancellationStopsGracefully(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rc := NewRunContext("Lexical", 4)
	res := RunBenchmark(ctx, rc, DriveOptions{MaxIterations: 100}, func(ctx context.Context, i int) error {
		if i == 9 {
			cancel()
		}
		return nil
	})

	assert.Equal(t, report.StopCancelled, res.StopReason)
	assert.Equal(t, 10, rc.Progress())
	assert.Equal(t, []int{1, 4, 8, 10}, nodeCounts(rc.Checkpoints()))
}

func TestRecorderRejectsDecreasingNodeCount(t *testing.T) {
	r := NewRecorder(10)
	assert.True(t, r.RecordCheckpoint(10, 1))
	assert.False(t, r.RecordCheckpoint(5, 2))
	assert.True(t, r.RecordCheckpoint(10, 3))
	assert.Equal(t, []int{10, 10}, nodeCounts(r.Checkpoints()))

	assert.True(t, r.ShouldRecord(1))
	assert.True(t, r.ShouldRecord(20))
	assert.False(t, r.ShouldRecord(0))
	assert.False(t, r.ShouldRecord(15))
}

func TestLatencySummary(t *testing.T) {
	rc := NewRunContext("Lexical", 1)
	assert.Nil(t, rc.LatencySummary())

	rc.RecordLatency(2 * time.Millisecond)
	rc.RecordLatency(4 * time.Millisecond)
	sum := rc.LatencySummary()
	require.NotNil(t, sum)
	assert.EqualValues(t, 2, sum.Count)
	assert.InDelta(t, 2.0, sum.MinMs, 0.01)
	assert.InDelta(t, 4.0, sum.MaxMs, 0.01)
}

func TestDefinitionValidate(t *testing.T) {
	assert.NoError(t, DefaultDefinition().Validate())

	def := DefaultDefinition()
	def.Metrics = []string{"Bogus"}
	assert.Error(t, def.Validate())

	def = DefaultDefinition()
	def.CheckpointInterval = 0
	assert.Error(t, def.Validate())
}

type typingScenario struct {
	setUpErr error
}

func (s *typingScenario) SetUp(ctx context.Context, env *Env) error {
	if s.setUpErr != nil {
		return s.setUpErr
	}
	return editor.FindEditor(ctx, env.Automation, env.BaseURL, env.System)
}

func (s *typingScenario) Step(ctx context.Context, env *Env, i int) error {
	time.Sleep(time.Millisecond)
	return env.Automation.Type(ctx, "x")
}

func (s *typingScenario) GetName() string {
	return "typing"
}

func (s *typingScenario) GetInput() map[string]any {
	return map[string]any{"Word": "x"}
}

func testDefinition() Definition {
	return Definition{
		Iterations:         20,
		Interval:           2 * time.Millisecond,
		Metrics:            []string{report.LayoutCount, report.HeapUsedBytes},
		CheckpointInterval: 5,
	}
}

func TestRunnerWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	w, err := report.NewWriter(dir)
	require.NoError(t, err)
	fake := &browsertest.Fake{Metrics: []report.Metric{
		{Name: report.LayoutCount, Value: 3},
		{Name: report.HeapUsedBytes, Value: 2097152},
		{Name: report.Nodes, Value: 99},
	}}

	runner := NewBenchmarkRunner(&typingScenario{}, &RunnerConfig{Definition: testDefinition(), BaseURL: "http://localhost:3000", Writer: w})
	res := runner.Run(context.Background(), fake, editor.Lexical)

	assert.Empty(t, res.Error)
	assert.Equal(t, "Lexical", res.System)
	assert.Equal(t, 20, res.FinalNodeCount)
	assert.Equal(t, report.StopCompleted, res.StopReason)
	assert.Equal(t, []int{1, 5, 10, 15, 20}, nodeCounts(res.Checkpoints))
	require.NotNil(t, res.Latency)
	assert.EqualValues(t, 20, res.Latency.Count)
	require.Len(t, res.Summaries, 2)

	for _, s := range res.Samples {
		_, ok := s.Lookup(report.Nodes)
		assert.False(t, ok, "unselected counters must be dropped")
	}

	for _, name := range []string{
		report.NodeCountFileName("Lexical"),
		report.PerfMetricsFileName("Lexical"),
		report.MetricFileName("Lexical", report.LayoutCount),
		report.MetricFileName("Lexical", report.HeapUsedBytes),
	} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	checkpoints, err := report.ReadCheckpoints(dir, "Lexical")
	require.NoError(t, err)
	assert.Equal(t, res.Checkpoints, checkpoints)

	// the per-metric heap file is in MB
	buf, err := os.ReadFile(filepath.Join(dir, report.MetricFileName("Lexical", report.HeapUsedBytes)))
	require.NoError(t, err)
	var heap []report.Point
	require.NoError(t, json.Unmarshal(buf, &heap))
	require.NotEmpty(t, heap)
	for _, p := range heap {
		assert.Equal(t, 2.0, p.Value)
	}
}

func TestRunnerSetUpFailureStillWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	w, err := report.NewWriter(dir)
	require.NoError(t, err)

	runner := NewBenchmarkRunner(&typingScenario{setUpErr: errors.New("no editor")}, &RunnerConfig{Definition: testDefinition(), Writer: w})
	res := runner.Run(context.Background(), &browsertest.Fake{}, editor.ProseMirror)

	assert.Contains(t, res.Error, "no editor")
	assert.Zero(t, res.FinalNodeCount)
	buf, err := os.ReadFile(filepath.Join(dir, report.NodeCountFileName("ProseMirror")))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(buf))
}

func TestRunnerRejectsNonPositiveInterval(t *testing.T) {
	def := testDefinition()
	def.Interval = 0
	runner := NewBenchmarkRunner(&typingScenario{}, &RunnerConfig{Definition: def})
	res := runner.Run(context.Background(), &browsertest.Fake{}, editor.Lexical)

	assert.Contains(t, res.Error, "sampling interval must be positive")
	assert.Zero(t, res.FinalNodeCount)
}

func TestMeasurePageLoad(t *testing.T) {
	fake := &browsertest.Fake{Metrics: []report.Metric{{Name: report.ScriptDuration, Value: 0.5}}}
	out, err := MeasurePageLoad(context.Background(), fake, "http://localhost:3000", editor.Lexical, 3)
	require.NoError(t, err)
	assert.Equal(t, []report.Metric{{Name: report.ScriptDuration, Value: 0.5}}, out)
	assert.Len(t, fake.Calls(), 6)

	_, err = MeasurePageLoad(context.Background(), fake, "http://localhost:3000", editor.Lexical, 0)
	assert.Error(t, err)
}

func TestDeserializeUnknownScenario(t *testing.T) {
	_, err := DeserializeScenario(&SerializedScenario{Type: "nope"})
	assert.ErrorContains(t, err, "unknown scenario type")
}
