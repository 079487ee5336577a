package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Octogonapus/EditorBenchmark/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestRunRejectsBadInputBeforeLaunchingBrowser(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"iterations", []string{"run", "--iterations", "0"}, "iterations must be positive"},
		{"metric", []string{"run", "--metrics", "Bogus"}, "unknown metric: Bogus"},
		{"system", []string{"run", "--systems", "Quill"}, "unknown editor: Quill"},
		{"duplicate system", []string{"run", "--systems", "lexical,Lexical"}, "editor Lexical is listed more than once"},
		{"renderer", []string{"run", "--renderer", "svg"}, "svg"},
		{"publish", []string{"run", "--publish", "ftp"}, "unknown publish target"},
		{"s3 bucket", []string{"run", "--publish", "s3"}, "s3-bucket is required"},
		{"scenario file", []string{"run", "--scenario-file", "missing.json"}, "reading scenario file failed"},
		{"log level", []string{"--log-level", "loud", "run"}, "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, append(tt.args, "--result-dir", t.TempDir())...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestFlagsCanComeFromTheEnvironment(t *testing.T) {
	t.Setenv("EDITORBENCH_CHECKPOINT", "0")
	err := execute(t, "run", "--result-dir", t.TempDir())
	assert.ErrorContains(t, err, "checkpoint interval must be positive")
}

func TestSystemsAcceptCommaSeparatedEnv(t *testing.T) {
	t.Setenv("EDITORBENCH_SYSTEMS", "prosemirror,Quill")
	err := execute(t, "run", "--result-dir", t.TempDir())
	assert.ErrorContains(t, err, "unknown editor: Quill")
}

func TestGraphsRejectDuplicateSystems(t *testing.T) {
	err := execute(t, "graphs", t.TempDir(), "--systems", "ProseMirror", "--systems", "prosemirror")
	assert.ErrorContains(t, err, "listed more than once")
}

func TestParseScenarioFile(t *testing.T) {
	scenarios, err := parseScenarioFile([]byte(`[
		{"Type": "stress", "Input": {"Name": "typing", "Word": "abc "}},
		{"Type": "paste", "Input": {"Repeat": 4}}
	]`))
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "typing", scenarios[0].GetName())
	assert.Equal(t, "abc ", scenarios[0].GetInput()["Word"])

	_, err = parseScenarioFile([]byte(`[{"Type": "drag", "Input": {}}]`))
	assert.Error(t, err)
	_, err = parseScenarioFile([]byte(`{`))
	assert.ErrorContains(t, err, "decoding scenario file failed")
}

const testTrace = `{"traceEvents": [
	{"cat": "__metadata", "name": "process_name", "ts": 0},
	{"cat": "v8.execute", "name": "V8.Execute", "ts": 1000000, "dur": 500, "tts": 10},
	{"cat": "devtools.timeline", "name": "Layout", "ts": 1500000},
	{"cat": "v8.execute", "name": "V8.Execute", "ts": 3300000, "dur": 250, "tts": 5}
]}`

func TestTraceWritesExtractedData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Lexical-trace.json")
	require.NoError(t, os.WriteFile(path, []byte(testTrace), 0o644))

	require.NoError(t, execute(t, "trace", path, "--renderer", "none"))

	buf, err := os.ReadFile(filepath.Join(dir, "Lexical-trace-extracted.json"))
	require.NoError(t, err)
	var data profile.ExtractedData
	require.NoError(t, json.Unmarshal(buf, &data))
	assert.Equal(t, []float64{500, 500, 750}, data.ScriptDurations)
	assert.Equal(t, []float64{1, 1, 1}, data.LayoutCounts)
}

func TestTraceRendersCharts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ProseMirror-trace.json")
	require.NoError(t, os.WriteFile(path, []byte(testTrace), 0o644))
	out := filepath.Join(dir, "out")

	require.NoError(t, execute(t, "trace", path, "--renderer", "gonum", "--out-dir", out))
	for _, m := range traceMetrics {
		assert.FileExists(t, filepath.Join(out, "ProseMirror-trace-"+m+".png"))
	}
}

func TestTraceRejectsBadBucket(t *testing.T) {
	assert.ErrorContains(t, execute(t, "trace", "x.json", "--bucket", "0s"), "bucket must be positive")
	assert.Error(t, execute(t, "trace", filepath.Join(t.TempDir(), "missing.json"), "--renderer", "none"))
}

func TestGraphsOnEmptyResultDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, execute(t, "graphs", dir, "--renderer", "gonum"))
	assert.FileExists(t, filepath.Join(dir, "graphs", "Time.png"))
	assert.FileExists(t, filepath.Join(dir, "graphs", "Lexical-Time.png"))

	assert.ErrorContains(t, execute(t, "graphs", dir, "--renderer", "none"), "a renderer is required")
}

func TestTraceLabel(t *testing.T) {
	assert.Equal(t, "Lexical-trace", traceLabel("/tmp/results/Lexical-trace.json"))
	assert.Equal(t, "trace", traceLabel("trace"))
}
