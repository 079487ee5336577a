package chart

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/Octogonapus/EditorBenchmark/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var labels = [2]string{"Lexical", "ProseMirror"}

func ptr(v float64) *float64 {
	return &v
}

func dataset() report.ComparisonDataset {
	return report.ComparisonDataset{
		Metric: report.LayoutCount,
		Labels: labels,
		Points: []report.ComparisonPoint{
			{NodeCount: 0, ValueB: ptr(1)},
			{NodeCount: 100},
			{NodeCount: 150, ValueB: ptr(3)},
		},
	}
}

func TestLinesOmitAllNullSeries(t *testing.T) {
	lines := Lines(dataset())
	require.Len(t, lines, 1)
	assert.Equal(t, "ProseMirror", lines[0].Label)
	assert.Equal(t, 1, lines[0].Series)
	assert.Equal(t, prosemirrorRed, lines[0].Color)
	assert.Equal(t, []LinePoint{{NodeCount: 0, Value: 1}, {NodeCount: 150, Value: 3}}, lines[0].Points)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Lexical-LayoutCount.png", FileName(report.LayoutCount, "Lexical-LayoutCount"))
	assert.Equal(t, "LayoutCount.png", FileName(report.LayoutCount, ""))
	assert.Equal(t, "combined.png", FileName("", ""))
}

func TestEChartsSeriesOmitAllNull(t *testing.T) {
	line := buildLineChart(dataset(), NodeCountAxis, report.LayoutCount)
	require.Len(t, line.MultiSeries, 1)
	assert.Equal(t, "ProseMirror", line.MultiSeries[0].Name)
}

func TestGonumWritesPNG(t *testing.T) {
	r, err := NewRenderer(Gonum)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, r.RenderLineChart(dataset(), NodeCountAxis, report.LayoutCount, out))
	buf, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf, []byte("\x89PNG")))

	empty := filepath.Join(t.TempDir(), "empty.png")
	require.NoError(t, r.RenderLineChart(report.ComparisonDataset{Metric: "x", Labels: labels}, NodeCountAxis, "x", empty))
	assert.FileExists(t, empty)
}

func TestUnknownRenderer(t *testing.T) {
	_, err := NewRenderer("chartjs")
	assert.Error(t, err)
	assert.Equal(t, `"echarts", "gonum"`, ExplainRenderers())
}

type recordingRenderer struct {
	mu    sync.Mutex
	files []string
	sets  map[string]report.ComparisonDataset
}

func (r *recordingRenderer) RenderLineChart(ds report.ComparisonDataset, xLabel, yLabel, outFile string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, filepath.Base(outFile))
	if r.sets == nil {
		r.sets = map[string]report.ComparisonDataset{}
	}
	r.sets[filepath.Base(outFile)] = ds
	return nil
}

func TestGenerateGraphs(t *testing.T) {
	dir := t.TempDir()
	w, err := report.NewWriter(dir)
	require.NoError(t, err)
	require.NoError(t, w.WriteRun(&report.RunResult{
		System: "Lexical",
		Samples: []report.Sample{
			{NodeCount: 1, Metrics: []report.Metric{{Name: report.HeapUsedBytes, Value: 2097152}}},
		},
		Checkpoints: []report.Checkpoint{{NodeCount: 1, TimeMs: 10}, {NodeCount: 200, TimeMs: 2000}},
	}, nil))
	// ProseMirror has no artifacts at all.

	r := &recordingRenderer{}
	require.NoError(t, GenerateGraphs(GraphConfig{
		ResultDir:   dir,
		Systems:     labels,
		Metrics:     []string{report.HeapUsedBytes},
		Renderer:    r,
		Concurrency: 2,
	}))

	slices.Sort(r.files)
	assert.Equal(t, []string{
		"JSHeapUsedSize.png",
		"Lexical-JSHeapUsedSize.png",
		"Lexical-Time.png",
		"ProseMirror-JSHeapUsedSize.png",
		"ProseMirror-Time.png",
		"Time.png",
	}, r.files)
	assert.DirExists(t, filepath.Join(dir, GraphsDirName))

	heap := r.sets["JSHeapUsedSize.png"]
	assert.Equal(t, []int{1, 200}, heap.NodeCounts())
	assert.Equal(t, ptr(2), heap.Points[0].ValueA)
	assert.Empty(t, Lines(r.sets["ProseMirror-JSHeapUsedSize.png"]))
}
