package chart

import (
	"fmt"
	"image/color"
	"slices"
	"strings"

	"github.com/Octogonapus/EditorBenchmark/report"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 400
	NodeCountAxis = "nodeCount"
)

// Renderer draws a comparison dataset as a line chart image.
type Renderer interface {
	RenderLineChart(ds report.ComparisonDataset, xLabel, yLabel, outFile string) error
}

type RendererKind string

const (
	Gonum   RendererKind = "gonum"
	ECharts RendererKind = "echarts"
)

type RendererFactory func() Renderer

var allRenderers map[RendererKind]RendererFactory

func RegisterRenderer(kind RendererKind, factory RendererFactory) {
	if allRenderers == nil {
		allRenderers = map[RendererKind]RendererFactory{}
	}
	allRenderers[kind] = factory
}

func NewRenderer(kind RendererKind) (Renderer, error) {
	factory, ok := allRenderers[kind]
	if !ok {
		return nil, fmt.Errorf("unknown renderer kind: %s", kind)
	}
	return factory(), nil
}

func ExplainRenderers() string {
	kinds := make([]string, 0, len(allRenderers))
	for kind := range allRenderers {
		kinds = append(kinds, fmt.Sprintf("%q", kind))
	}
	slices.Sort(kinds)
	return strings.Join(kinds, ", ")
}

// FileName picks the image name of a chart: the override if given, else the metric, else "combined".
func FileName(metric, override string) string {
	name := override
	if name == "" {
		name = metric
	}
	if name == "" {
		name = "combined"
	}
	return name + ".png"
}

var (
	lexicalBlue    = color.RGBA{R: 65, G: 133, B: 244, A: 255}
	prosemirrorRed = color.RGBA{R: 234, G: 67, B: 53, A: 255}
)

// SeriesColor keeps each editor's colour stable across charts. Unknown labels get a colour by series index.
func SeriesColor(label string, i int) color.RGBA {
	switch label {
	case "Lexical":
		return lexicalBlue
	case "ProseMirror":
		return prosemirrorRed
	}
	if i == 0 {
		return lexicalBlue
	}
	return prosemirrorRed
}

func cssColor(c color.RGBA) string {
	return fmt.Sprintf("rgba(%d,%d,%d,1)", c.R, c.G, c.B)
}

type LinePoint struct {
	NodeCount int
	Value     float64
}

// Line is one drawable series. Missing readings are left out, so the line spans the gap.
type Line struct {
	Series int // index into the dataset labels
	Label  string
	Color  color.RGBA
	Points []LinePoint
}

// Lines returns the drawable series of a dataset. A series without a single reading is omitted entirely.
func Lines(ds report.ComparisonDataset) []Line {
	var out []Line
	for i, label := range ds.Labels {
		line := Line{Series: i, Label: label, Color: SeriesColor(label, i)}
		for _, p := range ds.Points {
			if v := p.Value(i); v != nil {
				line.Points = append(line.Points, LinePoint{NodeCount: p.NodeCount, Value: *v})
			}
		}
		if len(line.Points) > 0 {
			out = append(out, line)
		}
	}
	return out
}
