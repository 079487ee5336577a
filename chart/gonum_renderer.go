package chart

import (
	"fmt"
	"math"

	"github.com/Octogonapus/EditorBenchmark/report"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// PNG output is rendered at 96 dpi.
const pixelsPerInch = 96

type gonumRenderer struct {
	width, height vg.Length
}

func init() {
	RegisterRenderer(Gonum, NewGonumRenderer)
}

// NewGonumRenderer draws charts in pure Go.
func NewGonumRenderer() Renderer {
	return &gonumRenderer{
		width:  DefaultWidth * vg.Inch / pixelsPerInch,
		height: DefaultHeight * vg.Inch / pixelsPerInch,
	}
}

func (r *gonumRenderer) RenderLineChart(ds report.ComparisonDataset, xLabel, yLabel, outFile string) error {
	p := plot.New()
	p.Title.Text = ds.Metric
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.Top = true
	p.Legend.Left = true

	lines := Lines(ds)
	for _, l := range lines {
		xys := make(plotter.XYs, len(l.Points))
		for i, pt := range l.Points {
			xys[i].X = float64(pt.NodeCount)
			xys[i].Y = pt.Value
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return fmt.Errorf("building %s line failed: %w", l.Label, err)
		}
		line.Color = l.Color
		line.Width = vg.Points(1)
		points.Color = l.Color
		points.Shape = draw.CircleGlyph{}
		points.Radius = vg.Points(2)
		p.Add(line, points)
		p.Legend.Add(l.Label, line, points)
	}

	if len(lines) == 0 {
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
	} else {
		// Both axes start at zero.
		p.X.Min = math.Min(p.X.Min, 0)
		p.Y.Min = math.Min(p.Y.Min, 0)
	}
	p.Add(plotter.NewGrid())

	err := p.Save(r.width, r.height, outFile)
	if err != nil {
		return fmt.Errorf("saving chart %s failed: %w", outFile, err)
	}
	return nil
}
