package chart

import (
	"fmt"
	"strconv"

	"github.com/Octogonapus/EditorBenchmark/report"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/snapshot-chromedp/render"
)

// echarts draws missing values from "-".
const echartsNull = "-"

type echartsRenderer struct{}

func init() {
	RegisterRenderer(ECharts, NewEChartsRenderer)
}

// NewEChartsRenderer draws charts with ECharts and snapshots them to PNG in a headless browser.
func NewEChartsRenderer() Renderer {
	return &echartsRenderer{}
}

func (r *echartsRenderer) RenderLineChart(ds report.ComparisonDataset, xLabel, yLabel, outFile string) error {
	line := buildLineChart(ds, xLabel, yLabel)
	err := render.MakeChartSnapshot(line.RenderContent(), outFile)
	if err != nil {
		return fmt.Errorf("saving chart %s failed: %w", outFile, err)
	}
	return nil
}

func buildLineChart(ds report.ComparisonDataset, xLabel, yLabel string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: ds.Metric}),
		charts.WithXAxisOpts(opts.XAxis{Name: xLabel}),
		charts.WithYAxisOpts(opts.YAxis{Name: yLabel}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "5%"}),
		// for png render
		charts.WithAnimation(false),
		charts.WithInitializationOpts(opts.Initialization{
			Width:           fmt.Sprintf("%dpx", DefaultWidth),
			Height:          fmt.Sprintf("%dpx", DefaultHeight),
			BackgroundColor: "#FFFFFF",
		}),
	)

	xaxis := make([]string, len(ds.Points))
	for i, p := range ds.Points {
		xaxis[i] = strconv.Itoa(p.NodeCount)
	}
	line.SetXAxis(xaxis)

	for _, l := range Lines(ds) {
		data := make([]opts.LineData, len(ds.Points))
		for i, v := range ds.Values(l.Series) {
			if v == nil {
				data[i] = opts.LineData{Value: echartsNull}
			} else {
				data[i] = opts.LineData{Value: *v}
			}
		}
		color := cssColor(l.Color)
		line.AddSeries(l.Label, data,
			charts.WithLineChartOpts(opts.LineChart{ConnectNulls: opts.Bool(true), ShowSymbol: opts.Bool(true)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: 1}),
		)
	}
	return line
}
