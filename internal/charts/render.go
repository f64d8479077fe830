package charts

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// echartsAssetsPrefix is where rendered pages load the echarts runtime from.
const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// viridis is the color ramp used for value-mapped charts.
var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

func initOpts(title string) opts.Initialization {
	return opts.Initialization{
		PageTitle:  title,
		Width:      "900px",
		Height:     "600px",
		AssetsHost: echartsAssetsPrefix,
	}
}

// RenderXY renders prepared XY data as a scatter or line chart to
// self-contained HTML.
func RenderXY(kind Kind, data *XYData, title string) ([]byte, error) {
	switch kind {
	case KindScatter:
		return renderScatter(data, title)
	case KindLine:
		return renderLineXY(data, title)
	default:
		return nil, fmt.Errorf("charts: kind %q is not an XY chart", kind)
	}
}

func renderScatter(data *XYData, title string) ([]byte, error) {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(title)),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%s vs %s", data.XName, data.YName)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(len(data.Series) > 1)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: data.XName, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: data.YName, NameLocation: "middle", NameGap: 30}),
	)
	for _, s := range data.Series {
		points := make([]opts.ScatterData, 0, len(s.Points))
		for _, p := range s.Points {
			points = append(points, opts.ScatterData{Value: []interface{}{p.X, p.Y}})
		}
		scatter.AddSeries(s.Name, points, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	}
	return renderToHTML(scatter)
}

func renderLineXY(data *XYData, title string) ([]byte, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(title)),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%s vs %s", data.XName, data.YName)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(len(data.Series) > 1)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: data.XName, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: data.YName, NameLocation: "middle", NameGap: 30}),
	)
	for _, s := range data.Series {
		points := make([]opts.LineData, 0, len(s.Points))
		for _, p := range s.Points {
			points = append(points, opts.LineData{Value: []interface{}{p.X, p.Y}})
		}
		line.AddSeries(s.Name, points)
	}
	return renderToHTML(line)
}

// RenderHistogram renders prepared histogram bins as a bar chart.
func RenderHistogram(data *HistogramData, title string) ([]byte, error) {
	bars := make([]opts.BarData, 0, len(data.Counts))
	for _, c := range data.Counts {
		bars = append(bars, opts.BarData{Value: c})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(title)),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%s, %d bins", data.Column, data.Bins)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: data.Column, NameLocation: "middle", NameGap: 25}),
	)
	bar.SetXAxis(data.Labels).AddSeries("count", bars)
	return renderToHTML(bar)
}

// RenderBox renders per-category five-number summaries as a box plot.
func RenderBox(data *BoxData, title string) ([]byte, error) {
	names := make([]string, 0, len(data.Boxes))
	items := make([]opts.BoxPlotData, 0, len(data.Boxes))
	for _, b := range data.Boxes {
		names = append(names, b.Name)
		items = append(items, opts.BoxPlotData{Value: []float64{b.Min, b.Q1, b.Med, b.Q3, b.Max}})
	}

	box := charts.NewBoxPlot()
	box.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(title)),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: data.Column}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	box.SetXAxis(names).AddSeries(data.Column, items)
	return renderToHTML(box)
}

// RenderHeatmap renders a labelled value grid with a viridis visual map.
func RenderHeatmap(data *HeatmapData, title string) ([]byte, error) {
	cells := make([]opts.HeatMapData, 0, len(data.Values)*len(data.XLabels))
	for y, row := range data.Values {
		for x, v := range row {
			cells = append(cells, opts.HeatMapData{Value: [3]interface{}{x, y, v}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(title)),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: data.XLabels}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: data.YLabels}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(data.Min),
			Max:        float32(data.Max),
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	hm.AddSeries("density", cells)
	return renderToHTML(hm)
}

// RenderTimeline renders multi-feature line data over a category index.
func RenderTimeline(data *TimelineData, title string) ([]byte, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(title)),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(data.Index)
	for i, feature := range data.Features {
		points := make([]opts.LineData, 0, len(data.Values[i]))
		for _, v := range data.Values[i] {
			points = append(points, opts.LineData{Value: v})
		}
		line.AddSeries(feature, points)
	}
	return renderToHTML(line)
}

type renderer interface {
	Render(w io.Writer) error
}

func renderToHTML(chart renderer) ([]byte, error) {
	var buf bytes.Buffer
	if err := chart.Render(&buf); err != nil {
		return nil, fmt.Errorf("charts: render: %w", err)
	}
	return buf.Bytes(), nil
}
