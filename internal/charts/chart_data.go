// Package charts turns tables plus widget selections into renderable charts.
// This file is the pure data-preparation half: it computes chart-ready values
// without touching eCharts, so every transformation is testable without a UI.
package charts

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ni-sh-a-char/financer/internal/dataset"
)

// Kind identifies a chart type. Each kind maps 1:1 to a plotting primitive.
type Kind string

const (
	KindScatter        Kind = "scatter"
	KindLine           Kind = "line"
	KindHistogram      Kind = "histogram"
	KindBox            Kind = "box"
	KindHeatmap        Kind = "heatmap"
	KindDensityHeatmap Kind = "density-heatmap"
	KindDistribution   Kind = "distribution"
	KindJoint          Kind = "joint"
)

// ParseKind maps a widget value onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindScatter, KindLine, KindHistogram, KindBox, KindHeatmap,
		KindDensityHeatmap, KindDistribution, KindJoint:
		return Kind(s), nil
	}
	return "", fmt.Errorf("charts: unknown chart kind %q", s)
}

// HistogramBinBounds are the slider limits for histogram bin counts.
const (
	MinHistogramBins = 5
	MaxHistogramBins = 100
)

// ClampBins forces a requested bin count into the permitted range.
func ClampBins(bins int) int {
	if bins < MinHistogramBins {
		return MinHistogramBins
	}
	if bins > MaxHistogramBins {
		return MaxHistogramBins
	}
	return bins
}

// XYPoint is a single point in a scatter or line chart.
type XYPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// XYSeries is a named group of points (one per color-column value).
type XYSeries struct {
	Name   string    `json:"name"`
	Points []XYPoint `json:"points"`
}

// XYData holds prepared data for scatter and line charts.
type XYData struct {
	Series []XYSeries `json:"series"`
	XName  string     `json:"x_name"`
	YName  string     `json:"y_name"`
}

// PrepareXY builds scatter/line data from two numeric columns, optionally
// grouped by a text column. color == dataset.NoneColumn (or empty) yields a
// single unnamed series. X and Y may be the same column; no cross-field
// validation is applied.
func PrepareXY(t *dataset.Table, x, y, color string) (*XYData, error) {
	xs, err := t.Float(x)
	if err != nil {
		return nil, err
	}
	ys, err := t.Float(y)
	if err != nil {
		return nil, err
	}

	data := &XYData{XName: x, YName: y}

	if color == "" || color == dataset.NoneColumn {
		points := make([]XYPoint, 0, len(xs))
		for i := range xs {
			if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
				continue
			}
			points = append(points, XYPoint{X: xs[i], Y: ys[i]})
		}
		data.Series = []XYSeries{{Name: y, Points: points}}
		return data, nil
	}

	groups, err := t.Strings(color)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		g := groups[i]
		pos, ok := index[g]
		if !ok {
			pos = len(data.Series)
			index[g] = pos
			data.Series = append(data.Series, XYSeries{Name: g})
		}
		data.Series[pos].Points = append(data.Series[pos].Points, XYPoint{X: xs[i], Y: ys[i]})
	}
	return data, nil
}

// HistogramData holds prepared histogram bins.
type HistogramData struct {
	Column string    `json:"column"`
	Labels []string  `json:"labels"`
	Counts []float64 `json:"counts"`
	Bins   int       `json:"bins"`
	Mean   float64   `json:"mean"`
}

// PrepareHistogram bins a numeric column into the requested number of bins,
// clamped to the slider range.
func PrepareHistogram(t *dataset.Table, col string, bins int) (*HistogramData, error) {
	values, err := t.Float(col)
	if err != nil {
		return nil, err
	}
	clean := dropNaN(values)
	if len(clean) == 0 {
		return nil, fmt.Errorf("charts: column %q has no numeric values", col)
	}
	bins = ClampBins(bins)

	sort.Float64s(clean)
	min, max := clean[0], clean[len(clean)-1]
	if min == max {
		// degenerate single-value column: one bin holds everything
		return &HistogramData{
			Column: col,
			Labels: []string{fmt.Sprintf("%.4g", min)},
			Counts: []float64{float64(len(clean))},
			Bins:   1,
			Mean:   min,
		}, nil
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, min, max)
	// stat.Histogram drops values equal to the final divider unless it is
	// strictly greater than the data max.
	dividers[len(dividers)-1] = math.Nextafter(max, math.Inf(1))
	counts := stat.Histogram(nil, dividers, clean, nil)

	labels := make([]string, bins)
	for i := 0; i < bins; i++ {
		labels[i] = fmt.Sprintf("%.4g", dividers[i])
	}

	return &HistogramData{
		Column: col,
		Labels: labels,
		Counts: counts,
		Bins:   bins,
		Mean:   stat.Mean(clean, nil),
	}, nil
}

// BoxStats is a five-number summary for one category.
type BoxStats struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Q1   float64 `json:"q1"`
	Med  float64 `json:"median"`
	Q3   float64 `json:"q3"`
	Max  float64 `json:"max"`
}

// BoxData holds prepared box-plot summaries, one per category.
type BoxData struct {
	Column  string     `json:"column"`
	GroupBy string     `json:"group_by"`
	Boxes   []BoxStats `json:"boxes"`
}

// PrepareBox computes five-number summaries of a numeric column, grouped by a
// text column (or a single box when groupBy is the none sentinel).
func PrepareBox(t *dataset.Table, col, groupBy string) (*BoxData, error) {
	values, err := t.Float(col)
	if err != nil {
		return nil, err
	}

	groups := map[string][]float64{}
	var order []string
	if groupBy == "" || groupBy == dataset.NoneColumn {
		groups[col] = dropNaN(values)
		order = []string{col}
	} else {
		cats, err := t.Strings(groupBy)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			if math.IsNaN(v) {
				continue
			}
			g := cats[i]
			if _, ok := groups[g]; !ok {
				order = append(order, g)
			}
			groups[g] = append(groups[g], v)
		}
	}

	data := &BoxData{Column: col, GroupBy: groupBy}
	for _, name := range order {
		vals := groups[name]
		if len(vals) == 0 {
			continue
		}
		sort.Float64s(vals)
		data.Boxes = append(data.Boxes, BoxStats{
			Name: name,
			Min:  vals[0],
			Q1:   stat.Quantile(0.25, stat.Empirical, vals, nil),
			Med:  stat.Quantile(0.5, stat.Empirical, vals, nil),
			Q3:   stat.Quantile(0.75, stat.Empirical, vals, nil),
			Max:  vals[len(vals)-1],
		})
	}
	if len(data.Boxes) == 0 {
		return nil, fmt.Errorf("charts: column %q has no numeric values", col)
	}
	return data, nil
}

// HeatmapData holds a labelled value grid.
type HeatmapData struct {
	XLabels []string    `json:"x_labels"`
	YLabels []string    `json:"y_labels"`
	Values  [][]float64 `json:"values"` // indexed [y][x]
	Min     float64     `json:"min"`
	Max     float64     `json:"max"`
}

// Transpose flips the grid so the category axis can be drawn on X. The live
// dashboard plots marital status against binned age this way.
func (h *HeatmapData) Transpose() *HeatmapData {
	out := &HeatmapData{XLabels: h.YLabels, YLabels: h.XLabels, Min: h.Min, Max: h.Max}
	out.Values = make([][]float64, len(h.XLabels))
	for y := range out.Values {
		out.Values[y] = make([]float64, len(h.YLabels))
		for x := range out.Values[y] {
			out.Values[y][x] = h.Values[x][y]
		}
	}
	return out
}

// PrepareCorrelationHeatmap computes the pairwise Pearson correlation matrix
// over the table's numeric columns.
func PrepareCorrelationHeatmap(t *dataset.Table) (*HeatmapData, error) {
	cols := t.NumericColumns()
	if len(cols) < 2 {
		return nil, fmt.Errorf("charts: need at least two numeric columns, have %d", len(cols))
	}

	series := make([][]float64, len(cols))
	for i, c := range cols {
		v, err := t.Float(c)
		if err != nil {
			return nil, err
		}
		series[i] = v
	}

	data := &HeatmapData{XLabels: cols, YLabels: cols, Min: 1, Max: -1}
	data.Values = make([][]float64, len(cols))
	for yi := range cols {
		data.Values[yi] = make([]float64, len(cols))
		for xi := range cols {
			r := pairwiseCorrelation(series[xi], series[yi])
			data.Values[yi][xi] = r
			if r < data.Min {
				data.Min = r
			}
			if r > data.Max {
				data.Max = r
			}
		}
	}
	return data, nil
}

// pairwiseCorrelation drops row pairs containing NaN before correlating.
func pairwiseCorrelation(a, b []float64) float64 {
	xs := make([]float64, 0, len(a))
	ys := make([]float64, 0, len(b))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		xs = append(xs, a[i])
		ys = append(ys, b[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// PrepareDensityHeatmap bins a numeric column on X against a text column on Y
// and counts occurrences per cell. The live dashboard renders age_new against
// marital status this way.
func PrepareDensityHeatmap(t *dataset.Table, x, yCategory string, xBins int) (*HeatmapData, error) {
	values, err := t.Float(x)
	if err != nil {
		return nil, err
	}
	cats, err := t.Strings(yCategory)
	if err != nil {
		return nil, err
	}

	clean := dropNaN(values)
	if len(clean) == 0 {
		return nil, fmt.Errorf("charts: column %q has no numeric values", x)
	}
	if xBins < 2 {
		xBins = 10
	}
	min := floats.Min(clean)
	max := floats.Max(clean)
	if min == max {
		max = min + 1
	}
	width := (max - min) / float64(xBins)

	var yLabels []string
	rowIdx := make(map[string]int)
	for _, c := range cats {
		if _, ok := rowIdx[c]; !ok {
			rowIdx[c] = len(yLabels)
			yLabels = append(yLabels, c)
		}
	}

	grid := make([][]float64, len(yLabels))
	for i := range grid {
		grid[i] = make([]float64, xBins)
	}
	maxCount := 0.0
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		bin := int((v - min) / width)
		if bin >= xBins {
			bin = xBins - 1
		}
		if bin < 0 {
			bin = 0
		}
		row := grid[rowIdx[cats[i]]]
		row[bin]++
		if row[bin] > maxCount {
			maxCount = row[bin]
		}
	}

	xLabels := make([]string, xBins)
	for i := 0; i < xBins; i++ {
		xLabels[i] = fmt.Sprintf("%.4g", min+float64(i)*width)
	}

	return &HeatmapData{XLabels: xLabels, YLabels: yLabels, Values: grid, Min: 0, Max: maxCount}, nil
}

// TimelineData holds multi-feature line data over a shared index.
type TimelineData struct {
	Index    []string    `json:"index"`
	Features []string    `json:"features"`
	Values   [][]float64 `json:"values"` // indexed [feature][row]
	Title    string      `json:"title"`
}

// PrepareTimeline extracts one line per feature over the index column. The
// stock dashboard uses this with the date index and the chosen price fields.
func PrepareTimeline(t *dataset.Table, indexCol string, features []string) (*TimelineData, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("charts: no features selected")
	}
	index, err := t.Strings(indexCol)
	if err != nil {
		return nil, err
	}

	data := &TimelineData{Index: index, Features: features}
	for _, f := range features {
		v, err := t.Float(f)
		if err != nil {
			return nil, err
		}
		data.Values = append(data.Values, v)
	}
	return data, nil
}

func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
