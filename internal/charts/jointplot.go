package charts

import (
	"bytes"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/ni-sh-a-char/financer/internal/dataset"
)

// RenderJointPNG draws a joint plot of two numeric columns: the central
// scatter with marginal histograms along each axis, encoded as PNG.
func RenderJointPNG(t *dataset.Table, x, y string) ([]byte, error) {
	xs, err := t.Float(x)
	if err != nil {
		return nil, err
	}
	ys, err := t.Float(y)
	if err != nil {
		return nil, err
	}

	pts := make(plotter.XYs, 0, len(xs))
	xClean := make(plotter.Values, 0, len(xs))
	yClean := make(plotter.Values, 0, len(ys))
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
		xClean = append(xClean, xs[i])
		yClean = append(yClean, ys[i])
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("charts: no joint values for %s/%s", x, y)
	}

	main := plot.New()
	main.Title.Text = fmt.Sprintf("%s vs %s", x, y)
	main.X.Label.Text = x
	main.Y.Label.Text = y
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("charts: joint scatter: %w", err)
	}
	scatter.Radius = vg.Points(2)
	main.Add(scatter)

	top := plot.New()
	top.X.Label.Text = x
	topHist, err := plotter.NewHist(xClean, 20)
	if err != nil {
		return nil, fmt.Errorf("charts: joint x histogram: %w", err)
	}
	top.Add(topHist)

	right := plot.New()
	right.X.Label.Text = y
	rightHist, err := plotter.NewHist(yClean, 20)
	if err != nil {
		return nil, fmt.Errorf("charts: joint y histogram: %w", err)
	}
	right.Add(rightHist)

	img := vgimg.New(9*vg.Inch, 9*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 2, Cols: 2, PadX: vg.Millimeter, PadY: vg.Millimeter}
	grid := [][]*plot.Plot{
		{top, nil},
		{main, right},
	}
	canvases := plot.Align(grid, tiles, dc)
	for r := range grid {
		for c := range grid[r] {
			if grid[r][c] != nil {
				grid[r][c].Draw(canvases[r][c])
			}
		}
	}

	var buf bytes.Buffer
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("charts: encode joint png: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderDistributionPNG draws a normalized histogram of one numeric column as
// PNG, the dashboard's distribution view.
func RenderDistributionPNG(t *dataset.Table, col string, bins int) ([]byte, error) {
	values, err := t.Float(col)
	if err != nil {
		return nil, err
	}
	clean := make(plotter.Values, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("charts: column %q has no numeric values", col)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Distribution of %s", col)
	p.X.Label.Text = col
	p.Y.Label.Text = "density"

	hist, err := plotter.NewHist(clean, ClampBins(bins))
	if err != nil {
		return nil, fmt.Errorf("charts: distribution histogram: %w", err)
	}
	hist.Normalize(1)
	p.Add(hist)

	wt, err := p.WriterTo(8*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("charts: encode distribution png: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("charts: write distribution png: %w", err)
	}
	return buf.Bytes(), nil
}
