package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ni-sh-a-char/financer/internal/charts"
	"github.com/ni-sh-a-char/financer/internal/dataset"
	"github.com/ni-sh-a-char/financer/internal/httputil"
	"github.com/ni-sh-a-char/financer/internal/monitoring"
)

// mpgKinds are the chart kinds offered on the auto-MPG page. The PNG kinds
// are rendered server-side with gonum/plot; the rest are eCharts HTML.
var mpgKinds = []charts.Kind{
	charts.KindScatter,
	charts.KindHistogram,
	charts.KindBox,
	charts.KindHeatmap,
	charts.KindJoint,
	charts.KindDistribution,
}

type mpgPage struct {
	Title    string
	Kinds    []charts.Kind
	Kind     charts.Kind
	Numeric  []string
	Colors   []string
	X, Y     string
	Color    string
	Bins     int
	MinBins  int
	MaxBins  int
	ChartURL string
	IsPNG    bool
	Error    string
}

func (ws *WebServer) mpgTable() (*dataset.Table, error) {
	path, err := ws.dataFile(*ws.cfg.MPGCSV)
	if err != nil {
		return nil, err
	}
	return ws.cache.LoadFile(path)
}

// mpgSelection reads the widget state from the query, with defaults matching
// the dataset's most interesting pairing.
func mpgSelection(r *http.Request, t *dataset.Table) (kind charts.Kind, x, y, color string, bins int) {
	kind = charts.KindScatter
	if k, err := charts.ParseKind(r.URL.Query().Get("kind")); err == nil {
		kind = k
	}

	numeric := t.NumericColumns()
	x = r.URL.Query().Get("x")
	if !t.HasColumn(x) && len(numeric) > 0 {
		x = numeric[0]
	}
	y = r.URL.Query().Get("y")
	if !t.HasColumn(y) && len(numeric) > 1 {
		y = numeric[1]
	}
	color = r.URL.Query().Get("color")
	if color == "" || (color != dataset.NoneColumn && !t.HasColumn(color)) {
		color = dataset.NoneColumn
	}

	bins = 20
	if b, err := strconv.Atoi(r.URL.Query().Get("bins")); err == nil {
		bins = charts.ClampBins(b)
	}
	return kind, x, y, color, bins
}

// handleMPG handles the auto-MPG visualisation page.
func (ws *WebServer) handleMPG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	page := mpgPage{
		Title:   "Auto MPG Visualizer",
		Kinds:   mpgKinds,
		MinBins: charts.MinHistogramBins,
		MaxBins: charts.MaxHistogramBins,
	}
	table, err := ws.mpgTable()
	if err != nil {
		monitoring.Logf("mpg: load dataset: %v", err)
		page.Error = fmt.Sprintf("failed to load auto-mpg dataset: %v", err)
		renderPage(w, "mpg.html.tmpl", page)
		return
	}

	kind, x, y, color, bins := mpgSelection(r, table)
	page.Kind = kind
	page.Numeric = table.NumericColumns()
	page.Colors = table.ColorOptions()
	page.X, page.Y, page.Color, page.Bins = x, y, color, bins
	page.IsPNG = kind == charts.KindJoint || kind == charts.KindDistribution

	q := url.Values{
		"kind":  {string(kind)},
		"x":     {x},
		"y":     {y},
		"color": {color},
		"bins":  {strconv.Itoa(bins)},
	}
	if page.IsPNG {
		page.ChartURL = "/mpg/plot.png?" + q.Encode()
	} else {
		page.ChartURL = "/mpg/chart?" + q.Encode()
	}

	renderPage(w, "mpg.html.tmpl", page)
}

// handleMPGChart renders the eCharts kinds as standalone HTML.
func (ws *WebServer) handleMPGChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	table, err := ws.mpgTable()
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	kind, x, y, color, bins := mpgSelection(r, table)

	html, err := renderTableChart(table, kind, x, y, color, bins)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	writeChartHTML(w, html)
}

// renderTableChart maps a widget selection onto the chart layer. Shared by
// the auto-MPG page and the upload visualizer.
func renderTableChart(table *dataset.Table, kind charts.Kind, x, y, color string, bins int) ([]byte, error) {
	switch kind {
	case charts.KindScatter, charts.KindLine:
		data, err := charts.PrepareXY(table, x, y, color)
		if err != nil {
			return nil, err
		}
		return charts.RenderXY(kind, data, fmt.Sprintf("%s vs %s", x, y))

	case charts.KindHistogram:
		data, err := charts.PrepareHistogram(table, x, bins)
		if err != nil {
			return nil, err
		}
		return charts.RenderHistogram(data, "Histogram of "+x)

	case charts.KindBox:
		groupBy := color
		data, err := charts.PrepareBox(table, x, groupBy)
		if err != nil {
			return nil, err
		}
		return charts.RenderBox(data, "Box plot of "+x)

	case charts.KindHeatmap:
		data, err := charts.PrepareCorrelationHeatmap(table)
		if err != nil {
			return nil, err
		}
		return charts.RenderHeatmap(data, "Correlation heatmap")

	case charts.KindDensityHeatmap:
		data, err := charts.PrepareDensityHeatmap(table, x, color, bins)
		if err != nil {
			return nil, err
		}
		return charts.RenderHeatmap(data, fmt.Sprintf("Density of %s by %s", x, color))
	}
	return nil, fmt.Errorf("chart kind %q is not an HTML chart", kind)
}

// handleMPGPlot renders the gonum/plot kinds (joint, distribution) as PNG.
func (ws *WebServer) handleMPGPlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	table, err := ws.mpgTable()
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	kind, x, y, _, bins := mpgSelection(r, table)

	var png []byte
	switch kind {
	case charts.KindJoint:
		png, err = charts.RenderJointPNG(table, x, y)
	case charts.KindDistribution:
		png, err = charts.RenderDistributionPNG(table, x, bins)
	default:
		httputil.BadRequest(w, fmt.Sprintf("chart kind %q is not a PNG chart", kind))
		return
	}
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Write(png)
}
