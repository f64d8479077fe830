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

// stockFeatures are the plottable price fields of the 5-year stock dataset.
var stockFeatures = []string{"open", "high", "low", "close", "volume"}

type stocksPage struct {
	Title    string
	Tickers  []string
	Ticker   string
	Features []string
	Selected map[string]bool
	ShowRaw  bool
	ChartURL string
	Header   []string
	Rows     [][]string
	Error    string
}

func (ws *WebServer) stocksTable() (*dataset.Table, error) {
	path, err := ws.dataFile(*ws.cfg.StocksCSV)
	if err != nil {
		return nil, err
	}
	return ws.cache.LoadFile(path)
}

// stocksParams reads the ticker/feature selection from the query, defaulting
// to the first ticker with the close price.
func stocksParams(r *http.Request, tickers []string) (ticker string, selected []string) {
	ticker = r.URL.Query().Get("ticker")
	if ticker == "" && len(tickers) > 0 {
		ticker = tickers[0]
	}
	for _, f := range stockFeatures {
		if r.URL.Query().Get("f_"+f) != "" {
			selected = append(selected, f)
		}
	}
	if len(selected) == 0 {
		selected = []string{"close"}
	}
	return ticker, selected
}

// handleStocks handles the stock dashboard page.
func (ws *WebServer) handleStocks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	page := stocksPage{Title: "Stock Dashboard", Features: stockFeatures}
	table, err := ws.stocksTable()
	if err != nil {
		monitoring.Logf("stocks: load dataset: %v", err)
		page.Error = fmt.Sprintf("failed to load stock dataset: %v", err)
		renderPage(w, "stocks.html.tmpl", page)
		return
	}

	tickers, err := table.Unique("Name")
	if err != nil {
		page.Error = err.Error()
		renderPage(w, "stocks.html.tmpl", page)
		return
	}
	page.Tickers = tickers

	ticker, selected := stocksParams(r, tickers)
	page.Ticker = ticker
	page.Selected = make(map[string]bool, len(selected))
	for _, f := range selected {
		page.Selected[f] = true
	}
	page.ShowRaw = r.URL.Query().Get("raw") != ""

	q := url.Values{"ticker": {ticker}}
	for _, f := range selected {
		q.Set("f_"+f, "1")
	}
	page.ChartURL = "/stocks/chart?" + q.Encode()

	if page.ShowRaw {
		sub, err := table.FilterEqual("Name", ticker)
		if err == nil {
			page.Header, page.Rows = sub.Rows(100)
		}
	}

	renderPage(w, "stocks.html.tmpl", page)
}

// handleStocksChart renders the price timeline for one ticker as a standalone
// eCharts HTML document, embedded by the dashboard page in an iframe.
func (ws *WebServer) handleStocksChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	table, err := ws.stocksTable()
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	tickers, err := table.Unique("Name")
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	ticker, selected := stocksParams(r, tickers)

	sub, err := table.FilterEqual("Name", ticker)
	if err != nil || sub.NumRows() == 0 {
		httputil.NotFound(w, fmt.Sprintf("no rows for ticker %q", ticker))
		return
	}

	data, err := charts.PrepareTimeline(sub, "date", selected)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	html, err := charts.RenderTimeline(data, ticker+" over time")
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	writeChartHTML(w, html)
}

func writeChartHTML(w http.ResponseWriter, html []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(html)))
	w.Write(html)
}

func renderPage(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		monitoring.Logf("render %s: %v", name, err)
	}
}
