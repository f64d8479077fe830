package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ni-sh-a-char/financer/internal/charts"
	"github.com/ni-sh-a-char/financer/internal/httputil"
	"github.com/ni-sh-a-char/financer/internal/live"
	"github.com/ni-sh-a-char/financer/internal/monitoring"
)

type realtimePage struct {
	Title      string
	Jobs       []string
	Job        string
	Iterations int
	StreamURL  string
	DensityURL string
	Header     []string
	Rows       [][]string
	Error      string
}

// handleRealtime handles the real-time dashboard page. The page opens an
// EventSource on /realtime/stream and updates the KPI tiles as snapshots
// arrive.
func (ws *WebServer) handleRealtime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	page := realtimePage{Title: "Real-Time Dashboard", Iterations: *ws.cfg.LiveIters}

	bank, err := ws.bank(r.Context())
	if err != nil {
		monitoring.Logf("realtime: fetch bank dataset: %v", err)
		page.Error = fmt.Sprintf("failed to fetch bank dataset: %v", err)
		renderPage(w, "realtime.html.tmpl", page)
		return
	}

	jobs, err := live.Jobs(bank)
	if err != nil {
		page.Error = err.Error()
		renderPage(w, "realtime.html.tmpl", page)
		return
	}
	page.Jobs = jobs

	page.Job = r.URL.Query().Get("job")
	if page.Job == "" {
		page.Job = live.JobAll
	}
	page.StreamURL = "/realtime/stream?job=" + page.Job
	page.DensityURL = "/realtime/chart?kind=density-heatmap&job=" + page.Job

	// the raw table shows only the selected job's rows
	raw := bank
	if page.Job != live.JobAll {
		if raw, err = bank.FilterEqual("job", page.Job); err != nil {
			page.Error = err.Error()
			renderPage(w, "realtime.html.tmpl", page)
			return
		}
	}
	page.Header, page.Rows = raw.Rows(20)

	renderPage(w, "realtime.html.tmpl", page)
}

// handleRealtimeChart renders one fresh simulation iteration as a chart: the
// density heatmap of marital status against binned age_new, or the age_new
// histogram. Iterations are independent so a standalone step matches the
// stream's behaviour.
func (ws *WebServer) handleRealtimeChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	bank, err := ws.bank(r.Context())
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	engine, err := live.NewEngine(bank, live.EngineConfig{
		Job:        r.URL.Query().Get("job"),
		Iterations: 1,
		Clock:      ws.clock,
	})
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	defer engine.Close()

	snap, err := engine.Step(1)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	var html []byte
	switch r.URL.Query().Get("kind") {
	case "histogram":
		data, err := charts.PrepareHistogram(snap.Table, "age_new", 20)
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		html, err = charts.RenderHistogram(data, fmt.Sprintf("age_new (factor %d)", snap.AgeFactor))
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
	default:
		data, err := charts.PrepareDensityHeatmap(snap.Table, "age_new", "marital", 15)
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		// marital on X, binned age on Y
		html, err = charts.RenderHeatmap(data.Transpose(), fmt.Sprintf("age_new by marital (factor %d)", snap.AgeFactor))
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
	}
	writeChartHTML(w, html)
}

// streamEvent is the SSE payload for one iteration.
type streamEvent struct {
	Iteration     int    `json:"iteration"`
	Job           string `json:"job"`
	AgeFactor     int    `json:"age_factor"`
	BalanceFactor int    `json:"balance_factor"`
	AvgAge        string `json:"avg_age"`
	MarriedCount  int64  `json:"married_count"`
	AvgBalance    string `json:"avg_balance"`

	// Histogram carries chart-ready bins for age_new so stream clients can
	// redraw per iteration without a second request. Omitted if binning fails.
	Histogram *charts.HistogramData `json:"histogram,omitempty"`
}

func snapshotEvent(snap live.Snapshot) streamEvent {
	ev := streamEvent{
		Iteration:     snap.Iteration,
		Job:           snap.Job,
		AgeFactor:     snap.AgeFactor,
		BalanceFactor: snap.BalanceFactor,
		AvgAge:        fmt.Sprintf("%.2f", snap.AvgAge),
		MarriedCount:  snap.MarriedCount,
		AvgBalance:    snap.AvgBalance.StringFixed(2),
	}
	if hist, err := charts.PrepareHistogram(snap.Table, "age_new", 10); err == nil {
		ev.Histogram = hist
	}
	return ev
}

// handleRealtimeStream issues Server-Side Events (SSE), one per simulation
// iteration. The stream ends after the configured iteration count or when the
// client disconnects.
func (ws *WebServer) handleRealtimeStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.InternalServerError(w, "streaming unsupported")
		return
	}

	bank, err := ws.bank(r.Context())
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	job := r.URL.Query().Get("job")
	iterations := *ws.cfg.LiveIters
	if v := r.URL.Query().Get("iterations"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			iterations = n
		}
	}

	engine, err := live.NewEngine(bank, live.EngineConfig{
		Job:        job,
		Iterations: iterations,
		Interval:   ws.cfg.LiveIntervalDuration(),
		Clock:      ws.clock,
		Recorder:   ws.kpiRecorder(),
	})
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	defer engine.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable buffering for nginx

	id, ch := engine.Subscribe()
	defer engine.Unsubscribe(id)

	runDone := make(chan error, 1)
	go func() { runDone <- engine.Run(r.Context()) }()

	// Send initial ping to establish connection
	w.Write([]byte(": ping\n\n"))
	flusher.Flush()

	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(snapshotEvent(snap))
			if err != nil {
				monitoring.Logf("realtime: marshal snapshot: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()

		case err := <-runDone:
			if err != nil {
				monitoring.Logf("realtime: loop ended: %v", err)
			}
			// flush any snapshot still buffered before signalling completion
			select {
			case snap, ok := <-ch:
				if ok {
					if payload, err := json.Marshal(snapshotEvent(snap)); err == nil {
						fmt.Fprintf(w, "data: %s\n\n", payload)
					}
				}
			default:
			}
			fmt.Fprint(w, "event: done\ndata: {}\n\n")
			flusher.Flush()
			return

		case <-r.Context().Done():
			return
		}
	}
}

// kpiRecorder returns the store as a recorder, or nil when running without
// persistence.
func (ws *WebServer) kpiRecorder() live.KPIRecorder {
	if ws.store == nil {
		return nil
	}
	return ws.store
}

// handleRealtimeHistory returns recently persisted KPI rows as JSON.
// Query params:
//
//	limit (optional, default 50, max 500)
func (ws *WebServer) handleRealtimeHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.store == nil {
		httputil.NotFound(w, "no store configured")
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}

	recs, err := ws.store.RecentKPIs(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"kpis": recs})
}
