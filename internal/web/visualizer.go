package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/ni-sh-a-char/financer/internal/charts"
	"github.com/ni-sh-a-char/financer/internal/dataset"
	"github.com/ni-sh-a-char/financer/internal/httputil"
	"github.com/ni-sh-a-char/financer/internal/monitoring"
	"github.com/ni-sh-a-char/financer/internal/security"
	"github.com/ni-sh-a-char/financer/internal/store"
)

const sessionCookie = "financer_session"

// UploadPrompt is shown on the visualizer before a file has been uploaded.
const UploadPrompt = "Please upload a file to the application."

// visualizerKinds includes every chart kind; uploads can carry arbitrary
// columns so the full menu applies.
var visualizerKinds = []charts.Kind{
	charts.KindScatter,
	charts.KindLine,
	charts.KindHistogram,
	charts.KindBox,
	charts.KindHeatmap,
	charts.KindDensityHeatmap,
}

type visualizerPage struct {
	Title    string
	Prompt   string
	FileName string
	Kinds    []charts.Kind
	Kind     charts.Kind
	Columns  []string
	Numeric  []string
	Colors   []string
	X, Y     string
	Color    string
	Bins     int
	MinBins  int
	MaxBins  int
	ChartURL string
	Header   []string
	Rows     [][]string
	Error    string
}

// session returns the visualizer session id from the request cookie, minting
// and setting a new one when absent.
func (ws *WebServer) session(w http.ResponseWriter, r *http.Request) uuid.UUID {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id
		}
	}
	id := uuid.New()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// sessionTable loads the current session's upload as a table.
func (ws *WebServer) sessionTable(r *http.Request, id uuid.UUID) (string, *dataset.Table, error) {
	if ws.store == nil {
		return "", nil, store.ErrNotFound
	}
	up, err := ws.store.GetUpload(r.Context(), id)
	if err != nil {
		return "", nil, err
	}
	t, err := dataset.ReadUpload(up.Name, bytes.NewReader(up.Content))
	if err != nil {
		return up.Name, nil, err
	}
	return up.Name, t, nil
}

// handleVisualizer handles the data visualizer page. GET renders the current
// session's dataset with the selected chart; POST accepts a new upload.
func (ws *WebServer) handleVisualizer(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ws.renderVisualizer(w, r)
	case http.MethodPost:
		ws.handleUpload(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (ws *WebServer) renderVisualizer(w http.ResponseWriter, r *http.Request) {
	page := visualizerPage{
		Title:   "Data Visualizer",
		Kinds:   visualizerKinds,
		MinBins: charts.MinHistogramBins,
		MaxBins: charts.MaxHistogramBins,
	}

	id := ws.session(w, r)
	name, table, err := ws.sessionTable(r, id)
	if errors.Is(err, store.ErrNotFound) {
		page.Prompt = UploadPrompt
		renderPage(w, "visualizer.html.tmpl", page)
		return
	}
	if err != nil {
		page.FileName = name
		page.Error = fmt.Sprintf("failed to read uploaded file: %v", err)
		renderPage(w, "visualizer.html.tmpl", page)
		return
	}

	kind, x, y, color, bins := mpgSelection(r, table)
	page.FileName = name
	page.Kind = kind
	page.Columns = table.Columns()
	page.Numeric = table.NumericColumns()
	page.Colors = table.ColorOptions()
	page.X, page.Y, page.Color, page.Bins = x, y, color, bins
	page.Header, page.Rows = table.Rows(50)

	q := url.Values{
		"kind":  {string(kind)},
		"x":     {x},
		"y":     {y},
		"color": {color},
		"bins":  {strconv.Itoa(bins)},
	}
	page.ChartURL = "/visualizer/chart?" + q.Encode()

	renderPage(w, "visualizer.html.tmpl", page)
}

// handleUpload saves a multipart file upload under the session id and
// redirects back to the visualizer.
func (ws *WebServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		httputil.InternalServerError(w, "no store configured")
		return
	}

	id := ws.session(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, ws.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("upload too large or malformed: %v", err))
		return
	}

	file, header, err := r.FormFile("dataset")
	if err != nil {
		httputil.BadRequest(w, "missing 'dataset' file field")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to read upload: %v", err))
		return
	}

	name := security.SanitizeFilename(header.Filename)

	// reject files neither CSV nor Excel before persisting them
	if _, err := dataset.ReadUpload(name, bytes.NewReader(content)); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("unsupported file %q: %v", name, err))
		return
	}

	if err := ws.store.SaveUpload(r.Context(), id, name, content); err != nil {
		monitoring.Logf("visualizer: save upload: %v", err)
		httputil.InternalServerError(w, "failed to save upload")
		return
	}

	http.Redirect(w, r, "/visualizer", http.StatusSeeOther)
}

// handleVisualizerChart renders the selected chart over the session's upload.
func (ws *WebServer) handleVisualizerChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	id := ws.session(w, r)
	_, table, err := ws.sessionTable(r, id)
	if errors.Is(err, store.ErrNotFound) {
		httputil.NotFound(w, UploadPrompt)
		return
	}
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
