// Package web serves the dashboard HTTP interface: the stock, real-time,
// auto-MPG and upload-visualizer pages plus their chart and API endpoints.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/ni-sh-a-char/financer/internal/config"
	"github.com/ni-sh-a-char/financer/internal/dataset"
	"github.com/ni-sh-a-char/financer/internal/httputil"
	"github.com/ni-sh-a-char/financer/internal/monitoring"
	"github.com/ni-sh-a-char/financer/internal/security"
	"github.com/ni-sh-a-char/financer/internal/store"
	"github.com/ni-sh-a-char/financer/internal/timeutil"
)

//go:embed templates/*
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html.tmpl"))

// WebServer handles the HTTP interface for the financial dashboards.
type WebServer struct {
	address string
	cfg     *config.Config
	store   *store.Store
	cache   *dataset.Cache
	client  httputil.HTTPClient
	clock   timeutil.Clock
	server  *http.Server

	bankMu    sync.Mutex
	bankTable *dataset.Table
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Config *config.Config
	Store  *store.Store
	Client httputil.HTTPClient
	Clock  timeutil.Clock
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(c WebServerConfig) *WebServer {
	cfg := c.Config
	if cfg == nil {
		cfg = config.Default()
	}
	client := c.Client
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	clock := c.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	ws := &WebServer{
		address: *cfg.Listen,
		cfg:     cfg,
		store:   c.Store,
		cache:   dataset.NewCache(),
		client:  client,
		clock:   clock,
	}
	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}
	return ws
}

// Start begins the HTTP server in a goroutine and handles graceful shutdown.
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		monitoring.Logf("starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			monitoring.Logf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}

	monitoring.Logf("HTTP server routine stopped")
	return nil
}

// Handler exposes the route table, mainly for tests.
func (ws *WebServer) Handler() http.Handler {
	return ws.server.Handler
}

// setupRoutes configures the HTTP routes and handlers.
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/", ws.handleMenu)

	mux.HandleFunc("/stocks", ws.handleStocks)
	mux.HandleFunc("/stocks/chart", ws.handleStocksChart)

	mux.HandleFunc("/realtime", ws.handleRealtime)
	mux.HandleFunc("/realtime/stream", ws.handleRealtimeStream)
	mux.HandleFunc("/realtime/chart", ws.handleRealtimeChart)
	mux.HandleFunc("/api/realtime/history", ws.handleRealtimeHistory)

	mux.HandleFunc("/mpg", ws.handleMPG)
	mux.HandleFunc("/mpg/chart", ws.handleMPGChart)
	mux.HandleFunc("/mpg/plot.png", ws.handleMPGPlot)

	mux.HandleFunc("/visualizer", ws.handleVisualizer)
	mux.HandleFunc("/visualizer/chart", ws.handleVisualizerChart)

	if ws.store != nil {
		mux.Handle("/debug/backup", ws.store.BackupHandler())
	}

	return mux
}

// handleHealth handles the health check endpoint.
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "financer", "timestamp": "%s"}`, ws.clock.Now().UTC().Format(time.RFC3339))
}

type menuPage struct {
	Title string
}

// handleMenu handles the dashboard index page.
func (ws *WebServer) handleMenu(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	if err := pageTemplates.ExecuteTemplate(w, "menu.html.tmpl", menuPage{Title: "Financer"}); err != nil {
		monitoring.Logf("render menu: %v", err)
	}
}

// bank fetches the remote bank-marketing table, caching it after the first
// successful fetch. Failures are not cached so a later request can retry.
func (ws *WebServer) bank(ctx context.Context) (*dataset.Table, error) {
	ws.bankMu.Lock()
	defer ws.bankMu.Unlock()
	if ws.bankTable != nil {
		return ws.bankTable, nil
	}
	t, err := dataset.FetchURL(ctx, ws.client, *ws.cfg.BankURL)
	if err != nil {
		return nil, err
	}
	ws.bankTable = t
	return t, nil
}

// dataFile resolves a bundled dataset inside the configured data directory,
// rejecting names that would escape it.
func (ws *WebServer) dataFile(name string) (string, error) {
	path := filepath.Join(*ws.cfg.DataDir, name)
	if err := security.ValidatePathWithinDirectory(path, *ws.cfg.DataDir); err != nil {
		return "", err
	}
	return path, nil
}
