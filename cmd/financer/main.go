// Command financer serves the financial dashboards: stock prices, a
// simulated real-time view over the bank-marketing dataset, the auto-MPG
// explorer and an upload visualizer.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ni-sh-a-char/financer/internal/config"
	"github.com/ni-sh-a-char/financer/internal/store"
	"github.com/ni-sh-a-char/financer/internal/web"
)

var (
	configPath = flag.String("config", "", "Path to JSON config file")
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	dataDir    = flag.String("data", "", "Directory holding the bundled CSV datasets (overrides config)")
	storePath  = flag.String("store", "", "Path to the sqlite database (overrides config)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *listen != "" {
		cfg.Listen = listen
	}
	if *dataDir != "" {
		cfg.DataDir = dataDir
	}
	if *storePath != "" {
		cfg.StorePath = storePath
	}

	db, err := store.Open(*cfg.StorePath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := web.NewWebServer(web.WebServerConfig{
		Config: cfg,
		Store:  db,
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(ctx); err != nil {
			log.Printf("web server terminated: %v", err)
		}
	}()

	<-ctx.Done()
	wg.Wait()
}
