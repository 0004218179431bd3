// Package main runs the engine on a schedule and serves the results:
// - GET  /health, /metrics
// - GET  /api/v1/recommendations, /api/v1/evaluations, /api/v1/history/{date}
// - POST /api/v1/runs
// - GET  /ws (live feed of every run)
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"safe-bets/internal/api"
	"safe-bets/internal/app"
	"safe-bets/internal/broadcast"
	"safe-bets/internal/config"
	"safe-bets/internal/storage"
)

func main() {
	// Load .env file if exists
	config.LoadEnvFile(".env")

	var f app.EngineFlags
	f.Register(flag.CommandLine)
	addr := flag.String("addr", envOr("SAFE_BETS_ADDR", ":8080"), "HTTP listen address")
	interval := flag.Duration("interval", 6*time.Hour, "Engine run interval")
	origins := flag.String("cors-origins", os.Getenv("CORS_ORIGINS"), "Comma-separated allowed CORS origins (default: any)")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)
	engineLogger := log.New(os.Stdout, "[engine] ", log.LstdFlags)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := broadcast.NewHub(log.New(os.Stdout, "[ws] ", log.LstdFlags))
	go hub.Run(ctx)

	built, err := f.Build(ctx, engineLogger, hub)
	if err != nil {
		logger.Fatalf("Failed to set up engine: %v", err)
	}
	defer built.Close()

	var history storage.HistoryStore
	if len(built.Mirrors) > 0 {
		history = built.Mirrors[0]
	}
	service := api.NewService(built.Engine, history, logger)

	var allowed []string
	for _, o := range strings.Split(*origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	srv := &http.Server{
		Addr: *addr,
		Handler: api.NewRouter(service, api.RouterOptions{
			AllowedOrigins: allowed,
			LiveFeed:       hub.Handler(ctx),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to signal completion
	done := make(chan struct{})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	go func() {
		logger.Printf("Starting HTTP server on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("HTTP server error: %v", err)
			cancel()
		}
	}()

	logger.Printf("Running engine every %v", *interval)
	service.Run(ctx, *interval)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP shutdown error: %v", err)
	}
	close(done)
	logger.Println("Shutdown complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
