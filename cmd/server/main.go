package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/wordspira/internal/api"
	"github.com/dgallion1/wordspira/internal/config"
	"github.com/dgallion1/wordspira/internal/metrics"
	"github.com/dgallion1/wordspira/internal/pipeline"
	"github.com/dgallion1/wordspira/internal/settings"
	"github.com/dgallion1/wordspira/internal/spira"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Every Spira client shares one latency window and the Prometheus observer.
	stats := spira.NewCallStats(cfg.StatsWindow)
	newClient := func(c pipeline.Credentials) *spira.Client {
		return spira.NewClient(c.URL, c.Username, c.APIKey, cfg.SpiraTimeout).
			WithStats(stats).
			WithObserver(metrics.Tracker{})
	}
	openSettings := func(docID string) (settings.Store, error) {
		return settings.OpenFile(cfg.SettingsDir, docID)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg,
		func(c pipeline.Credentials) pipeline.Tracker { return newClient(c) },
		openSettings,
		log,
	)
	orch.Start(ctx)

	login := func(ctx context.Context, c pipeline.Credentials) ([]spira.Project, error) {
		return newClient(c).Projects(ctx)
	}

	// Initialize HTTP server.
	srv := api.NewServer(orch, login, openSettings, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting wordspira", "port", cfg.Port, "settings_dir", cfg.SettingsDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
