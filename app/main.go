package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hann12-34/discovr-ingest/app/api"
	"github.com/hann12-34/discovr-ingest/app/cfg"
	"github.com/hann12-34/discovr-ingest/app/database"
	"github.com/hann12-34/discovr-ingest/app/datetext"
	"github.com/hann12-34/discovr-ingest/app/locality"
	"github.com/hann12-34/discovr-ingest/app/metrics"
	"github.com/hann12-34/discovr-ingest/app/pipeline"
	"github.com/hann12-34/discovr-ingest/app/source"
	"github.com/hann12-34/discovr-ingest/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting discovr ingest server", "version", appCfg.Version)

	if err := os.MkdirAll(filepath.Dir(appCfg.DBPath), 0o755); err != nil {
		fatal("Failed to create database directory", err)
	}

	slog.Info("Connecting to database", "path", appCfg.DBPath)
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		fatal("Failed to connect to database", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		fatal("Failed to run migrations", err)
	}
	slog.Info("Database ready", "schema_version", version, "dirty", dirty)

	slog.Info("Loading source configurations", "dir", appCfg.SourcesDir)
	configCache := source.NewConfigCache(appCfg.SourcesDir)
	if err := configCache.Run(); err != nil {
		fatal("Failed to load source configurations", err)
	}
	slog.Info("Source configurations loaded", "count", configCache.GetConfigCount())

	tables, err := locality.LoadTables(appCfg.CitiesFile)
	if err != nil {
		fatal("Failed to load city tables", err)
	}
	resolver := locality.NewResolver(tables)

	// Initialize repositories
	eventRepo := database.NewEventRepository(db)
	sourceRepo := database.NewSourceRepository(db)
	runRepo := database.NewRunRepository(db)

	m := metrics.New()

	ingestor := pipeline.NewIngestor(eventRepo, resolver, configCache, runRepo, m, pipeline.Options{
		MinTitleLength: appCfg.MinTitleLength,
		MaxTitleLength: appCfg.MaxTitleLength,
		Window: datetext.Window{
			PastDays:   appCfg.PastWindowDays,
			FutureDays: appCfg.FutureWindowDays,
		},
		RejectSampleSize: appCfg.RejectSampleSize,
	})

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "inbox", appCfg.InboxDir)
	scheduler := tasks.NewScheduler(configCache, sourceRepo, ingestor)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(configCache, eventRepo, sourceRepo, runRepo, ingestor, scheduler, m)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if appCfg.APIAccessKey == "" {
			slog.Warn("API endpoints disabled, API_ACCESS_KEY not set")
		}

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

func setupLogger(debug bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler
	if debug {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
