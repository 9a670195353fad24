package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marketbrief/marketbrief/app/api"
	"github.com/marketbrief/marketbrief/app/cfg"
	"github.com/marketbrief/marketbrief/app/database"
	"github.com/marketbrief/marketbrief/app/fetch"
	"github.com/marketbrief/marketbrief/app/holdings"
	"github.com/marketbrief/marketbrief/app/providers"
	"github.com/marketbrief/marketbrief/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting MarketBrief server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	holdingsCache := holdings.NewCache(appCfg.HoldingsFile)
	if err := holdingsCache.Run(); err != nil {
		slog.Error("Failed to load holdings", "file", appCfg.HoldingsFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Holdings loaded", "file", appCfg.HoldingsFile, "count", holdingsCache.Count())

	httpClient := &http.Client{}

	// Provider order is fixed: it decides which copy of a duplicate
	// article wins during deduplication.
	providerList := []providers.Provider{
		providers.NewNewsAPI(httpClient, appCfg.NewsAPIKey, appCfg.UserAgent),
		providers.NewMarketaux(httpClient, appCfg.MarketauxAPIKey, appCfg.UserAgent),
		providers.NewGoogleNews(httpClient, appCfg.UserAgent),
	}

	articleRepo := database.NewArticleRepository(db)
	orchestrator := fetch.NewOrchestrator(providerList, articleRepo)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount)
	scheduler := tasks.NewScheduler(holdingsCache, orchestrator, articleRepo, httpClient)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(articleRepo, holdingsCache, orchestrator, scheduler)
	server := api.NewServer(apiHandler)

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
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
