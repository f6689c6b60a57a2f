package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pagecast/pagecast/app/api"
	"github.com/pagecast/pagecast/app/cfg"
	"github.com/pagecast/pagecast/app/database"
	"github.com/pagecast/pagecast/app/feed"
	"github.com/pagecast/pagecast/app/hosts"
	"github.com/pagecast/pagecast/app/httpclient"
	"github.com/pagecast/pagecast/app/refresh"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Pagecast server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	cache, err := httpclient.NewCache(appCfg.CacheDir)
	if err != nil {
		log.Fatal("Failed to initialize HTTP cache: ", err)
	}

	client := httpclient.NewClient(cache, httpclient.Options{
		Timeout:        time.Duration(appCfg.Timeout) * time.Second,
		ConnectTimeout: time.Duration(appCfg.ConnectTimeout) * time.Second,
		MaxRedirects:   appCfg.MaxRedirects,
		UserAgent:      appCfg.UserAgent,
		CacheTTL:       time.Duration(appCfg.CacheTTL) * time.Second,
	})

	registry, err := hosts.Load(appCfg.HostsFile)
	if err != nil {
		log.Fatal("Failed to load hosts file: ", err)
	}

	jobRepo := database.NewJobRepository(db)
	builder := feed.NewBuilder("Pagecast/" + appCfg.Version)
	runLog := refresh.NewRunLog(appCfg.RunLog)
	refresher := refresh.NewRefresher(client, registry, jobRepo, builder, appCfg.DataDir)
	runner := refresh.NewRunner(jobRepo, refresher, runLog, appCfg.MaxJobsPerRun)

	// Background refresh scheduler
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(time.Duration(appCfg.SchedulerInterval) * time.Second)
		defer ticker.Stop()

		runner.Run(schedulerCtx)

		for {
			select {
			case <-schedulerCtx.Done():
				return
			case <-ticker.C:
				runner.Run(schedulerCtx)
			}
		}
	}()

	handler := api.NewHandler(jobRepo, refresher, runLog, appCfg.DataDir)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
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

	stopScheduler()
	wg.Wait()

	slog.Info("Shutdown complete")
}
