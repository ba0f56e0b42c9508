package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/damon-houk/fx-rate-sync/internal/application/service"
	"github.com/damon-houk/fx-rate-sync/internal/config"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/api"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/cache"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/db"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/handler"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/logger"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/metrics"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fx-rate-sync: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := logger.NewJSONLogger(os.Stdout, level).WithField("service", "fx-rate-sync")
	logger.SetDefaultLogger(log)

	log.Info("Starting FX rate sync", map[string]interface{}{
		"base":            cfg.BaseCurrency,
		"targets":         cfg.TargetList(),
		"primary_url":     cfg.PrimaryBaseURL,
		"retention_days":  cfg.RetentionDays,
		"sync_schedule":   cfg.SyncSchedule,
		"sweep_schedule":  cfg.SweepSchedule,
		"data_dir":        cfg.DataDir,
		"primary_key_set": cfg.PrimaryAPIKey != "",
	})

	badgerDB, err := db.OpenBadger(cfg.DataDir, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := badgerDB.Close(); err != nil {
			log.Error("Error closing BadgerDB", map[string]interface{}{"error": err.Error()})
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	syncMetrics := metrics.NewSyncMetrics(registry)

	// Initialize repositories and clients
	repo := db.NewBadgerRateRepository(badgerDB)
	client := api.NewFxRatesClient(cfg.PrimaryBaseURL, cfg.PrimaryAPIKey, &http.Client{Timeout: cfg.HTTPTimeout}, log)
	latest := cache.NewLatestRateCache(24 * time.Hour)

	// Initialize services
	syncService := service.NewSyncService(client, repo, latest, syncMetrics, log, service.SyncOptions{
		BaseCurrency:     cfg.BaseCurrency,
		TargetCurrencies: cfg.TargetCurrencies,
		Timeout:          cfg.JobTimeout,
	})
	retentionService := service.NewRetentionService(repo, syncMetrics, log, cfg.RetentionDays, cfg.JobTimeout, nil)

	sched := scheduler.New(log)
	if _, err := sched.Register(scheduler.JobSync, cfg.SyncSchedule, func(ctx context.Context) error {
		_, err := syncService.SyncCycle(ctx)
		return err
	}); err != nil {
		return err
	}
	if _, err := sched.Register(scheduler.JobSweep, cfg.SweepSchedule, func(ctx context.Context) error {
		_, err := retentionService.Sweep(ctx)
		return err
	}); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start()

	startupDone := make(chan struct{})
	if cfg.SyncOnStart {
		go func() {
			defer close(startupDone)
			err := sched.Exclusive(ctx, scheduler.JobSync, func(ctx context.Context) error {
				_, err := syncService.SyncCycle(ctx)
				return err
			})
			if err != nil {
				log.Warn("Startup sync did not complete", map[string]interface{}{"error": err.Error()})
			}
		}()
	} else {
		close(startupDone)
	}

	// Setup router
	router := handler.NewRouter(log, registry,
		handler.NewJobHandler(syncService, retentionService, sched, log),
		handler.NewRateHandler(repo, latest, log),
		handler.NewHealthHandler(sched, log),
	)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received", nil)
	case err := <-serverErr:
		if err != nil {
			log.Error("Server failed", map[string]interface{}{"error": err.Error()})
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		log.Warn("Scheduler did not stop cleanly", map[string]interface{}{"error": err.Error()})
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server did not shut down cleanly", map[string]interface{}{"error": err.Error()})
	}
	select {
	case <-startupDone:
	case <-shutdownCtx.Done():
	}

	log.Info("Shutdown complete", nil)
	return nil
}
