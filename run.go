package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmarlan/photosync/internal/config"
	photosync "github.com/dmarlan/photosync/internal/sync"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the sync worker daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd.Context())
		},
	}
}

// runWorker wires the catalog store, reconciliation engine, watcher,
// event pipeline, and health surface together and runs them until the
// context is canceled by a shutdown signal.
func runWorker(ctx context.Context) error {
	cc := mustCLIContext(ctx)
	cfg := cc.Cfg
	logger := cc.Logger

	ctx = shutdownContext(ctx, logger)

	pidPath := flagPIDFile
	if pidPath == "" {
		pidPath = filepath.Join(filepath.Dir(cfg.DBPath), "photosync.pid")
	}

	cleanup, err := writePIDFile(pidPath)
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := photosync.NewSQLiteStore(ctx, cfg.DBPath, logger)
	if err != nil {
		return fmt.Errorf("opening catalog store: %w", err)
	}
	defer store.Close()

	engine := photosync.NewEngine(store, cfg.PhotosBasePath, logger)
	watcher := photosync.NewWatcher(cfg.PhotosBasePath, logger)
	counters := photosync.NewDailyCounters(time.Now())

	pipeline := photosync.NewPipeline(engine, logger, photosync.PipelineConfig{
		QueueCapacity: cfg.QueueCapacity,
		DebounceDelay: cfg.EventDebounceDelayDuration(),
		BatchTimeout:  config.BatchTimeout,
		MaxBatchSize:  cfg.MaxBatchSize,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelayDuration(),
		ShutdownGrace: cfg.ShutdownGraceDuration(),
	}, counters)

	orchestrator := photosync.NewOrchestrator(photosync.OrchestratorConfig{
		InitialSyncOnStartup: cfg.InitialSyncOnStartup,
		PeriodicSyncInterval: cfg.PeriodicSyncIntervalDuration(),
		HealthAddr:           fmt.Sprintf(":%d", cfg.HealthCheckPort),
		HealthAccessLog:      cfg.HealthAccessLog,
	}, store, engine, watcher, pipeline, counters, logger)

	return orchestrator.Run(ctx)
}
