package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// OrchestratorConfig carries the lifecycle and scheduling knobs the
// orchestrator itself owns; pipeline tuning lives in PipelineConfig, and
// the store and watcher take their settings as constructor arguments.
type OrchestratorConfig struct {
	InitialSyncOnStartup bool
	PeriodicSyncInterval time.Duration
	HealthAddr           string
	HealthAccessLog      bool
}

// Orchestrator is the single entry point that composes the catalog
// store, reconciliation engine, watcher, event pipeline, and health
// surface, and owns process lifecycle: initial sync, the concurrent
// loops, and cooperative shutdown.
type Orchestrator struct {
	cfg      OrchestratorConfig
	store    Store
	engine   *Engine
	watcher  *Watcher
	pipeline *Pipeline
	health   *HealthServer
	counters *DailyCounters
	logger   *slog.Logger
}

// NewOrchestrator wires the components together. The caller constructs
// store/engine/watcher/pipeline and a shared *DailyCounters beforehand
// (see runWorker in the main package's run.go), so this constructor is pure
// composition with no I/O of its own.
func NewOrchestrator(
	cfg OrchestratorConfig, store Store, engine *Engine, watcher *Watcher,
	pipeline *Pipeline, counters *DailyCounters, logger *slog.Logger,
) *Orchestrator {
	health := NewHealthServer(cfg.HealthAddr, store, watcher, pipeline, counters, cfg.HealthAccessLog, logger)

	return &Orchestrator{
		cfg:      cfg,
		store:    store,
		engine:   engine,
		watcher:  watcher,
		pipeline: pipeline,
		health:   health,
		counters: counters,
		logger:   logger,
	}
}

// Run performs the initial sync (if configured), then starts the
// watcher, the pipeline consumer, the periodic-sync timer, and the
// health server as sibling goroutines under one cancellable group. It
// blocks until ctx is canceled or any loop returns a fatal error, at
// which point the others are canceled too.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.cfg.InitialSyncOnStartup {
		o.logger.Info("running initial full sync")

		stats, err := o.engine.FullSync(ctx)
		if err != nil {
			return fmt.Errorf("sync: initial full sync failed: %w", err)
		}

		o.counters.RecordFullSync(stats, time.Now())
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return o.watcher.Watch(gctx, o.pipeline.Events())
	})

	g.Go(func() error {
		return o.pipeline.Run(gctx)
	})

	g.Go(func() error {
		return o.periodicSyncLoop(gctx)
	})

	g.Go(func() error {
		return o.health.Serve(gctx)
	})

	return g.Wait()
}

// periodicSyncLoop is the backstop against lost watcher events: every
// PeriodicSyncInterval it runs a full sync. Failures are logged and the
// timer continues; they never bring down the loop.
func (o *Orchestrator) periodicSyncLoop(ctx context.Context) error {
	ticker := time.NewTicker(o.cfg.PeriodicSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			stats, err := o.engine.FullSync(ctx)
			if err != nil {
				o.logger.Error("periodic full sync failed", slog.Any("error", err))
				continue
			}

			o.counters.RecordFullSync(stats, time.Now())
			o.logger.Info("periodic full sync complete",
				slog.Int("scanned", stats.Scanned), slog.Int("added", stats.Added),
				slog.Int("updated", stats.Updated), slog.Int("removed", stats.Removed))
		}
	}
}
