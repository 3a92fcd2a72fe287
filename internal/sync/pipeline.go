package sync

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const maxProcessingSamples = 1000 // rolling window size for the average processing time

// PipelineConfig controls batch formation and retry behavior for the
// event pipeline.
type PipelineConfig struct {
	QueueCapacity int           // bounded channel size between watcher and pipeline
	DebounceDelay time.Duration // wait after the anchor event before draining more
	BatchTimeout  time.Duration // hard cap on time spent forming one batch
	MaxBatchSize  int           // hard cap on events per batch
	RetryAttempts int           // total dispatch attempts per batch
	RetryDelay    time.Duration // fixed wait between attempts
	ShutdownGrace time.Duration // bounded drain window on shutdown
}

// Pipeline buffers watcher events, debounces and batches them, and
// dispatches each batch to the reconciliation engine with retries. It
// owns the single channel between the watcher goroutine (producer) and
// its own consumer loop.
type Pipeline struct {
	engine   *Engine
	logger   *slog.Logger
	cfg      PipelineConfig
	events   chan FileEvent
	stats    pipelineStats
	counters *DailyCounters
}

// pipelineStats accumulates the counters the health surface reads.
// Counts need not be exact, only recent-enough, so plain atomics plus a
// mutex-guarded ring buffer are sufficient; no coordination with readers
// is required.
type pipelineStats struct {
	mu          sync.Mutex
	durationsMs []float64
	processed   atomic.Int64
	failed      atomic.Int64
}

func (s *pipelineStats) record(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.durationsMs = append(s.durationsMs, ms)
	if len(s.durationsMs) > maxProcessingSamples {
		s.durationsMs = s.durationsMs[len(s.durationsMs)-maxProcessingSamples:]
	}
}

func (s *pipelineStats) averageMillis() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.durationsMs) == 0 {
		return 0
	}

	var total float64
	for _, v := range s.durationsMs {
		total += v
	}

	return total / float64(len(s.durationsMs))
}

// PipelineStats is a point-in-time snapshot for the health surface.
type PipelineStats struct {
	PendingEvents          int
	ProcessedEvents        int64
	FailedEvents           int64
	AverageProcessingMsecs float64
	DroppedEvents          int64
}

// NewPipeline constructs a Pipeline with its bounded event channel.
func NewPipeline(engine *Engine, logger *slog.Logger, cfg PipelineConfig, counters *DailyCounters) *Pipeline {
	return &Pipeline{
		engine:   engine,
		logger:   logger,
		cfg:      cfg,
		events:   make(chan FileEvent, cfg.QueueCapacity),
		counters: counters,
	}
}

// Events returns the write side of the pipeline's channel, for the
// watcher to publish into.
func (p *Pipeline) Events() chan<- FileEvent {
	return p.events
}

// Stats returns a snapshot of the pipeline's counters. droppedEvents
// comes from the watcher, which owns the producer-side drop counter.
func (p *Pipeline) Stats(droppedEvents int64) PipelineStats {
	return PipelineStats{
		PendingEvents:          len(p.events),
		ProcessedEvents:        p.stats.processed.Load(),
		FailedEvents:           p.stats.failed.Load(),
		AverageProcessingMsecs: p.stats.averageMillis(),
		DroppedEvents:          droppedEvents,
	}
}

// Run consumes events until ctx is canceled, forming and dispatching one
// batch at a time. On cancellation it drains whatever is already queued
// for a bounded grace period, dispatches any final partial batch, then
// returns. Events arriving after that grace period are discarded.
func (p *Pipeline) Run(ctx context.Context) error {
	for {
		var anchor FileEvent

		select {
		case <-ctx.Done():
			return p.drainOnShutdown()
		case anchor = <-p.events:
		}

		batch := p.collectBatch(ctx, anchor)
		p.dispatchWithRetry(ctx, batch)
	}
}

// collectBatch implements the anchor + debounce + bounded-drain rule: the
// first event is always delayed by at least DebounceDelay, the batch
// never exceeds MaxBatchSize, and forward progress is guaranteed by
// BatchTimeout measured from the anchor.
func (p *Pipeline) collectBatch(ctx context.Context, anchor FileEvent) []FileEvent {
	batchStart := time.Now()
	batch := []FileEvent{anchor}

	debounce := time.NewTimer(p.cfg.DebounceDelay)

	select {
	case <-debounce.C:
	case <-ctx.Done():
		debounce.Stop()
		return batch
	}

	deadline := batchStart.Add(p.cfg.BatchTimeout)

	for len(batch) < p.cfg.MaxBatchSize {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}

		timer := time.NewTimer(remaining)

		select {
		case ev := <-p.events:
			timer.Stop()
			batch = append(batch, ev)
		case <-timer.C:
			return batch
		case <-ctx.Done():
			timer.Stop()
			return batch
		}
	}

	return batch
}

// dispatchWithRetry invokes the engine's batch apply inside a fixed-delay
// retry loop. On final failure the batch is dropped (not re-queued); the
// next periodic full-sync heals the resulting divergence.
func (p *Pipeline) dispatchWithRetry(ctx context.Context, batch []FileEvent) {
	var lastErr error

	for attempt := 1; attempt <= p.cfg.RetryAttempts; attempt++ {
		start := time.Now()
		result, err := p.engine.ApplyBatch(ctx, batch)
		p.stats.record(time.Since(start))

		if err == nil {
			p.stats.processed.Add(int64(result.Applied))
			p.counters.RecordBatch(result, time.Now())

			return
		}

		lastErr = err
		p.logger.Error("batch dispatch failed",
			slog.Int("attempt", attempt), slog.Int("events", len(batch)), slog.Any("error", err))

		if attempt == p.cfg.RetryAttempts {
			break
		}

		select {
		case <-time.After(p.cfg.RetryDelay):
		case <-ctx.Done():
			p.stats.failed.Add(int64(len(batch)))
			return
		}
	}

	p.stats.failed.Add(int64(len(batch)))
	p.logger.Error("dropping batch after exhausting retries",
		slog.Int("events", len(batch)), slog.Any("error", lastErr))
}

func (p *Pipeline) drainOnShutdown() error {
	drainCtx, cancel := context.WithTimeout(context.Background(), p.cfg.ShutdownGrace)
	defer cancel()

	for {
		var batch []FileEvent

	drain:
		for len(batch) < p.cfg.MaxBatchSize {
			select {
			case ev := <-p.events:
				batch = append(batch, ev)
			case <-drainCtx.Done():
				break drain
			}
		}

		if len(batch) > 0 {
			p.dispatchWithRetry(context.Background(), batch)
		}

		if drainCtx.Err() != nil {
			return nil
		}
	}
}
