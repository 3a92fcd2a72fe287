package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(t *testing.T, root string, cfg OrchestratorConfig) (*Orchestrator, *DailyCounters, *Watcher) {
	t.Helper()

	store := newTestStore(t)
	engine := NewEngine(store, root, testLogger())
	watcher := NewWatcher(root, testLogger())
	counters := NewDailyCounters(time.Now())
	pipeline := NewPipeline(engine, testLogger(), testPipelineConfig(), counters)

	if cfg.HealthAddr == "" {
		cfg.HealthAddr = ":0"
	}

	o := NewOrchestrator(cfg, store, engine, watcher, pipeline, counters, testLogger())

	return o, counters, watcher
}

func TestOrchestrator_RunPerformsInitialSyncOnStartup(t *testing.T) {
	root := t.TempDir()
	photo := filepath.Join(root, "vacation", "a.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(photo), 0o755))
	writePNG(t, photo, 10, 10)

	o, counters, _ := newTestOrchestrator(t, root, OrchestratorConfig{
		InitialSyncOnStartup: true,
		PeriodicSyncInterval: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	require.Eventually(t, func() bool {
		return counters.Snapshot(time.Now()).FilesProcessedToday == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestOrchestrator_RunSkipsInitialSyncWhenDisabled(t *testing.T) {
	root := t.TempDir()

	o, counters, watcher := newTestOrchestrator(t, root, OrchestratorConfig{
		InitialSyncOnStartup: false,
		PeriodicSyncInterval: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	require.Eventually(t, func() bool { return watcher.Active() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, counters.Snapshot(time.Now()).FilesProcessedToday)

	cancel()
	require.NoError(t, <-done)
}

func TestOrchestrator_PeriodicSyncLoopToleratesFullSyncErrorsAndKeepsTicking(t *testing.T) {
	missingRoot := filepath.Join(t.TempDir(), "does-not-exist")

	o, counters, _ := newTestOrchestrator(t, missingRoot, OrchestratorConfig{
		PeriodicSyncInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- o.periodicSyncLoop(ctx) }()

	// Several ticks fire against a root that cannot exist; each FullSync
	// call fails and must be logged, never returned, so the loop survives.
	time.Sleep(50 * time.Millisecond)

	cancel()
	require.NoError(t, <-done, "a full-sync error on every tick must not make the loop return an error")
	assert.Equal(t, 0, counters.Snapshot(time.Now()).FilesProcessedToday)
}
