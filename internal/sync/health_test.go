package sync

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHealthServer(t *testing.T) (*HealthServer, *SQLiteStore) {
	t.Helper()

	store := newTestStore(t)
	watcher := NewWatcher(t.TempDir(), testLogger())
	engine := NewEngine(store, t.TempDir(), testLogger())
	counters := NewDailyCounters(time.Now())
	pipeline := NewPipeline(engine, testLogger(), testPipelineConfig(), counters)

	h := NewHealthServer(":0", store, watcher, pipeline, counters, false, testLogger())

	return h, store
}

func TestHealthServer_HandleHealthReportsUnhealthyWhenWatcherInactive(t *testing.T) {
	h, _ := newTestHealthServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	h.handleHealth(rec, req)

	assert.Equal(t, 200, rec.Code)

	var body healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "unhealthy", body.Status, "watcher never started, so liveness must report unhealthy")
	assert.True(t, body.DatabaseConnected)
	assert.False(t, body.WatcherActive)
	assert.Nil(t, body.LastSync)
}

func TestHealthServer_HandleHealthReportsHealthyOnceWatcherIsRunning(t *testing.T) {
	h, _ := newTestHealthServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan FileEvent, 1)
	done := make(chan error, 1)
	go func() { done <- h.watcher.Watch(ctx, events) }()

	require.Eventually(t, func() bool { return h.watcher.Active() }, time.Second, time.Millisecond)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.handleHealth(rec, req)

	var body healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.True(t, body.WatcherActive)

	cancel()
	<-done
}

func TestHealthServer_HandleStatsReflectsCountersAndPipeline(t *testing.T) {
	h, _ := newTestHealthServer(t)

	now := time.Now()
	h.counters.RecordFullSync(SyncStats{Scanned: 3, Added: 2, Updated: 1}, now)

	req := httptest.NewRequest("GET", "/stats", nil)
	rec := httptest.NewRecorder()
	h.handleStats(rec, req)

	assert.Equal(t, 200, rec.Code)

	var body statsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 3, body.SyncStatistics.FilesProcessedToday)
	assert.Equal(t, 2, body.SyncStatistics.FilesAddedToday)
	assert.Equal(t, 1, body.SyncStatistics.FilesUpdatedToday)
	assert.NotNil(t, body.SyncStatistics.LastFullSync)
	assert.GreaterOrEqual(t, body.UptimeSeconds, 0.0)
}

func TestOptionalTime_NilForZeroValue(t *testing.T) {
	assert.Nil(t, optionalTime(time.Time{}))

	now := time.Now()
	got := optionalTime(now)
	require.NotNil(t, got)
	assert.True(t, now.Equal(*got))
}
