package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDailyCounters_RecordFullSyncAccumulates(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := NewDailyCounters(now)

	c.RecordFullSync(SyncStats{Scanned: 10, Added: 3, Updated: 2, Removed: 1}, now)
	c.RecordFullSync(SyncStats{Scanned: 5, Added: 1, Updated: 0, Removed: 0}, now.Add(time.Hour))

	snap := c.Snapshot(now.Add(2 * time.Hour))
	assert.Equal(t, 15, snap.FilesProcessedToday)
	assert.Equal(t, 4, snap.FilesAddedToday)
	assert.Equal(t, 2, snap.FilesUpdatedToday)
	assert.Equal(t, 1, snap.FilesRemovedToday)
	assert.True(t, snap.LastFullSync.Equal(now.Add(time.Hour)))
}

func TestDailyCounters_RecordBatchCountsAppliedAsProcessed(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := NewDailyCounters(now)

	c.RecordBatch(BatchResult{Applied: 4, Skipped: 1, Failed: 1}, now)

	snap := c.Snapshot(now)
	assert.Equal(t, 4, snap.FilesProcessedToday)
	assert.Equal(t, 0, snap.FilesAddedToday, "a batch result cannot tell added from updated")
}

func TestDailyCounters_RolloverResetsOnNewUTCDay(t *testing.T) {
	day1 := time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)
	c := NewDailyCounters(day1)

	c.RecordFullSync(SyncStats{Scanned: 10, Added: 10}, day1)
	snap := c.Snapshot(day1)
	assert.Equal(t, 10, snap.FilesProcessedToday)

	day2 := day1.Add(2 * time.Hour) // crosses into 2024-05-02 UTC
	snap2 := c.Snapshot(day2)
	assert.Equal(t, 0, snap2.FilesProcessedToday, "counters must reset once the UTC day advances")
	assert.True(t, snap2.LastFullSync.Equal(day1), "rollover clears running totals but not the last full sync timestamp")
}

func TestDailyCounters_RolloverPreservesSameDayTotals(t *testing.T) {
	morning := time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC)
	c := NewDailyCounters(morning)

	c.RecordFullSync(SyncStats{Scanned: 7, Added: 7}, morning)

	evening := time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)
	snap := c.Snapshot(evening)
	assert.Equal(t, 7, snap.FilesProcessedToday, "same UTC day must not reset counters")
}

func TestDayStamp_FormatsAsUTCDate(t *testing.T) {
	// A timestamp just past midnight in a positive offset is still the
	// previous day in UTC.
	local := time.Date(2024, 5, 2, 1, 0, 0, 0, time.FixedZone("TEST", 3*60*60))
	assert.Equal(t, "2024-05-01", dayStamp(local))
}
