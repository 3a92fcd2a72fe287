package sync

import (
	"sync"
	"time"
)

// DailyCounters accumulates today's full-sync and event totals for the
// stats surface. "Today" is UTC and the rollover is checked lazily, on
// every read, rather than on a background timer.
type DailyCounters struct {
	mu sync.Mutex

	day string // YYYY-MM-DD, UTC

	filesProcessed int
	filesAdded     int
	filesUpdated   int
	filesRemoved   int

	lastFullSync time.Time
}

// NewDailyCounters returns a zeroed counter set stamped for the current
// UTC day.
func NewDailyCounters(now time.Time) *DailyCounters {
	return &DailyCounters{day: dayStamp(now)}
}

func dayStamp(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// rolloverLocked resets the counters if the UTC date has advanced since
// they were last touched. Caller must hold mu.
func (c *DailyCounters) rolloverLocked(now time.Time) {
	stamp := dayStamp(now)
	if stamp == c.day {
		return
	}

	c.day = stamp
	c.filesProcessed = 0
	c.filesAdded = 0
	c.filesUpdated = 0
	c.filesRemoved = 0
}

// RecordFullSync folds a full-sync result into today's totals.
func (c *DailyCounters) RecordFullSync(stats SyncStats, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rolloverLocked(at)

	c.filesProcessed += stats.Scanned
	c.filesAdded += stats.Added
	c.filesUpdated += stats.Updated
	c.filesRemoved += stats.Removed
	c.lastFullSync = at.UTC()
}

// RecordBatch folds an event-batch result into today's totals. Full-sync
// and event-mode share the same counters; added/updated cannot be told
// apart from a BatchResult alone, so successful applications are counted
// as processed only, matching the health surface's use of this field as
// a coarse activity counter rather than an exact add/update split.
func (c *DailyCounters) RecordBatch(result BatchResult, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rolloverLocked(at)

	c.filesProcessed += result.Applied
}

// DailySnapshot is a point-in-time, rollover-checked read.
type DailySnapshot struct {
	FilesProcessedToday int
	FilesAddedToday     int
	FilesUpdatedToday   int
	FilesRemovedToday   int
	LastFullSync        time.Time
}

// Snapshot returns today's totals, applying the rollover check first.
func (c *DailyCounters) Snapshot(now time.Time) DailySnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rolloverLocked(now)

	return DailySnapshot{
		FilesProcessedToday: c.filesProcessed,
		FilesAddedToday:     c.filesAdded,
		FilesUpdatedToday:   c.filesUpdated,
		FilesRemovedToday:   c.filesRemoved,
		LastFullSync:        c.lastFullSync,
	}
}
