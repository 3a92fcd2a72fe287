package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// HealthServer exposes liveness and rolling statistics on a port
// separate from the (out-of-scope) catalog API.
type HealthServer struct {
	addr      string
	store     Store
	watcher   *Watcher
	pipeline  *Pipeline
	counters  *DailyCounters
	logger    *slog.Logger
	accessLog bool
	startedAt time.Time

	srv *http.Server
}

// NewHealthServer constructs a HealthServer bound to addr (host:port).
func NewHealthServer(
	addr string, store Store, watcher *Watcher, pipeline *Pipeline,
	counters *DailyCounters, accessLog bool, logger *slog.Logger,
) *HealthServer {
	return &HealthServer{
		addr:      addr,
		store:     store,
		watcher:   watcher,
		pipeline:  pipeline,
		counters:  counters,
		logger:    logger,
		accessLog: accessLog,
		startedAt: time.Now().UTC(),
	}
}

type healthResponse struct {
	Status            string     `json:"status"`
	UptimeSeconds     float64    `json:"uptime_seconds"`
	DatabaseConnected bool       `json:"database_connected"`
	WatcherActive     bool       `json:"watcher_active"`
	LastSync          *time.Time `json:"last_sync"`
}

type statsResponse struct {
	SyncStatistics syncStatisticsJSON `json:"sync_statistics"`
	EventQueue     eventQueueJSON     `json:"event_queue"`
	UptimeSeconds  float64            `json:"uptime"`
}

type syncStatisticsJSON struct {
	FilesProcessedToday    int        `json:"files_processed_today"`
	FilesAddedToday        int        `json:"files_added_today"`
	FilesUpdatedToday      int        `json:"files_updated_today"`
	FilesRemovedToday      int        `json:"files_removed_today"`
	LastFullSync           *time.Time `json:"last_full_sync"`
	AverageProcessingMsecs float64    `json:"average_processing_time_ms"`
}

type eventQueueJSON struct {
	PendingEvents   int   `json:"pending_events"`
	ProcessedEvents int64 `json:"processed_events"`
	FailedEvents    int64 `json:"failed_events"`
	DroppedEvents   int64 `json:"dropped_events"`
}

// Serve starts the HTTP server and blocks until ctx is canceled, then
// shuts it down gracefully. Matches the orchestrator's other loops: an
// errgroup.Group member that returns nil on a clean stop.
func (h *HealthServer) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/stats", h.handleStats)

	var handler http.Handler = mux
	if h.accessLog {
		handler = h.withAccessLog(handler)
	}

	h.srv = &http.Server{
		Addr:              h.addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		if err := h.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("sync: health server: %w", err)
			return
		}

		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("sync: shutting down health server: %w", err)
		}

		return nil

	case err := <-errCh:
		return err
	}
}

func (h *HealthServer) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Info("health request",
			slog.String("method", r.Method), slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)))
	})
}

func (h *HealthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbErr := h.store.Health(r.Context())
	watcherActive := h.watcher.Active()

	status := "healthy"
	if dbErr != nil || !watcherActive {
		status = "unhealthy"
	}

	snapshot := h.counters.Snapshot(time.Now())

	resp := healthResponse{
		Status:            status,
		UptimeSeconds:     time.Since(h.startedAt).Seconds(),
		DatabaseConnected: dbErr == nil,
		WatcherActive:     watcherActive,
		LastSync:          optionalTime(snapshot.LastFullSync),
	}

	writeJSON(w, resp)
}

func (h *HealthServer) handleStats(w http.ResponseWriter, r *http.Request) {
	snapshot := h.counters.Snapshot(time.Now())
	pipelineStats := h.pipeline.Stats(h.watcher.DroppedEvents())

	resp := statsResponse{
		SyncStatistics: syncStatisticsJSON{
			FilesProcessedToday:    snapshot.FilesProcessedToday,
			FilesAddedToday:        snapshot.FilesAddedToday,
			FilesUpdatedToday:      snapshot.FilesUpdatedToday,
			FilesRemovedToday:      snapshot.FilesRemovedToday,
			LastFullSync:           optionalTime(snapshot.LastFullSync),
			AverageProcessingMsecs: pipelineStats.AverageProcessingMsecs,
		},
		EventQueue: eventQueueJSON{
			PendingEvents:   pipelineStats.PendingEvents,
			ProcessedEvents: pipelineStats.ProcessedEvents,
			FailedEvents:    pipelineStats.FailedEvents,
			DroppedEvents:   pipelineStats.DroppedEvents,
		},
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
	}

	writeJSON(w, resp)
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}

	return &t
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
	}
}
