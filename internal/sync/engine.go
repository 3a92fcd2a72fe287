package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Engine reconciles catalog state against filesystem state, either for a
// single batch of FileEvents or for a full directory walk. Both modes
// operate against one Session per call.
type Engine struct {
	store  Store
	root   string
	logger *slog.Logger
	nowFn  func() time.Time
}

// NewEngine constructs an Engine rooted at root.
func NewEngine(store Store, root string, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		root:   root,
		logger: logger,
		nowFn:  time.Now,
	}
}

// Apply processes a single FileEvent in its own transaction.
func (e *Engine) Apply(ctx context.Context, event FileEvent) error {
	_, err := e.ApplyBatch(ctx, []FileEvent{event})
	return err
}

// ApplyBatch processes events in arrival order inside one transaction.
// Per-event faults (vanished file, unsupported extension, duplicate
// create) are logged and skipped; a fault from the catalog store itself
// aborts and rolls back the whole batch.
func (e *Engine) ApplyBatch(ctx context.Context, events []FileEvent) (BatchResult, error) {
	var result BatchResult

	supported := make([]FileEvent, 0, len(events))

	for _, ev := range events {
		if isSupportedExtension(ev.Path) {
			supported = append(supported, ev)
			continue
		}

		result.Skipped++
	}

	if len(supported) == 0 {
		return result, nil
	}

	sess, err := e.store.Begin(ctx)
	if err != nil {
		return result, err
	}
	defer sess.Close()

	for _, ev := range supported {
		var handlerErr error

		switch ev.Kind {
		case EventCreated:
			handlerErr = e.handleCreated(ctx, sess, ev)
		case EventModified:
			handlerErr = e.handleModified(ctx, sess, ev)
		case EventDeleted, EventMoved:
			handlerErr = e.handleDeleted(ctx, sess, ev)
		default:
			e.logger.Warn("dropping event of unknown kind", slog.String("path", ev.Path))
			continue
		}

		if handlerErr != nil {
			result.Failed = len(supported)
			e.logger.Error("aborting batch on catalog fault",
				slog.String("path", ev.Path), slog.Any("error", handlerErr))

			return result, fmt.Errorf("sync: applying %s event for %s: %w", ev.Kind, ev.Path, handlerErr)
		}

		result.Applied++
	}

	if err := sess.Commit(); err != nil {
		result.Applied = 0
		result.Failed = len(supported)

		return result, err
	}

	return result, nil
}

func (e *Engine) handleCreated(ctx context.Context, sess *Session, ev FileEvent) error {
	if !pathExists(ev.Path) {
		e.logger.Debug("skipping created event for vanished file", slog.String("path", ev.Path))
		return nil
	}

	existing, err := sess.GetByPath(ctx, ev.Path)
	if err != nil {
		return err
	}

	if existing != nil {
		e.logger.Debug("photo already catalogued", slog.String("path", ev.Path))
		return nil
	}

	return e.insertFromPath(ctx, sess, ev.Path, ev.Category)
}

func (e *Engine) handleModified(ctx context.Context, sess *Session, ev FileEvent) error {
	if !pathExists(ev.Path) {
		e.logger.Debug("skipping modified event for vanished file", slog.String("path", ev.Path))
		return nil
	}

	existing, err := sess.GetByPath(ctx, ev.Path)
	if err != nil {
		return err
	}

	if existing == nil {
		return e.insertFromPath(ctx, sess, ev.Path, ev.Category)
	}

	meta, err := ExtractMetadata(ev.Path)
	if err != nil {
		e.logger.Warn("skipping modified event, metadata extraction failed",
			slog.String("path", ev.Path), slog.Any("error", err))

		return nil
	}

	if existing.FileModifiedAt.Equal(meta.FileModifiedAt) {
		e.logger.Debug("modification time unchanged", slog.String("path", ev.Path))
		return nil
	}

	titleIsAuto := isAutoTitle(existing.Title, existing.Filename)
	filename := filepath.Base(ev.Path)

	existing.Filename = filename
	existing.Category = ev.Category
	existing.FileSize = meta.FileSize
	existing.Width = meta.Width
	existing.Height = meta.Height
	existing.FileModifiedAt = meta.FileModifiedAt
	existing.UpdatedAt = e.nowFn().UTC()

	if titleIsAuto {
		existing.Title = TitleFromFilename(filename)
	}

	return sess.Update(ctx, existing)
}

// handleDeleted also services MOVED events: a move is modeled as a
// delete of the old path, relying on the watcher to emit a subsequent
// created event for the new one.
func (e *Engine) handleDeleted(ctx context.Context, sess *Session, ev FileEvent) error {
	existing, err := sess.GetByPath(ctx, ev.Path)
	if err != nil {
		return err
	}

	if existing == nil {
		e.logger.Debug("delete event for path not in catalog", slog.String("path", ev.Path))
		return nil
	}

	return sess.DeleteByIDs(ctx, []string{existing.ID})
}

func (e *Engine) insertFromPath(ctx context.Context, sess *Session, path, category string) error {
	meta, err := ExtractMetadata(path)
	if err != nil {
		e.logger.Warn("skipping created event, metadata extraction failed",
			slog.String("path", path), slog.Any("error", err))

		return nil
	}

	now := e.nowFn().UTC()
	filename := filepath.Base(path)

	photo := &Photo{
		FilePath:       path,
		Filename:       filename,
		Category:       category,
		Title:          TitleFromFilename(filename),
		FileSize:       meta.FileSize,
		Width:          meta.Width,
		Height:         meta.Height,
		FileModifiedAt: meta.FileModifiedAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	return sess.Insert(ctx, photo)
}

// isAutoTitle reports whether title looks machine-generated: empty, or
// exactly what TitleFromFilename would produce from filename. This is
// the single test used to decide whether regenerating a title on
// modification is safe (title preservation/regeneration).
func isAutoTitle(title, filename string) bool {
	return title == "" || title == TitleFromFilename(filename)
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FullSync walks root exactly two levels deep (category/file) and
// reconciles the catalog to match. Per-file faults (stat races, decode
// crashes, constraint races) are logged and counted into Errors without
// aborting the scan; only a catalog-layer fault on the structural
// operations (initial scan, bulk delete, commit) aborts the whole sync.
func (e *Engine) FullSync(ctx context.Context) (SyncStats, error) {
	var stats SyncStats

	info, err := os.Stat(e.root)
	if err != nil {
		return stats, fmt.Errorf("%w: %s", ErrRootMissing, e.root)
	}

	if !info.IsDir() {
		return stats, fmt.Errorf("%w: %s", ErrRootNotDirectory, e.root)
	}

	sess, err := e.store.Begin(ctx)
	if err != nil {
		return stats, err
	}
	defer sess.Close()

	existingRows, err := sess.ScanAll(ctx)
	if err != nil {
		return stats, err
	}

	existingByPath := make(map[string]*Photo, len(existingRows))
	for _, p := range existingRows {
		existingByPath[p.FilePath] = p
	}

	foundPaths := make(map[string]bool)

	categories, err := os.ReadDir(e.root)
	if err != nil {
		return stats, fmt.Errorf("sync: reading root %s: %w", e.root, err)
	}

	for _, categoryEntry := range categories {
		if !categoryEntry.IsDir() {
			continue
		}

		category := categoryEntry.Name()
		categoryPath := filepath.Join(e.root, category)

		files, err := os.ReadDir(categoryPath)
		if err != nil {
			e.logger.Error("skipping unreadable category directory",
				slog.String("category", category), slog.Any("error", err))
			stats.Errors++

			continue
		}

		for _, fileEntry := range files {
			if fileEntry.IsDir() || !isSupportedExtension(fileEntry.Name()) {
				continue
			}

			stats.Scanned++

			rawPath := filepath.Join(categoryPath, fileEntry.Name())

			resolved, err := filepath.EvalSymlinks(rawPath)
			if err != nil {
				e.logger.Warn("skipping file, could not resolve path",
					slog.String("path", rawPath), slog.Any("error", err))
				stats.Errors++

				continue
			}

			foundPaths[resolved] = true

			if err := e.reconcileOne(ctx, sess, existingByPath, resolved, fileEntry.Name(), category, &stats); err != nil {
				e.logger.Error("error reconciling file",
					slog.String("path", resolved), slog.Any("error", err))
				stats.Errors++
			}
		}
	}

	var orphanIDs []string

	for path, photo := range existingByPath {
		if !foundPaths[path] {
			orphanIDs = append(orphanIDs, photo.ID)
		}
	}

	if len(orphanIDs) > 0 {
		if err := sess.DeleteByIDs(ctx, orphanIDs); err != nil {
			return stats, err
		}

		stats.Removed = len(orphanIDs)
	}

	if err := sess.Commit(); err != nil {
		return stats, err
	}

	e.logger.Info("full sync complete",
		slog.Int("scanned", stats.Scanned), slog.Int("added", stats.Added),
		slog.Int("updated", stats.Updated), slog.Int("removed", stats.Removed),
		slog.Int("errors", stats.Errors))

	return stats, nil
}

// reconcileOne applies the insert-or-update decision for a single file
// found during a full sync. Returns an error only for a genuine
// per-file fault; the caller increments stats.Errors on a non-nil
// return, so this function must not mutate stats itself on the error
// path.
func (e *Engine) reconcileOne(
	ctx context.Context, sess *Session, existingByPath map[string]*Photo,
	resolvedPath, filename, category string, stats *SyncStats,
) error {
	meta, err := ExtractMetadata(resolvedPath)
	if err != nil {
		return err
	}

	existing, ok := existingByPath[resolvedPath]
	if !ok {
		now := e.nowFn().UTC()

		photo := &Photo{
			FilePath:       resolvedPath,
			Filename:       filename,
			Category:       category,
			Title:          TitleFromFilename(filename),
			FileSize:       meta.FileSize,
			Width:          meta.Width,
			Height:         meta.Height,
			FileModifiedAt: meta.FileModifiedAt,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if err := sess.Insert(ctx, photo); err != nil {
			return err
		}

		stats.Added++

		return nil
	}

	if existing.FileModifiedAt.Equal(meta.FileModifiedAt) {
		return nil
	}

	titleIsAuto := isAutoTitle(existing.Title, existing.Filename)

	existing.Filename = filename
	existing.Category = category
	existing.FileSize = meta.FileSize
	existing.Width = meta.Width
	existing.Height = meta.Height
	existing.FileModifiedAt = meta.FileModifiedAt
	existing.UpdatedAt = e.nowFn().UTC()

	if titleIsAuto {
		existing.Title = TitleFromFilename(filename)
	}

	if err := sess.Update(ctx, existing); err != nil {
		return err
	}

	stats.Updated++

	return nil
}
