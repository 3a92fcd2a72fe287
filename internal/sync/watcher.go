package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FsWatcher abstracts filesystem event monitoring. Satisfied by
// *fsnotify.Watcher; tests inject a fake implementation.
type FsWatcher interface {
	Add(name string) error
	Close() error
	Events() <-chan fsnotify.Event
	Errors() <-chan error
}

// fsnotifyWatcher adapts *fsnotify.Watcher to FsWatcher. fsnotify exposes
// Events and Errors as public fields, not methods.
type fsnotifyWatcher struct {
	w *fsnotify.Watcher
}

func (fw *fsnotifyWatcher) Add(name string) error         { return fw.w.Add(name) }
func (fw *fsnotifyWatcher) Close() error                  { return fw.w.Close() }
func (fw *fsnotifyWatcher) Events() <-chan fsnotify.Event { return fw.w.Events }
func (fw *fsnotifyWatcher) Errors() <-chan error          { return fw.w.Errors }

// Watcher subscribes to OS-native filesystem change notifications rooted
// at root, recursively to category depth only (root/category/file — the
// catalog never indexes deeper). It emits FileEvents for files with a
// supported extension and ignores directory events other than to manage
// watches on newly created category directories.
type Watcher struct {
	root           string
	logger         *slog.Logger
	watcherFactory func() (FsWatcher, error)
	droppedEvents  atomic.Int64
	active         atomic.Bool
}

// NewWatcher creates a Watcher rooted at root.
func NewWatcher(root string, logger *slog.Logger) *Watcher {
	return &Watcher{
		root:   root,
		logger: logger,
		watcherFactory: func() (FsWatcher, error) {
			w, err := fsnotify.NewWatcher()
			if err != nil {
				return nil, err
			}

			return &fsnotifyWatcher{w: w}, nil
		},
	}
}

// Active reports whether the watcher's event loop is currently running,
// used by the health surface's liveness probe.
func (w *Watcher) Active() bool {
	return w.active.Load()
}

// DroppedEvents returns how many events were discarded because the
// destination channel was full. The periodic full-sync heals any gap
// this leaves in the catalog.
func (w *Watcher) DroppedEvents() int64 {
	return w.droppedEvents.Load()
}

// Watch blocks until ctx is canceled, emitting FileEvents to events.
// Exceptions inside the emission path are caught and logged; the
// watcher never exits because of a single bad event — only context
// cancellation or a fatal setup failure ends the loop.
func (w *Watcher) Watch(ctx context.Context, events chan<- FileEvent) error {
	watcher, err := w.watcherFactory()
	if err != nil {
		return fmt.Errorf("sync: creating filesystem watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addWatches(watcher); err != nil {
		return fmt.Errorf("sync: adding initial watches: %w", err)
	}

	w.active.Store(true)
	defer w.active.Store(false)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events():
			if !ok {
				return nil
			}

			w.handleFsEvent(ctx, watcher, ev, events)

		case err, ok := <-watcher.Errors():
			if !ok {
				return nil
			}

			w.logger.Error("filesystem watcher error", slog.Any("error", err))
		}
	}
}

// addWatches registers the root directory and every existing category
// directory directly beneath it. Sub-subdirectories are never watched;
// the catalog only indexes root/category/file.
func (w *Watcher) addWatches(watcher FsWatcher) error {
	if err := watcher.Add(w.root); err != nil {
		return fmt.Errorf("sync: watching root %s: %w", w.root, err)
	}

	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("sync: reading root %s: %w", w.root, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		categoryPath := filepath.Join(w.root, entry.Name())
		if err := watcher.Add(categoryPath); err != nil {
			w.logger.Warn("failed to watch category directory",
				slog.String("path", categoryPath), slog.Any("error", err))
		}
	}

	return nil
}

func (w *Watcher) handleFsEvent(ctx context.Context, watcher FsWatcher, ev fsnotify.Event, events chan<- FileEvent) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("recovered from panic handling filesystem event",
				slog.String("path", ev.Name), slog.Any("panic", r))
		}
	}()

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.watchIfNewCategory(watcher, ev.Name)
			return
		}
	}

	kind := classifyOp(ev.Op)
	if kind == EventUnknown {
		return
	}

	if !isSupportedExtension(ev.Name) {
		return
	}

	fileEvent := FileEvent{
		Kind:       kind,
		Path:       ev.Name,
		Category:   categoryOf(w.root, ev.Name),
		ObservedAt: time.Now().UTC(),
	}

	w.trySend(ctx, events, fileEvent)
}

// watchIfNewCategory adds a watch for a directory created directly under
// root, so photos dropped into a brand-new category are still seen.
func (w *Watcher) watchIfNewCategory(watcher FsWatcher, dirPath string) {
	if filepath.Dir(dirPath) != w.root {
		return
	}

	if err := watcher.Add(dirPath); err != nil {
		w.logger.Warn("failed to watch new category directory",
			slog.String("path", dirPath), slog.Any("error", err))
	}
}

// classifyOp maps an fsnotify operation to a FileEvent kind. Chmod-only
// events carry no useful signal and are ignored.
func classifyOp(op fsnotify.Op) EventKind {
	switch {
	case op.Has(fsnotify.Create):
		return EventCreated
	case op.Has(fsnotify.Write):
		return EventModified
	case op.Has(fsnotify.Remove):
		return EventDeleted
	case op.Has(fsnotify.Rename):
		return EventMoved
	default:
		return EventUnknown
	}
}

// trySend is a non-blocking send: if the channel is full the event is
// dropped and counted, and the next periodic full-sync heals the gap.
func (w *Watcher) trySend(ctx context.Context, events chan<- FileEvent, ev FileEvent) {
	select {
	case events <- ev:
	case <-ctx.Done():
	default:
		w.droppedEvents.Add(1)
		w.logger.Warn("event channel full, dropping event",
			slog.String("path", ev.Path), slog.String("kind", ev.Kind.String()))
	}
}

// categoryOf derives the category for path: the first path segment
// relative to root; if path is not under root, the immediate parent
// directory name; if that is still empty, "uncategorized".
func categoryOf(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err == nil && !strings.HasPrefix(rel, "..") {
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) > 0 && parts[0] != "" {
			return parts[0]
		}
	}

	parent := filepath.Base(filepath.Dir(path))
	if parent == "" || parent == "." || parent == string(filepath.Separator) {
		return "uncategorized"
	}

	return parent
}
