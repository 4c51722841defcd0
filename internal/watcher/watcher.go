// Package watcher triggers rescans when scanned root directories change on
// disk.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spindleworks/spindle/internal/event"
)

// RootLister supplies the scanned root paths to watch.
type RootLister interface {
	Paths(ctx context.Context) ([]string, error)
}

// ScanFunc starts a rescan of the given roots. It may refuse (e.g. a run is
// already active); the watcher just logs and tries again on the next change.
type ScanFunc func(ctx context.Context, roots []string) error

// Service watches scanned roots for entry creation, removal, and renames,
// coalescing bursts into a single rescan of the affected roots.
type Service struct {
	scanFn        ScanFunc
	roots         RootLister
	bus           *event.Bus
	logger        *slog.Logger
	debounce      time.Duration
	refreshPeriod time.Duration

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	watching map[string]bool
	pending  map[string]bool
}

// NewService creates a filesystem watcher service.
func NewService(scanFn ScanFunc, roots RootLister, bus *event.Bus, logger *slog.Logger, debounce time.Duration) *Service {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Service{
		scanFn:        scanFn,
		roots:         roots,
		bus:           bus,
		logger:        logger.With("component", "fs-watcher"),
		debounce:      debounce,
		refreshPeriod: 5 * time.Minute,
		watching:      make(map[string]bool),
		pending:       make(map[string]bool),
	}
}

// SetRefreshPeriod overrides how often the watch set is resynchronized with
// the history store (for testing).
func (s *Service) SetRefreshPeriod(d time.Duration) {
	s.refreshPeriod = d
}

// Start blocks until ctx is canceled. It watches every scanned root and
// dispatches debounced rescans as their contents change.
func (s *Service) Start(ctx context.Context) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Error("fsnotify unavailable, watcher disabled", "error", err)
		return
	}
	defer w.Close() //nolint:errcheck

	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
	s.refreshWatchPaths(ctx)

	s.logger.Info("filesystem watcher starting")

	refreshTicker := time.NewTicker(s.refreshPeriod)
	defer refreshTicker.Stop()

	// Debounce timer for coalescing change events into a single rescan.
	// Starts stopped; reset on each relevant event.
	debounceTimer := time.NewTimer(0)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("filesystem watcher stopping")
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			s.handleFSEvent(ev, debounceTimer)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Error("fsnotify error", "error", err)

		case <-debounceTimer.C:
			roots := s.takePending()
			if len(roots) == 0 {
				continue
			}
			s.logger.Info("debounce elapsed, rescanning changed roots", "roots", roots)
			if err := s.scanFn(ctx, roots); err != nil {
				s.logger.Warn("watcher-triggered rescan not started", "error", err)
			}

		case <-refreshTicker.C:
			s.refreshWatchPaths(ctx)
		}
	}
}

func (s *Service) handleFSEvent(ev fsnotify.Event, debounceTimer *time.Timer) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}

	// Watches are non-recursive: events name direct children of a root.
	root := filepath.Dir(ev.Name)
	s.mu.Lock()
	watched := s.watching[root]
	if watched {
		s.pending[root] = true
	}
	s.mu.Unlock()
	if !watched {
		return
	}

	s.logger.Debug("change in scanned root", "path", ev.Name, "op", ev.Op.String(), "root", root)
	s.bus.Publish(event.Event{
		Type: event.FSDirChanged,
		Data: map[string]any{"path": ev.Name, "root": root, "op": ev.Op.String()},
	})

	if !debounceTimer.Stop() {
		select {
		case <-debounceTimer.C:
		default:
		}
	}
	debounceTimer.Reset(s.debounce)
}

// takePending returns and clears the set of roots with unprocessed changes.
func (s *Service) takePending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	roots := make([]string, 0, len(s.pending))
	for r := range s.pending {
		roots = append(roots, r)
	}
	s.pending = make(map[string]bool)
	return roots
}

// refreshWatchPaths synchronizes the watch set with the current scan history.
func (s *Service) refreshWatchPaths(ctx context.Context) {
	paths, err := s.roots.Paths(ctx)
	if err != nil {
		s.logger.Error("listing roots for watch refresh", "error", err)
		return
	}

	wanted := make(map[string]bool, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			s.logger.Warn("scanned root not watchable", "path", p, "error", err)
			continue
		}
		wanted[p] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for path := range s.watching {
		if !wanted[path] {
			if err := s.watcher.Remove(path); err != nil {
				s.logger.Warn("removing watch", "path", path, "error", err)
			}
			delete(s.watching, path)
			delete(s.pending, path)
			s.logger.Info("stopped watching root", "path", path)
		}
	}

	for path := range wanted {
		if s.watching[path] {
			continue
		}
		if err := s.watcher.Add(path); err != nil {
			s.logger.Error("watching root failed", "path", path, "error", err)
			continue
		}
		s.watching[path] = true
		s.logger.Info("watching root", "path", path)
	}
}
