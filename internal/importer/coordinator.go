// Package importer orchestrates import runs: it streams root directories
// through the file scanner, persists each returned record, and records scan
// history, reporting progress along the way.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spindleworks/spindle/internal/event"
	"github.com/spindleworks/spindle/internal/track"
)

// FileScanner discovers the audio files under one root directory.
type FileScanner interface {
	Scan(ctx context.Context, root string) ([]track.Track, error)
}

// TrackSaver persists one record at a time.
type TrackSaver interface {
	Save(ctx context.Context, t *track.Track) error
}

// HistoryRecorder marks a root directory as scanned.
type HistoryRecorder interface {
	Record(ctx context.Context, path string) error
}

// Coordinator runs imports. Only one run is active at a time; progress and
// status are observable through Status snapshots and bus events.
type Coordinator struct {
	scanner FileScanner
	tracks  TrackSaver
	history HistoryRecorder
	bus     *event.Bus
	logger  *slog.Logger

	mu      sync.Mutex
	current *Run
	cancel  context.CancelFunc
}

// NewCoordinator creates an import coordinator.
func NewCoordinator(scanner FileScanner, tracks TrackSaver, history HistoryRecorder, bus *event.Bus, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		scanner: scanner,
		tracks:  tracks,
		history: history,
		bus:     bus,
		logger:  logger,
	}
}

// Run starts an import over the given directories, in order. It returns an
// error if a run is already active or no directories were given; otherwise
// the import proceeds on a background goroutine and the returned snapshot is
// safe to read without synchronization.
func (c *Coordinator) Run(ctx context.Context, dirs []string) (*Run, error) {
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no directories to scan")
	}

	c.mu.Lock()
	if c.current != nil && c.current.Status == StatusRunning {
		c.mu.Unlock()
		return nil, fmt.Errorf("import already in progress")
	}

	run := &Run{
		ID:        uuid.New().String(),
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
		TotalDirs: len(dirs),
		Message:   "starting",
	}

	// The run outlives the caller (e.g. an HTTP request); detach from the
	// caller's cancellation and install our own.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.current = run
	c.cancel = cancel
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.bus.Publish(event.Event{
		Type: event.ScanStarted,
		Data: map[string]any{"run_id": run.ID, "total_dirs": run.TotalDirs},
	})

	ordered := make([]string, len(dirs))
	copy(ordered, dirs)
	go c.runImport(runCtx, run, ordered)

	return snapshot, nil
}

// Status returns a snapshot of the current or most recent run, or nil if no
// run has happened yet. The returned value is a copy.
func (c *Coordinator) Status() *Run {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	return c.snapshotLocked()
}

// Cancel requests cooperative cancellation of the active run. The run stops
// between records; whatever was persisted stays persisted.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.Status == StatusRunning && c.cancel != nil {
		c.cancel()
	}
}

func (c *Coordinator) runImport(ctx context.Context, run *Run, dirs []string) {
	defer func() {
		c.mu.Lock()
		now := time.Now().UTC()
		run.CompletedAt = &now
		if run.Status == StatusRunning {
			run.Status = StatusCompleted
			run.Progress = 1.0
			run.Message = "scan completed"
		}
		data := map[string]any{
			"run_id":            run.ID,
			"status":            run.Status,
			"dirs_processed":    run.DirsProcessed,
			"records_persisted": run.RecordsPersisted,
			"records_failed":    run.RecordsFailed,
		}
		c.mu.Unlock()

		c.bus.Publish(event.Event{Type: event.ScanCompleted, Data: data})
	}()

	n := len(dirs)
	for i, dir := range dirs {
		if ctx.Err() != nil {
			c.markCanceled(run)
			return
		}

		name := filepath.Base(dir)
		c.setMessage(run, fmt.Sprintf("scanning %s", name))

		records, err := c.scanner.Scan(ctx, dir)
		if err != nil {
			if ctx.Err() != nil {
				c.markCanceled(run)
				return
			}
			// One bad directory never aborts the run.
			msg := fmt.Sprintf("error scanning %s: %v", name, err)
			c.logger.Warn("directory scan failed", "path", dir, "error", err)
			c.mu.Lock()
			run.DirErrors = append(run.DirErrors, msg)
			run.Message = msg
			run.DirsProcessed++
			c.advanceProgressLocked(run, float64(i+1)/float64(n))
			c.mu.Unlock()
			c.bus.Publish(event.Event{
				Type: event.ScanDirError,
				Data: map[string]any{"run_id": run.ID, "path": dir, "message": msg},
			})
			continue
		}

		m := len(records)
		for j := range records {
			if ctx.Err() != nil {
				c.markCanceled(run)
				return
			}

			rec := records[j]
			if err := c.tracks.Save(ctx, &rec); err != nil {
				// Same containment policy as directory failures: count,
				// log, keep going.
				c.logger.Warn("persisting record failed", "path", rec.Path, "error", err)
				c.mu.Lock()
				run.RecordsFailed++
				c.mu.Unlock()
			} else {
				c.mu.Lock()
				run.RecordsPersisted++
				c.mu.Unlock()
			}

			c.setProgress(run, (float64(i)+float64(j+1)/float64(m))/float64(n))
		}

		if err := c.history.Record(ctx, dir); err != nil {
			c.logger.Warn("recording scanned root failed", "path", dir, "error", err)
			c.mu.Lock()
			run.DirErrors = append(run.DirErrors, fmt.Sprintf("error recording %s: %v", name, err))
			c.mu.Unlock()
		}

		c.mu.Lock()
		run.DirsProcessed++
		c.advanceProgressLocked(run, float64(i+1)/float64(n))
		c.mu.Unlock()
	}
}

func (c *Coordinator) markCanceled(run *Run) {
	c.mu.Lock()
	run.Status = StatusCanceled
	run.Message = "scan canceled"
	c.mu.Unlock()
	c.logger.Info("import canceled", "run_id", run.ID)
}

func (c *Coordinator) setMessage(run *Run, msg string) {
	c.mu.Lock()
	run.Message = msg
	progress := run.Progress
	c.mu.Unlock()

	c.bus.Publish(event.Event{
		Type: event.ScanProgress,
		Data: map[string]any{"run_id": run.ID, "message": msg, "progress": progress},
	})
}

func (c *Coordinator) setProgress(run *Run, p float64) {
	c.mu.Lock()
	c.advanceProgressLocked(run, p)
	progress := run.Progress
	msg := run.Message
	c.mu.Unlock()

	c.bus.Publish(event.Event{
		Type: event.ScanProgress,
		Data: map[string]any{"run_id": run.ID, "message": msg, "progress": progress},
	})
}

// advanceProgressLocked moves progress forward, never backward, and keeps it
// inside [0,1]. Callers hold c.mu.
func (c *Coordinator) advanceProgressLocked(run *Run, p float64) {
	if p > 1.0 {
		p = 1.0
	}
	if p > run.Progress {
		run.Progress = p
	}
}

func (c *Coordinator) snapshotLocked() *Run {
	snapshot := *c.current
	snapshot.DirErrors = append([]string(nil), c.current.DirErrors...)
	return &snapshot
}
