// Package selection maintains the pick-list of previously scanned roots that
// callers choose re-scan targets from.
package selection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spindleworks/spindle/internal/history"
)

// StatusPreviouslyScanned is the default status of a refreshed entry.
const StatusPreviouslyScanned = "previously scanned"

// Entry is one selectable directory. Root entries come straight from scan
// history; IsRoot and RootPath keep child entries representable, but nothing
// populates them yet.
type Entry struct {
	Path        string    `json:"path"`
	Selected    bool      `json:"selected"`
	Status      string    `json:"status"`
	LastScanned time.Time `json:"last_scanned"`
	IsRoot      bool      `json:"is_root"`
	RootPath    string    `json:"root_path"`
}

// RootLister supplies the scanned roots the list is rebuilt from.
type RootLister interface {
	List(ctx context.Context) ([]history.ScannedRoot, error)
}

// Model holds the entry list. Refresh always discards and rebuilds the whole
// list; the history store is the single source of truth and prior selection
// state is deliberately not merged.
type Model struct {
	roots RootLister

	mu      sync.Mutex
	entries []Entry
}

// NewModel creates a selection model backed by the given root lister.
func NewModel(roots RootLister) *Model {
	return &Model{roots: roots}
}

// Refresh rebuilds the entry list from the history store. Every entry starts
// unselected. Entries are deduplicated by path.
func (m *Model) Refresh(ctx context.Context) error {
	roots, err := m.roots.List(ctx)
	if err != nil {
		return fmt.Errorf("listing scanned roots: %w", err)
	}

	seen := make(map[string]bool, len(roots))
	entries := make([]Entry, 0, len(roots))
	for _, r := range roots {
		if seen[r.Path] {
			continue
		}
		seen[r.Path] = true
		entries = append(entries, Entry{
			Path:        r.Path,
			Selected:    false,
			Status:      StatusPreviouslyScanned,
			LastScanned: r.LastScannedAt,
			IsRoot:      true,
			RootPath:    r.Path,
		})
	}

	m.mu.Lock()
	m.entries = entries
	m.mu.Unlock()
	return nil
}

// ToggleAll sets every entry's selected flag.
func (m *Model) ToggleAll(selected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		m.entries[i].Selected = selected
	}
}

// SetSelected sets one entry's selected flag. Returns false if no entry has
// the given path.
func (m *Model) SetSelected(path string, selected bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].Path == path {
			m.entries[i].Selected = selected
			return true
		}
	}
	return false
}

// SelectedPaths returns the paths of selected entries in list order.
func (m *Model) SelectedPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var paths []string
	for _, e := range m.entries {
		if e.Selected {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

// Entries returns a copy of the current entry list.
func (m *Model) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}
