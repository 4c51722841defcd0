package selection

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/spindleworks/spindle/internal/history"
)

// fakeLister returns canned roots, optionally with duplicates.
type fakeLister struct {
	roots []history.ScannedRoot
	err   error
}

func (f *fakeLister) List(ctx context.Context) ([]history.ScannedRoot, error) {
	return f.roots, f.err
}

func root(path string) history.ScannedRoot {
	return history.ScannedRoot{Path: path, LastScannedAt: time.Now().UTC()}
}

func TestRefresh_RebuildsFromStore(t *testing.T) {
	lister := &fakeLister{roots: []history.ScannedRoot{root("/x"), root("/y")}}
	m := NewModel(lister)

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	entries := m.Entries()
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	for i, want := range []string{"/x", "/y"} {
		e := entries[i]
		if e.Path != want {
			t.Errorf("entry %d path = %q, want %q", i, e.Path, want)
		}
		if e.Selected {
			t.Errorf("entry %q selected after refresh, want unselected", e.Path)
		}
		if e.Status != StatusPreviouslyScanned {
			t.Errorf("entry %q status = %q", e.Path, e.Status)
		}
		if !e.IsRoot || e.RootPath != e.Path {
			t.Errorf("entry %q not marked as root", e.Path)
		}
	}
}

func TestRefresh_DiscardsSelectionState(t *testing.T) {
	lister := &fakeLister{roots: []history.ScannedRoot{root("/x")}}
	m := NewModel(lister)
	ctx := context.Background()

	if err := m.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	m.ToggleAll(true)
	if err := m.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if paths := m.SelectedPaths(); len(paths) != 0 {
		t.Errorf("selection survived refresh: %v", paths)
	}
}

func TestRefresh_DeduplicatesByPath(t *testing.T) {
	lister := &fakeLister{roots: []history.ScannedRoot{root("/x"), root("/x"), root("/y")}}
	m := NewModel(lister)

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if entries := m.Entries(); len(entries) != 2 {
		t.Errorf("len = %d, want 2 after dedup", len(entries))
	}
}

func TestRefresh_PropagatesError(t *testing.T) {
	m := NewModel(&fakeLister{err: fmt.Errorf("db closed")})
	if err := m.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestToggleAllAndSelectedPaths(t *testing.T) {
	lister := &fakeLister{roots: []history.ScannedRoot{root("/a"), root("/b"), root("/c")}}
	m := NewModel(lister)
	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	m.ToggleAll(true)
	paths := m.SelectedPaths()
	if len(paths) != 3 {
		t.Fatalf("len = %d, want 3", len(paths))
	}
	for i, want := range []string{"/a", "/b", "/c"} {
		if paths[i] != want {
			t.Errorf("paths[%d] = %q, want %q (list order)", i, paths[i], want)
		}
	}

	m.ToggleAll(false)
	if paths := m.SelectedPaths(); len(paths) != 0 {
		t.Errorf("SelectedPaths after deselect = %v, want empty", paths)
	}
}

func TestSetSelected(t *testing.T) {
	lister := &fakeLister{roots: []history.ScannedRoot{root("/a"), root("/b")}}
	m := NewModel(lister)
	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if !m.SetSelected("/b", true) {
		t.Fatal("SetSelected returned false for known path")
	}
	if m.SetSelected("/nope", true) {
		t.Error("SetSelected returned true for unknown path")
	}
	paths := m.SelectedPaths()
	if len(paths) != 1 || paths[0] != "/b" {
		t.Errorf("SelectedPaths = %v, want [/b]", paths)
	}
}

func TestRefresh_EmptyStoreYieldsEmptyList(t *testing.T) {
	m := NewModel(&fakeLister{})
	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if entries := m.Entries(); len(entries) != 0 {
		t.Errorf("len = %d, want 0", len(entries))
	}
}
