package track

import (
	"context"
	"database/sql"
	"testing"

	"github.com/spindleworks/spindle/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleTrack(path string) *Track {
	return &Track{
		RootPath: "/music",
		Path:     path,
		Title:    "Song",
		Artist:   "Band",
		Album:    "Album",
		Format:   "flac",
	}
}

func TestSave_AssignsIDAndTimestamps(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	tr := sampleTrack("/music/a/01.flac")
	if err := store.Save(ctx, tr); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if tr.ID == "" {
		t.Error("ID not assigned")
	}
	if tr.CreatedAt.IsZero() || tr.UpdatedAt.IsZero() {
		t.Error("timestamps not assigned")
	}
}

func TestSave_RequiresPathAndRoot(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	if err := store.Save(ctx, &Track{RootPath: "/music"}); err == nil {
		t.Error("expected error for missing path")
	}
	if err := store.Save(ctx, &Track{Path: "/music/x.mp3"}); err == nil {
		t.Error("expected error for missing root path")
	}
}

func TestSave_UpsertsByPath(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	first := sampleTrack("/music/a/01.flac")
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second := sampleTrack("/music/a/01.flac")
	second.Title = "Song (Remaster)"
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save (upsert): %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("Count = %d, want 1 after upsert", count)
	}

	got, err := store.ListByRoot(ctx, "/music")
	if err != nil {
		t.Fatalf("ListByRoot: %v", err)
	}
	if got[0].Title != "Song (Remaster)" {
		t.Errorf("Title = %q, want updated title", got[0].Title)
	}
	if got[0].ID != first.ID {
		t.Errorf("ID changed on upsert: %q -> %q", first.ID, got[0].ID)
	}
}

func TestListAndCountByRoot(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	a := sampleTrack("/music/a/01.flac")
	b := sampleTrack("/music/a/02.flac")
	c := sampleTrack("/other/x.mp3")
	c.RootPath = "/other"
	for _, tr := range []*Track{a, b, c} {
		if err := store.Save(ctx, tr); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := store.ListByRoot(ctx, "/music")
	if err != nil {
		t.Fatalf("ListByRoot: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Path != "/music/a/01.flac" || got[1].Path != "/music/a/02.flac" {
		t.Errorf("unexpected order: %q, %q", got[0].Path, got[1].Path)
	}

	n, err := store.CountByRoot(ctx, "/other")
	if err != nil {
		t.Fatalf("CountByRoot: %v", err)
	}
	if n != 1 {
		t.Errorf("CountByRoot = %d, want 1", n)
	}
}

func TestList_Paging(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	for _, p := range []string{"/music/1.mp3", "/music/2.mp3", "/music/3.mp3"} {
		if err := store.Save(ctx, sampleTrack(p)); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	page, err := store.List(ctx, 2, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("len = %d, want 2", len(page))
	}
	if page[0].Path != "/music/2.mp3" {
		t.Errorf("first of page = %q, want /music/2.mp3", page[0].Path)
	}

	all, err := store.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len = %d, want 3", len(all))
	}
}

func TestDeleteByRoot(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	if err := store.Save(ctx, sampleTrack("/music/1.mp3")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	other := sampleTrack("/other/2.mp3")
	other.RootPath = "/other"
	if err := store.Save(ctx, other); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := store.DeleteByRoot(ctx, "/music"); err != nil {
		t.Fatalf("DeleteByRoot: %v", err)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("Count = %d, want 1", count)
	}
}
