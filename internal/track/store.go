package track

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const trackColumns = `id, root_path, path, title, artist, album, album_artist, genre,
	year, track_num, track_total, disc_num, disc_total, format, size_bytes,
	created_at, updated_at`

// Store provides track persistence operations.
type Store struct {
	db *sql.DB
}

// NewStore creates a track store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save persists one track. A track is keyed by its filesystem path: saving a
// path that already exists updates the stored metadata in place, so re-scans
// refresh rather than duplicate.
func (s *Store) Save(ctx context.Context, t *Track) error {
	if t.Path == "" {
		return fmt.Errorf("track path is required")
	}
	if t.RootPath == "" {
		return fmt.Errorf("track root path is required")
	}

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracks (id, root_path, path, title, artist, album, album_artist, genre,
			year, track_num, track_total, disc_num, disc_total, format, size_bytes,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			root_path = excluded.root_path,
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			album_artist = excluded.album_artist,
			genre = excluded.genre,
			year = excluded.year,
			track_num = excluded.track_num,
			track_total = excluded.track_total,
			disc_num = excluded.disc_num,
			disc_total = excluded.disc_total,
			format = excluded.format,
			size_bytes = excluded.size_bytes,
			updated_at = excluded.updated_at
	`,
		t.ID, t.RootPath, t.Path, t.Title, t.Artist, t.Album, t.AlbumArtist, t.Genre,
		t.Year, t.TrackNum, t.TrackTotal, t.DiscNum, t.DiscTotal, t.Format, t.SizeBytes,
		t.CreatedAt.Format(time.RFC3339), t.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving track: %w", err)
	}
	return nil
}

// List returns tracks ordered by path, paged. A limit of zero or less
// returns everything.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks ORDER BY path`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tracks: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var tracks []Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning track row: %w", err)
		}
		tracks = append(tracks, *t)
	}
	return tracks, rows.Err()
}

// ListByRoot returns all tracks imported from the given root directory,
// ordered by path.
func (s *Store) ListByRoot(ctx context.Context, rootPath string) ([]Track, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE root_path = ? ORDER BY path`, rootPath)
	if err != nil {
		return nil, fmt.Errorf("listing tracks by root: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var tracks []Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning track row: %w", err)
		}
		tracks = append(tracks, *t)
	}
	return tracks, rows.Err()
}

// Count returns the total number of stored tracks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting tracks: %w", err)
	}
	return count, nil
}

// CountByRoot returns the number of tracks imported from one root.
func (s *Store) CountByRoot(ctx context.Context, rootPath string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tracks WHERE root_path = ?`, rootPath).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting tracks for root: %w", err)
	}
	return count, nil
}

// DeleteByRoot removes all tracks imported from one root.
func (s *Store) DeleteByRoot(ctx context.Context, rootPath string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tracks WHERE root_path = ?`, rootPath); err != nil {
		return fmt.Errorf("deleting tracks for root: %w", err)
	}
	return nil
}

// scanTrack scans a database row into a Track struct.
func scanTrack(row interface{ Scan(...any) error }) (*Track, error) {
	var t Track
	var createdAt, updatedAt string

	err := row.Scan(
		&t.ID, &t.RootPath, &t.Path, &t.Title, &t.Artist, &t.Album, &t.AlbumArtist, &t.Genre,
		&t.Year, &t.TrackNum, &t.TrackTotal, &t.DiscNum, &t.DiscTotal, &t.Format, &t.SizeBytes,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

// parseTime parses a time string, handling both RFC3339 and SQLite datetime formats.
func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}
