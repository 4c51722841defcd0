// Package history tracks which root directories have been scanned.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Service provides scan history operations.
type Service struct {
	db *sql.DB
}

// NewService creates a history service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Record marks a root directory as scanned, creating the row on first scan
// and bumping last_scanned_at on every later one. The stored track count is
// recomputed from the tracks table.
func (s *Service) Record(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("root path is required")
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scanned_roots (path, first_scanned_at, last_scanned_at, track_count)
		VALUES (?, ?, ?, (SELECT COUNT(*) FROM tracks WHERE root_path = ?))
		ON CONFLICT(path) DO UPDATE SET
			last_scanned_at = excluded.last_scanned_at,
			track_count = excluded.track_count
	`, path, now, now, path)
	if err != nil {
		return fmt.Errorf("recording scanned root: %w", err)
	}
	return nil
}

// List returns all scanned roots ordered by path.
func (s *Service) List(ctx context.Context) ([]ScannedRoot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, first_scanned_at, last_scanned_at, track_count
		FROM scanned_roots ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("listing scanned roots: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var roots []ScannedRoot
	for rows.Next() {
		var r ScannedRoot
		var first, last string
		if err := rows.Scan(&r.Path, &first, &last, &r.TrackCount); err != nil {
			return nil, fmt.Errorf("scanning root row: %w", err)
		}
		r.FirstScannedAt = parseTime(first)
		r.LastScannedAt = parseTime(last)
		roots = append(roots, r)
	}
	return roots, rows.Err()
}

// Paths returns the scanned root paths in List order.
func (s *Service) Paths(ctx context.Context) ([]string, error) {
	roots, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(roots))
	for i, r := range roots {
		paths[i] = r.Path
	}
	return paths, nil
}

// DeleteAll removes every imported track and every scanned root in a single
// transaction. Irreversible.
func (s *Service) DeleteAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM tracks`); err != nil {
		return fmt.Errorf("deleting tracks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM scanned_roots`); err != nil {
		return fmt.Errorf("deleting scanned roots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing clear: %w", err)
	}
	return nil
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
