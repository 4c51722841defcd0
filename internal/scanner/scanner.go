// Package scanner discovers audio files under a root directory and reads
// their metadata into track records.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"golang.org/x/time/rate"

	"github.com/spindleworks/spindle/internal/track"
)

// audioExtensions is the set of file extensions treated as audio.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".aac":  true,
	".ogg":  true,
	".opus": true,
	".wav":  true,
	".wma":  true,
	".aiff": true,
	".ape":  true,
	".wv":   true,
}

// Service walks root directories and produces track records.
type Service struct {
	logger     *slog.Logger
	exclusions map[string]bool
	limiter    *rate.Limiter
}

// NewService creates a scanner. exclusions are directory names skipped during
// the walk (case-insensitive). maxFilesPerSecond throttles tag parsing;
// zero means unlimited.
func NewService(logger *slog.Logger, exclusions []string, maxFilesPerSecond int) *Service {
	excMap := make(map[string]bool, len(exclusions))
	for _, e := range exclusions {
		excMap[strings.ToLower(e)] = true
	}
	s := &Service{
		logger:     logger,
		exclusions: excMap,
	}
	if maxFilesPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(maxFilesPerSecond), 1)
	}
	return s
}

// Scan walks one root directory and returns a record for every audio file
// found, in walk order. It fails only when the root itself is unusable;
// unreadable subtrees and unparseable files are logged and degraded, not
// fatal.
func (s *Service) Scan(ctx context.Context, root string) ([]track.Track, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", root)
	}

	var tracks []track.Track
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if walkErr != nil {
			s.logger.Warn("skipping unreadable entry", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if strings.HasPrefix(name, ".") || s.exclusions[strings.ToLower(name)] {
				return fs.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(name))
		if strings.HasPrefix(name, ".") || !audioExtensions[ext] {
			return nil
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		tracks = append(tracks, s.readTrack(root, path, ext))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	return tracks, nil
}

// readTrack builds a record for one audio file. When tag parsing fails the
// record falls back to filename-derived metadata so the file still imports.
func (s *Service) readTrack(root, path, ext string) track.Track {
	t := track.Track{
		RootPath: root,
		Path:     path,
		Title:    titleFromFilename(path),
		Format:   strings.TrimPrefix(ext, "."),
	}

	if info, err := os.Stat(path); err == nil {
		t.SizeBytes = info.Size()
	}

	f, err := os.Open(path) //nolint:gosec // G304: path comes from walking a user-chosen root
	if err != nil {
		s.logger.Warn("cannot open audio file, using filename metadata", "path", path, "error", err)
		return t
	}
	defer f.Close() //nolint:errcheck

	meta, err := tag.ReadFrom(f)
	if err != nil {
		s.logger.Debug("no readable tags, using filename metadata", "path", path, "error", err)
		return t
	}

	if title := cleanString(meta.Title()); title != "" {
		t.Title = title
	}
	t.Artist = cleanString(meta.Artist())
	t.Album = cleanString(meta.Album())
	t.AlbumArtist = cleanString(meta.AlbumArtist())
	t.Genre = cleanString(meta.Genre())
	t.Year = meta.Year()
	t.TrackNum, t.TrackTotal = meta.Track()
	t.DiscNum, t.DiscTotal = meta.Disc()

	return t
}

// titleFromFilename derives a display title from the file's base name.
func titleFromFilename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// cleanString trims and collapses whitespace in tag values.
func cleanString(s string) string {
	fields := strings.Fields(strings.TrimSpace(s))
	return strings.Join(fields, " ")
}
