// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes the desired logging configuration.
type Config struct {
	Level          string
	Format         string
	FilePath       string
	FileMaxSizeMB  int
	FileMaxFiles   int
	FileMaxAgeDays int
}

// New builds a logger from cfg. When a file path is configured, output goes
// to stdout and a size-rotated log file; the returned closer owns the file
// writer and may be nil.
func New(cfg Config) (*slog.Logger, io.Closer) {
	writer, closer := buildWriter(cfg)

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(writer, opts)
	} else {
		handler = slog.NewJSONHandler(writer, opts)
	}

	return slog.New(handler), closer
}

// parseLevel converts a string to slog.Level, defaulting to Info.
func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildWriter creates the io.Writer for log output. With a file path
// configured it returns a MultiWriter (stdout + lumberjack) and the
// lumberjack logger as the closer.
func buildWriter(cfg Config) (io.Writer, io.Closer) {
	if cfg.FilePath == "" {
		return os.Stdout, nil
	}

	maxSize := cfg.FileMaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	maxFiles := cfg.FileMaxFiles
	if maxFiles <= 0 {
		maxFiles = 3
	}
	maxAge := cfg.FileMaxAgeDays
	if maxAge <= 0 {
		maxAge = 30
	}

	lj := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    maxSize,
		MaxBackups: maxFiles,
		MaxAge:     maxAge,
	}

	return io.MultiWriter(os.Stdout, lj), lj
}

// ValidLevel returns true if s is a recognized log level.
func ValidLevel(s string) bool {
	switch s {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// ValidFormat returns true if s is a recognized log format.
func ValidFormat(s string) bool {
	switch s {
	case "text", "json":
		return true
	}
	return false
}
