package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_NoFile(t *testing.T) {
	logger, closer := New(Config{Level: "info", Format: "json"})
	if logger == nil {
		t.Fatal("New returned nil logger")
	}
	if closer != nil {
		t.Error("expected nil closer without a file path")
	}
}

func TestNew_WithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spindle.log")
	logger, closer := New(Config{Level: "info", Format: "text", FilePath: path})
	if closer == nil {
		t.Fatal("expected a closer with a file path")
	}
	defer closer.Close() //nolint:errcheck

	logger.Info("hello", "k", "v")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file missing message, got: %s", data)
	}
}

func TestValidLevelAndFormat(t *testing.T) {
	if !ValidLevel("debug") || ValidLevel("verbose") {
		t.Error("ValidLevel misbehaves")
	}
	if !ValidFormat("text") || ValidFormat("xml") {
		t.Error("ValidFormat misbehaves")
	}
}
