package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Scanner  ScannerConfig  `yaml:"scanner"`
	Watcher  WatcherConfig  `yaml:"watcher"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	BasePath string `yaml:"base_path"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScannerConfig holds file scanner settings.
type ScannerConfig struct {
	// Exclusions are directory names skipped during a walk (case-insensitive).
	Exclusions []string `yaml:"exclusions"`
	// MaxFilesPerSecond throttles tag parsing. Zero means unlimited.
	MaxFilesPerSecond int `yaml:"max_files_per_second"`
}

// WatcherConfig holds filesystem watcher settings.
type WatcherConfig struct {
	Enabled         bool `yaml:"enabled"`
	DebounceSeconds int  `yaml:"debounce_seconds"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"`
	FilePath       string `yaml:"file_path"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxFiles   int    `yaml:"file_max_files"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8820,
			BasePath: "",
		},
		Database: DatabaseConfig{
			Path: "/data/spindle.db",
		},
		Scanner: ScannerConfig{},
		Watcher: WatcherConfig{
			Enabled:         true,
			DebounceSeconds: 2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from trusted config/env
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("SPINDLE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("SPINDLE_BASE_PATH"); v != "" {
		c.Server.BasePath = v
	}
	if v := os.Getenv("SPINDLE_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("SPINDLE_SCAN_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scanner.MaxFilesPerSecond = n
		}
	}
	if v := os.Getenv("SPINDLE_WATCHER"); v != "" {
		c.Watcher.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("SPINDLE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SPINDLE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("SPINDLE_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Scanner.MaxFilesPerSecond < 0 {
		return fmt.Errorf("max_files_per_second must not be negative")
	}
	if c.Watcher.DebounceSeconds <= 0 {
		c.Watcher.DebounceSeconds = 2
	}
	c.Server.BasePath = strings.TrimRight(c.Server.BasePath, "/")
	return nil
}
