// SPDX-License-Identifier: MIT

// Package config loads the daemon configuration from an optional YAML file
// with environment variable overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the fully resolved daemon configuration.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string `yaml:"listen"`

	// DataDir is the root directory for all durable state.
	DataDir string `yaml:"dataDir"`

	// CatalogPath is an optional YAML overlay for the module capability
	// catalog. Empty means built-in defaults only.
	CatalogPath string `yaml:"catalogPath"`

	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `yaml:"logLevel"`

	Redis     RedisConfig     `yaml:"redis"`
	Tracing   TracingConfig   `yaml:"tracing"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// RedisConfig configures the trouble-code result cache backend. When
// disabled the daemon falls back to an in-process cache.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ExporterType string  `yaml:"exporterType"`
	Endpoint     string  `yaml:"endpoint"`
	Environment  string  `yaml:"environment"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// RateLimitConfig configures the global API rate limiter.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
}

// Defaults returns the configuration used when no file and no environment
// overrides are present.
func Defaults() Config {
	return Config{
		ListenAddr: ":8080",
		DataDir:    "/var/lib/ecuscope",
		LogLevel:   "info",
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			ExporterType: "grpc",
			Endpoint:     "localhost:4317",
			Environment:  "production",
			SamplingRate: 1.0,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 600,
		},
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load resolves the configuration: defaults, then the YAML file at path
// (skipped when path is empty or the file does not exist), then environment
// overrides, then validation.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
		switch {
		case os.IsNotExist(err):
			// optional file
		case err != nil:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen address must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("config: data directory must not be empty")
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log level %q", c.LogLevel)
	}
	if c.Tracing.Enabled {
		switch c.Tracing.ExporterType {
		case "grpc", "http":
		default:
			return fmt.Errorf("config: invalid tracing exporter %q (supported: grpc, http)", c.Tracing.ExporterType)
		}
		if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
			return fmt.Errorf("config: sampling rate %f out of range [0,1]", c.Tracing.SamplingRate)
		}
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("config: rate limit requests per minute must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("config: shutdown timeout must be positive")
	}
	return nil
}

// BadgerDir returns the directory for the progress store.
func (c *Config) BadgerDir() string {
	return filepath.Join(c.DataDir, "progress")
}

// HistoryPath returns the SQLite database file for session history.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// SnapshotPath returns the active-session snapshot file.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, "session.json")
}
