// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecuscope/ecuscope/internal/log"
)

// Environment variables all share the ECUSCOPE_ prefix and override the
// file configuration key by key.

func applyEnv(cfg *Config) {
	logger := log.WithComponent("config")

	cfg.ListenAddr = parseString(logger, "ECUSCOPE_LISTEN", cfg.ListenAddr)
	cfg.DataDir = parseString(logger, "ECUSCOPE_DATA_DIR", cfg.DataDir)
	cfg.CatalogPath = parseString(logger, "ECUSCOPE_CATALOG", cfg.CatalogPath)
	cfg.LogLevel = parseString(logger, "ECUSCOPE_LOG_LEVEL", cfg.LogLevel)

	cfg.Redis.Enabled = parseBool(logger, "ECUSCOPE_REDIS_ENABLED", cfg.Redis.Enabled)
	cfg.Redis.Addr = parseString(logger, "ECUSCOPE_REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = parseString(logger, "ECUSCOPE_REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = parseInt(logger, "ECUSCOPE_REDIS_DB", cfg.Redis.DB)

	cfg.Tracing.Enabled = parseBool(logger, "ECUSCOPE_TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.ExporterType = parseString(logger, "ECUSCOPE_TRACING_EXPORTER", cfg.Tracing.ExporterType)
	cfg.Tracing.Endpoint = parseString(logger, "ECUSCOPE_TRACING_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.Environment = parseString(logger, "ECUSCOPE_TRACING_ENV", cfg.Tracing.Environment)

	cfg.RateLimit.Enabled = parseBool(logger, "ECUSCOPE_RATELIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.RequestsPerMinute = parseInt(logger, "ECUSCOPE_RATELIMIT_RPM", cfg.RateLimit.RequestsPerMinute)

	cfg.ShutdownTimeout = parseDuration(logger, "ECUSCOPE_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
}

func parseString(logger zerolog.Logger, key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	if strings.Contains(strings.ToLower(key), "password") {
		logger.Debug().
			Str(log.FieldKey, key).
			Bool("sensitive", true).
			Msg("using environment variable")
	} else {
		logger.Debug().
			Str(log.FieldKey, key).
			Str("value", value).
			Msg("using environment variable")
	}
	return value
}

func parseInt(logger zerolog.Logger, key string, defaultValue int) int {
	v, exists := os.LookupEnv(key)
	if !exists || v == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn().
			Str(log.FieldKey, key).
			Str("value", v).
			Int("default", defaultValue).
			Msg("invalid integer in environment, using default")
		return defaultValue
	}
	return i
}

func parseBool(logger zerolog.Logger, key string, defaultValue bool) bool {
	v, exists := os.LookupEnv(key)
	if !exists || v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn().
			Str(log.FieldKey, key).
			Str("value", v).
			Bool("default", defaultValue).
			Msg("invalid boolean in environment, using default")
		return defaultValue
	}
	return b
}

func parseDuration(logger zerolog.Logger, key string, defaultValue time.Duration) time.Duration {
	v, exists := os.LookupEnv(key)
	if !exists || v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn().
			Str(log.FieldKey, key).
			Str("value", v).
			Dur("default", defaultValue).
			Msg("invalid duration in environment, using default")
		return defaultValue
	}
	return d
}
