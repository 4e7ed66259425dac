// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecuscope/ecuscope/internal/api"
	"github.com/ecuscope/ecuscope/internal/catalog"
	"github.com/ecuscope/ecuscope/internal/config"
	"github.com/ecuscope/ecuscope/internal/dtc"
	"github.com/ecuscope/ecuscope/internal/dtccache"
	xglog "github.com/ecuscope/ecuscope/internal/log"
	"github.com/ecuscope/ecuscope/internal/nav"
	"github.com/ecuscope/ecuscope/internal/progress"
	"github.com/ecuscope/ecuscope/internal/session"
	"github.com/ecuscope/ecuscope/internal/storage"
	"github.com/ecuscope/ecuscope/internal/telemetry"
	"github.com/ecuscope/ecuscope/internal/unlock"
	"github.com/ecuscope/ecuscope/internal/vehicle"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Safe logging defaults until the config is loaded.
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "ecuscope",
		Version: version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str(xglog.FieldPath, *configPath).
			Msg("failed to load configuration")
	}

	// Configure is once-only; apply the configured level explicitly.
	xglog.SetLevel(cfg.LogLevel)

	logger.Info().
		Str(xglog.FieldEvent, "startup").
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("addr", cfg.ListenAddr).
		Msg("starting ecuscope")

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldPath, cfg.DataDir).
			Msg("failed to create data directory")
	}

	tracing, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    "ecuscope",
		ServiceVersion: version,
		Environment:    cfg.Tracing.Environment,
		ExporterType:   cfg.Tracing.ExporterType,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "telemetry.init_failed").
			Msg("failed to initialize tracing")
	}
	defer func() { _ = tracing.Shutdown(context.Background()) }()

	// Durable progress store.
	gw, err := storage.OpenBadger(cfg.BadgerDir())
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldPath, cfg.BadgerDir()).
			Msg("failed to open progress store")
	}
	defer func() { _ = gw.Close() }()

	// Capability catalog with optional overlay and hot reload.
	cat := catalog.New()
	if cfg.CatalogPath != "" {
		if err := cat.LoadOverlay(cfg.CatalogPath); err != nil {
			logger.Fatal().
				Err(err).
				Str(xglog.FieldPath, cfg.CatalogPath).
				Msg("failed to load capability catalog overlay")
		}
		if err := cat.Watch(ctx, cfg.CatalogPath); err != nil {
			logger.Warn().
				Err(err).
				Str(xglog.FieldPath, cfg.CatalogPath).
				Msg("catalog hot reload unavailable")
		}
	}

	store := progress.NewStore(gw)
	machine := unlock.NewMachine(cat, store, gw)

	// Result cache backend: Redis when configured, in-process otherwise.
	var backend dtccache.Backend
	if cfg.Redis.Enabled {
		backend, err = dtccache.NewRedisBackend(dtccache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatal().
				Err(err).
				Str("redis_addr", cfg.Redis.Addr).
				Msg("failed to connect to redis")
		}
		logger.Info().Str("redis_addr", cfg.Redis.Addr).Msg("result cache backed by redis")
	} else {
		backend = dtccache.NewMemoryBackend()
		logger.Info().Msg("result cache held in process memory")
	}
	cache := dtccache.New(backend)
	defer func() { _ = cache.Close() }()

	history, err := session.OpenHistory(cfg.HistoryPath())
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldPath, cfg.HistoryPath()).
			Msg("failed to open session history")
	}
	defer func() { _ = history.Close() }()

	resolver := vehicle.NewCatalogResolver(cat)
	sessions := session.NewManager(resolver, cache, history, cfg.SnapshotPath())
	if snap := sessions.Restore(); snap.Vehicle != nil {
		logger.Info().
			Str(xglog.FieldVehicleID, snap.Vehicle.VIN).
			Msg("restored last vehicle from snapshot")
	}

	server := api.New(api.Options{
		Catalog:           cat,
		Machine:           machine,
		Progress:          store,
		Cache:             cache,
		Source:            defaultSource(),
		Sessions:          sessions,
		Nav:               nav.New(nav.Route{Name: "home"}),
		EnableMetrics:     true,
		TracingService:    tracingService(cfg),
		EnableRateLimit:   cfg.RateLimit.Enabled,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
	})

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Fatal().Err(err).Msg("http server failed")
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server exiting")
}

func tracingService(cfg config.Config) string {
	if !cfg.Tracing.Enabled {
		return ""
	}
	return "ecuscope"
}

// defaultSource is the built-in trouble-code source. ECU access is simulated
// deterministically per module until a real transport is plugged in.
func defaultSource() dtc.Source {
	return dtc.NewSimulatedSource()
}
