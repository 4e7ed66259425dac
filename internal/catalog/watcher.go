// SPDX-License-Identifier: MIT

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	xglog "github.com/ecuscope/ecuscope/internal/log"
)

// Watch reloads the overlay file whenever it changes on disk. A broken
// overlay keeps the previous table; the error is logged, not propagated.
// If path is empty the watcher is a no-op (built-in catalog only).
func (c *Catalog) Watch(ctx context.Context, path string) error {
	logger := xglog.WithComponent("catalog")
	if path == "" {
		logger.Info().Str(xglog.FieldEvent, "catalog.watcher_disabled").Msg("no overlay file configured")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch catalog overlay: %w", err)
	}

	logger.Info().
		Str(xglog.FieldEvent, "catalog.watcher_started").
		Str(xglog.FieldPath, path).
		Msg("watching catalog overlay for changes")

	go c.watchLoop(ctx, watcher, path, logger)
	return nil
}

func (c *Catalog) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, logger zerolog.Logger) {
	// Debounce so editors that write in bursts trigger a single reload.
	var debounce *time.Timer
	const debounceDuration = 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			logger.Info().Str(xglog.FieldEvent, "catalog.watcher_stopped").Msg("catalog watcher stopped")
			_ = watcher.Close()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDuration, func() {
					if err := c.LoadOverlay(path); err != nil {
						logger.Error().
							Err(err).
							Str(xglog.FieldEvent, "catalog.reload_failed").
							Msg("catalog overlay reload failed, keeping previous table")
						return
					}
					logger.Info().
						Str(xglog.FieldEvent, "catalog.reload_success").
						Msg("catalog overlay reloaded")
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error().Err(err).Str(xglog.FieldEvent, "catalog.watcher_error").Msg("catalog watcher error")
		}
	}
}
