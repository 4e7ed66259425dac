// SPDX-License-Identifier: MIT

package dtccache

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ecuscope/ecuscope/internal/dtc"
	xglog "github.com/ecuscope/ecuscope/internal/log"
	"github.com/ecuscope/ecuscope/internal/metrics"
)

// Cache memoizes trouble-code result sets per (module, session). The
// loader runs at most once per key per session: concurrent misses for the
// same key are collapsed through singleflight, and a stored result is
// served without re-invoking the loader. Loader failures are never cached.
type Cache struct {
	backend Backend
	group   singleflight.Group
	logger  zerolog.Logger
}

// New wraps a backend in the memoizing cache.
func New(backend Backend) *Cache {
	return &Cache{
		backend: backend,
		logger:  xglog.WithComponent("dtccache"),
	}
}

// GetOrLoad returns the result set for (moduleID, sessionID), invoking
// source exactly once per key to populate a miss. Once the loader has been
// invoked it runs to completion; callers discarding interest must not
// assume a rollback.
func (c *Cache) GetOrLoad(ctx context.Context, moduleID, sessionID string, source dtc.Source) ([]dtc.TroubleCode, error) {
	if codes, ok, err := c.backend.Get(ctx, sessionID, moduleID); err != nil {
		return nil, err
	} else if ok {
		metrics.CacheHits.Inc()
		return codes, nil
	}
	metrics.CacheMisses.Inc()

	key := sessionID + ":" + moduleID
	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: a concurrent caller may have stored
		// the result while we waited for the flight slot.
		if codes, ok, err := c.backend.Get(ctx, sessionID, moduleID); err != nil {
			return nil, err
		} else if ok {
			return codes, nil
		}

		codes, err := source.FetchTroubleCodes(ctx, moduleID)
		if err != nil {
			metrics.LoaderFailures.Inc()
			return nil, fmt.Errorf("fetch trouble codes for %s: %w", moduleID, err)
		}
		if err := c.backend.Set(ctx, sessionID, moduleID, codes); err != nil {
			// The result is valid even if memoization failed; the next
			// miss will retry the store.
			c.logger.Warn().
				Err(err).
				Str(xglog.FieldEvent, "dtccache.store_failed").
				Str(xglog.FieldSessionID, sessionID).
				Str(xglog.FieldModuleID, moduleID).
				Msg("failed to store cache entry")
		}
		return codes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dtc.TroubleCode), nil
}

// InvalidateSession removes every entry scoped to sessionID. Called when a
// session ends or is superseded.
func (c *Cache) InvalidateSession(ctx context.Context, sessionID string) error {
	if err := c.backend.DropSession(ctx, sessionID); err != nil {
		return fmt.Errorf("invalidate session %s: %w", sessionID, err)
	}
	c.logger.Info().
		Str(xglog.FieldEvent, "dtccache.session_invalidated").
		Str(xglog.FieldSessionID, sessionID).
		Msg("result cache invalidated")
	return nil
}

// Close releases the backend.
func (c *Cache) Close() error { return c.backend.Close() }
