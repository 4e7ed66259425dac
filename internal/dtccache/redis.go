// SPDX-License-Identifier: MIT

package dtccache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ecuscope/ecuscope/internal/dtc"
	xglog "github.com/ecuscope/ecuscope/internal/log"
)

// RedisBackend stores result sets in Redis. Each session keeps a key index
// set so DropSession can remove all of its entries in one pass.
type RedisBackend struct {
	client *redis.Client
	logger zerolog.Logger
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string // Redis server address (host:port)
	Password string // Redis password (optional)
	DB       int    // Redis database number
}

// NewRedisBackend connects to Redis and verifies the connection.
func NewRedisBackend(cfg RedisConfig) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger := xglog.WithComponent("dtccache")
	logger.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("connected to Redis result cache")

	return &RedisBackend{client: client, logger: logger}, nil
}

func entryKey(sessionID, moduleID string) string {
	return "dtc:" + sessionID + ":" + moduleID
}

func indexKey(sessionID string) string {
	return "dtcidx:" + sessionID
}

func (b *RedisBackend) Get(ctx context.Context, sessionID, moduleID string) ([]dtc.TroubleCode, bool, error) {
	val, err := b.client.Get(ctx, entryKey(sessionID, moduleID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var codes []dtc.TroubleCode
	if err := json.Unmarshal(val, &codes); err != nil {
		// Corrupt blob: treat as a miss so the loader repopulates it.
		b.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "dtccache.entry_corrupt").
			Str(xglog.FieldSessionID, sessionID).
			Str(xglog.FieldModuleID, moduleID).
			Msg("discarding corrupt cache entry")
		_ = b.client.Del(ctx, entryKey(sessionID, moduleID)).Err()
		return nil, false, nil
	}
	return codes, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, sessionID, moduleID string, codes []dtc.TroubleCode) error {
	data, err := json.Marshal(codes)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	pipe := b.client.TxPipeline()
	pipe.Set(ctx, entryKey(sessionID, moduleID), data, 0)
	pipe.SAdd(ctx, indexKey(sessionID), moduleID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (b *RedisBackend) DropSession(ctx context.Context, sessionID string) error {
	modules, err := b.client.SMembers(ctx, indexKey(sessionID)).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("redis smembers: %w", err)
	}
	keys := make([]string, 0, len(modules)+1)
	for _, m := range modules {
		keys = append(keys, entryKey(sessionID, m))
	}
	keys = append(keys, indexKey(sessionID))
	if err := b.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (b *RedisBackend) Close() error { return b.client.Close() }

var _ Backend = (*RedisBackend)(nil)
