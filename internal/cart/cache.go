package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wichananm65/storefront-backend/internal/redisx"
)

var ErrCacheMiss = errors.New("cart cache miss")

// versionTTL bounds how long an idle user's version counter is kept.
const versionTTL = 24 * time.Hour

// Cache holds a user's cart lines without product data.
//
// Refills are guarded by a per-user version: read Version before loading the
// lines from the store and pass it to Set. Delete bumps the version, so a
// refill that raced with a write is dropped instead of cached.
type Cache interface {
	Get(ctx context.Context, userID string) ([]Line, error)
	Version(ctx context.Context, userID string) (int64, error)
	Set(ctx context.Context, userID string, version int64, lines []Line) error
	Delete(ctx context.Context, userID string) error
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, baseTTL: ttl}
}

func (r *RedisCache) Get(ctx context.Context, userID string) ([]Line, error) {
	data, err := r.client.Get(ctx, redisx.CartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return lines, nil
}

func (r *RedisCache) Version(ctx context.Context, userID string) (int64, error) {
	return readVersion(ctx, r.client, redisx.CartVersionKey(userID))
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readVersion(ctx context.Context, c stringGetter, key string) (int64, error) {
	v, err := c.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get version failed: %w", err)
	}
	return v, nil
}

// Set stores lines only if no write has bumped the version since it was read.
// A skipped refill is not an error.
func (r *RedisCache) Set(ctx context.Context, userID string, version int64, lines []Line) error {
	stripped := make([]Line, len(lines))
	for i, l := range lines {
		l.Product = nil
		stripped[i] = l
	}
	data, err := json.Marshal(stripped)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	verKey := redisx.CartVersionKey(userID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := readVersion(ctx, tx, verKey)
		if err != nil {
			return err
		}
		if cur != version {
			return errStaleRefill
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, redisx.CartKey(userID), data, r.ttl())
			return nil
		})
		return err
	}, verKey)
	if errors.Is(err, errStaleRefill) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

var errStaleRefill = errors.New("cart changed during refill")

// Delete drops the cached lines and bumps the version in one transaction.
func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	verKey := redisx.CartVersionKey(userID)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, verKey)
		p.Expire(ctx, verKey, versionTTL)
		p.Del(ctx, redisx.CartKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// ttl spreads expiries by up to a fifth of the base ttl.
func (r *RedisCache) ttl() time.Duration {
	spread := int64(r.baseTTL / 5)
	if spread <= 0 {
		return r.baseTTL
	}
	return r.baseTTL + time.Duration(rand.Int63n(spread))
}

// NopCache always misses.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]Line, error) { return nil, ErrCacheMiss }
func (NopCache) Version(context.Context, string) (int64, error) { return 0, nil }
func (NopCache) Set(context.Context, string, int64, []Line) error { return nil }
func (NopCache) Delete(context.Context, string) error { return nil }
