// Package dedupe records keys that must be processed at most once within a TTL.
package dedupe

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"probate-backend/internal/shared/telemetry"
)

// Deduper reports whether a key is being seen for the first time. Release
// forgets a key so a failed attempt can be retried.
type Deduper interface {
	AcquireOnce(ctx context.Context, scope, key string) bool
	Release(ctx context.Context, scope, key string)
}

// RedisDeduper uses SETNX so every API instance shares the same record.
type RedisDeduper struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis builds a RedisDeduper.
func NewRedis(rdb *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{rdb: rdb, ttl: ttl}
}

// AcquireOnce returns true the first time scope+key is seen. When Redis is
// unreachable processing is allowed.
func (d *RedisDeduper) AcquireOnce(ctx context.Context, scope, key string) bool {
	ok, err := d.rdb.SetNX(ctx, redisKey(scope, key), 1, d.ttl).Result()
	if err != nil {
		telemetry.Warn("dedupe.redis.failed", map[string]any{
			"scope": scope,
			"key":   key,
			"err":   err,
		})
		return true
	}
	return ok
}

// Release deletes scope+key.
func (d *RedisDeduper) Release(ctx context.Context, scope, key string) {
	if err := d.rdb.Del(ctx, redisKey(scope, key)).Err(); err != nil {
		telemetry.Warn("dedupe.redis.release_failed", map[string]any{
			"scope": scope,
			"key":   key,
			"err":   err,
		})
	}
}

func redisKey(scope, key string) string {
	return "dedup:" + scope + ":" + key
}

// MemoryDeduper keeps keys in a process-local TTL cache.
type MemoryDeduper struct {
	c *cache.Cache
}

// NewMemory builds a MemoryDeduper.
func NewMemory(ttl time.Duration) *MemoryDeduper {
	return &MemoryDeduper{c: cache.New(ttl, 2*ttl)}
}

// AcquireOnce returns true the first time scope+key is seen.
func (d *MemoryDeduper) AcquireOnce(_ context.Context, scope, key string) bool {
	return d.c.Add(scope+":"+key, struct{}{}, cache.DefaultExpiration) == nil
}

// Release forgets scope+key.
func (d *MemoryDeduper) Release(_ context.Context, scope, key string) {
	d.c.Delete(scope + ":" + key)
}

var (
	_ Deduper = (*RedisDeduper)(nil)
	_ Deduper = (*MemoryDeduper)(nil)
)
