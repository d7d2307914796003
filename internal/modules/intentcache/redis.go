// README: Redis-backed cache shared across API replicas.
package intentcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tripflow/internal/intent"
)

const (
	redisEntryKeyFmt = "intentcache:extract:%s"
	redisIndexKey    = "intentcache:index"
)

// RedisCache is a Cache backed by Redis, with the same TTL and size
// bounds as MemoryCache. The index sorted set records insertion order so
// the oldest entries can be trimmed when the cap is exceeded.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
	max int64
}

func NewRedis(rdb *redis.Client, ttl time.Duration, max int) *RedisCache {
	if max <= 0 {
		max = 1
	}
	return &RedisCache{rdb: rdb, ttl: ttl, max: int64(max)}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*intent.TripIntent, bool, error) {
	raw, err := c.rdb.Get(ctx, fmt.Sprintf(redisEntryKeyFmt, key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("intentcache: get: %w", err)
	}
	var ti intent.TripIntent
	if err := json.Unmarshal([]byte(raw), &ti); err != nil {
		return nil, false, fmt.Errorf("intentcache: decode: %w", err)
	}
	return &ti, true, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, ti *intent.TripIntent) error {
	raw, err := json.Marshal(ti)
	if err != nil {
		return fmt.Errorf("intentcache: encode: %w", err)
	}

	pipe := c.rdb.Pipeline()
	pipe.Set(ctx, fmt.Sprintf(redisEntryKeyFmt, key), raw, c.ttl)
	pipe.ZAdd(ctx, redisIndexKey, redis.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: key,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("intentcache: put: %w", err)
	}
	return c.trim(ctx)
}

// trim drops the oldest index entries beyond the size cap.
func (c *RedisCache) trim(ctx context.Context) error {
	size, err := c.rdb.ZCard(ctx, redisIndexKey).Result()
	if err != nil {
		return fmt.Errorf("intentcache: size: %w", err)
	}
	excess := size - c.max
	if excess <= 0 {
		return nil
	}
	oldest, err := c.rdb.ZRange(ctx, redisIndexKey, 0, excess-1).Result()
	if err != nil {
		return fmt.Errorf("intentcache: oldest: %w", err)
	}
	if len(oldest) == 0 {
		return nil
	}
	pipe := c.rdb.Pipeline()
	for _, key := range oldest {
		pipe.Del(ctx, fmt.Sprintf(redisEntryKeyFmt, key))
	}
	pipe.ZRem(ctx, redisIndexKey, toAnySlice(oldest)...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("intentcache: trim: %w", err)
	}
	return nil
}

func toAnySlice(keys []string) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}
