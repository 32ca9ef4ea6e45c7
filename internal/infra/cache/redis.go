package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"posterr/internal/domain"
	"posterr/internal/infra/metrics"
)

// RedisCache реализует domain.Cache через Redis.
type RedisCache struct {
	client redis.Cmdable
	prefix string
}

var _ domain.Cache = (*RedisCache)(nil)

// NewRedis создаёт кэш; ключи получают указанный префикс.
func NewRedis(client redis.Cmdable, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// Get возвращает значение. Промах и ошибка Redis неотличимы для вызывающего.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	start := time.Now()
	value, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		metrics.ObserveNetworkRequest("redis", "cache_get", "cache", start, nil)
		return "", false
	}
	metrics.ObserveNetworkRequest("redis", "cache_get", "cache", start, err)
	if err != nil {
		return "", false
	}
	return value, true
}

// Set задаёт значение.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	start := time.Now()
	err := c.client.Set(ctx, c.key(key), value, ttl).Err()
	metrics.ObserveNetworkRequest("redis", "cache_set", "cache", start, err)
}

func (c *RedisCache) key(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}
