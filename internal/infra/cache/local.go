package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	gocache "github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristrettostore "github.com/eko/gocache/store/ristretto/v4"

	"posterr/internal/domain"
)

// LocalCache реализует domain.Cache в памяти процесса поверх ristretto.
type LocalCache struct {
	cache *gocache.Cache[string]
}

var _ domain.Cache = (*LocalCache)(nil)

// NewLocal создаёт кэш примерно на maxItems строковых значений.
func NewLocal(maxItems int64) (*LocalCache, error) {
	if maxItems <= 0 {
		maxItems = 1024
	}
	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &LocalCache{cache: gocache.New[string](ristrettostore.NewRistretto(client))}, nil
}

// Get возвращает значение и признак попадания.
func (c *LocalCache) Get(ctx context.Context, key string) (string, bool) {
	value, err := c.cache.Get(ctx, key)
	if err != nil {
		return "", false
	}
	return value, true
}

// Set сохраняет значение; стоимость каждой записи равна единице.
func (c *LocalCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	_ = c.cache.Set(ctx, key, value, store.WithExpiration(ttl), store.WithCost(1))
}
