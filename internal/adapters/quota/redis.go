package quota

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"posterr/internal/domain"
	"posterr/internal/infra/metrics"
)

// RedisStore реализует domain.QuotaRepo на счётчиках Redis.
// INCR атомарен, поэтому параллельные инкременты одного ключа не теряются.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

var (
	_ domain.QuotaRepo = (*RedisStore)(nil)
	_ domain.Resetter  = (*RedisStore)(nil)
)

// NewRedisStore создаёт хранилище квоты. Ключ живёт ttl после последнего инкремента.
func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Key возвращает ключ счётчика пользователя за день.
func (s *RedisStore) Key(userID, day string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, userID, day)
}

// CountForDay возвращает счётчик или ноль, если ключа нет.
func (s *RedisStore) CountForDay(ctx context.Context, userID, day string) (int, error) {
	start := time.Now()
	raw, err := s.client.Get(ctx, s.Key(userID, day)).Result()
	if errors.Is(err, redis.Nil) {
		metrics.ObserveNetworkRequest("redis", "quota_get", "quota", start, nil)
		return 0, nil
	}
	metrics.ObserveNetworkRequest("redis", "quota_get", "quota", start, err)
	if err != nil {
		return 0, err
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("некорректное значение квоты %q: %w", raw, err)
	}
	return count, nil
}

// IncrementForDay выполняет INCR и продлевает TTL в одной транзакции MULTI.
func (s *RedisStore) IncrementForDay(ctx context.Context, userID, day string) error {
	key := s.Key(userID, day)
	start := time.Now()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	metrics.ObserveNetworkRequest("redis", "quota_increment", "quota", start, err)
	return err
}

// Reset удаляет все счётчики с префиксом хранилища.
func (s *RedisStore) Reset(ctx context.Context) error {
	start := time.Now()
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+":*", 100).Result()
		if err != nil {
			metrics.ObserveNetworkRequest("redis", "quota_reset", "quota", start, err)
			return err
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				metrics.ObserveNetworkRequest("redis", "quota_reset", "quota", start, err)
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	metrics.ObserveNetworkRequest("redis", "quota_reset", "quota", start, nil)
	return nil
}
