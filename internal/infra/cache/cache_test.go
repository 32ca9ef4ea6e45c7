package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheGetSet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedis(client, "posterr:author")
	ctx := context.Background()

	mock.ExpectSet("posterr:author:user1", "jardimtech", time.Minute).SetVal("OK")
	c.Set(ctx, "user1", "jardimtech", time.Minute)

	mock.ExpectGet("posterr:author:user1").SetVal("jardimtech")
	value, ok := c.Get(ctx, "user1")
	require.True(t, ok)
	require.Equal(t, "jardimtech", value)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheMissAndError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedis(client, "")
	ctx := context.Background()

	mock.ExpectGet("missing").SetErr(redis.Nil)
	_, ok := c.Get(ctx, "missing")
	require.False(t, ok)

	mock.ExpectGet("broken").SetErr(errors.New("connection refused"))
	_, ok = c.Get(ctx, "broken")
	require.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLocalCacheMiss(t *testing.T) {
	c, err := NewLocal(16)
	require.NoError(t, err)
	_, ok := c.Get(context.Background(), "nobody")
	require.False(t, ok)
}
