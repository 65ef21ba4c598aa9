package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisClient) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, WrapClient(client)
}

func TestLoginAttemptStore(t *testing.T) {
	_, rc := newTestRedis(t)
	store := NewLoginAttemptStore(rc)
	ctx := context.Background()
	window := 15 * time.Minute
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		require.NoError(t, store.RecordFailure(ctx, "User@Example.com", now.Add(time.Duration(i)*time.Minute), window))
	}

	count, err := store.CountFailures(ctx, "user@example.com", now.Add(4*time.Minute).Add(-window))
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	// only the last two are inside a window ending at now+17m
	count, err = store.CountFailures(ctx, "user@example.com", now.Add(17*time.Minute).Add(-window))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, store.Reset(ctx, "user@example.com"))
	count, err = store.CountFailures(ctx, "user@example.com", now.Add(-window))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLoginAttemptStore_TrimsOldEntries(t *testing.T) {
	mr, rc := newTestRedis(t)
	store := NewLoginAttemptStore(rc)
	ctx := context.Background()
	window := 15 * time.Minute
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordFailure(ctx, "a@b.co", start, window))
	require.NoError(t, store.RecordFailure(ctx, "a@b.co", start.Add(20*time.Minute), window))

	members, err := mr.ZMembers(loginFailuresKey("a@b.co"))
	require.NoError(t, err)
	assert.Len(t, members, 1)
	assert.True(t, mr.TTL(loginFailuresKey("a@b.co")) > 0)
}

func TestAlertStore_Claim(t *testing.T) {
	mr, rc := newTestRedis(t)
	store := NewAlertStore(rc)
	ctx := context.Background()

	ok, err := store.Claim(ctx, "low-balance:node-1", 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Claim(ctx, "low-balance:node-1", 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "second claim within cooldown must lose")

	ok, err = store.Claim(ctx, "low-balance:node-2", 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(25 * time.Hour)
	ok, err = store.Claim(ctx, "low-balance:node-1", 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "claim after cooldown must win")
}

func TestPriceCache(t *testing.T) {
	_, rc := newTestRedis(t)
	cache := NewPriceCache(rc)
	ctx := context.Background()

	_, ok, err := cache.GetLastPrice(ctx, "nosana")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.SetLastPrice(ctx, "nosana", decimal.RequireFromString("0.4821")))
	price, ok, err := cache.GetLastPrice(ctx, "nosana")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, decimal.RequireFromString("0.4821").Equal(price))
}
