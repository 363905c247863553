package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Ranges []string `json:"ranges"`
}

func testCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := zerolog.New(io.Discard)
	return New(client, time.Minute, &logger)
}

func TestCacheRoundTrip(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()
	key := RoomDayKey(1, "2026-03-09")

	var out payload
	assert.False(t, c.Read(ctx, key, &out))

	c.Write(ctx, key, payload{Ranges: []string{"9:00 AM - 10:00 AM"}})

	require.True(t, c.Read(ctx, key, &out))
	assert.Equal(t, []string{"9:00 AM - 10:00 AM"}, out.Ranges)

	c.Invalidate(ctx, key)
	assert.False(t, c.Read(ctx, key, &out))
}

func TestCacheDisabled(t *testing.T) {
	ctx := context.Background()

	var nilCache *Cache
	var out payload
	assert.False(t, nilCache.Read(ctx, "k", &out))
	nilCache.Write(ctx, "k", payload{})
	nilCache.Invalidate(ctx, "k")

	logger := zerolog.New(io.Discard)
	disabled := New(nil, time.Minute, &logger)
	assert.False(t, disabled.Read(ctx, "k", &out))
	disabled.Write(ctx, "k", payload{})
	disabled.Invalidate(ctx, "k")
}

func TestCacheDropsCorruptEntries(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := zerolog.New(io.Discard)
	c := New(client, time.Minute, &logger)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "bad", "{not json", time.Minute).Err())

	var out payload
	assert.False(t, c.Read(ctx, "bad", &out))

	// The corrupt entry is removed so the next write starts clean.
	_, err := client.Get(ctx, "bad").Result()
	assert.ErrorIs(t, err, redis.Nil)
}
