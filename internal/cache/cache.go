package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache wraps optional Redis caching for day availability responses.
// A nil Cache or one built without a client is a no-op, so callers never
// need to branch on whether caching is configured.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

// New builds a cache around the Redis client. Pass a nil client to
// disable caching.
func New(client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// RoomDayKey returns the cache key for a room's availability on a date.
func RoomDayKey(roomID int64, date string) string {
	return fmt.Sprintf("availability:room:%d:%s", roomID, date)
}

// StaffDayKey returns the cache key for a staff member's availability on a date.
func StaffDayKey(username, date string) string {
	return fmt.Sprintf("availability:staff:%s:%s", username, date)
}

// Read unmarshals a cached value into out, reporting whether it was found.
// Errors degrade to a cache miss.
func (c *Cache) Read(ctx context.Context, key string, out interface{}) bool {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return false
	}
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Dropping undecodable cache entry")
		_ = c.client.Del(ctx, key).Err()
		return false
	}
	return true
}

// Write stores a value under the key for the configured TTL. Failures are
// logged and otherwise ignored.
func (c *Cache) Write(ctx context.Context, key string, value interface{}) {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to write cache entry")
	}
}

// Invalidate removes keys after a write made their cached values stale.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.client == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to invalidate cache entries")
	}
}
