package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/plantops/advisor-core/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var _ driven.ResponseCache = (*ResponseCache)(nil)

const (
	cacheEntryPrefix = "cache:entry:"

	// Sorted set of fingerprints scored by creation time,
	// used to evict the oldest entry when the bound is hit
	cacheIndexKey = "cache:index"
)

// ResponseCache implements driven.ResponseCache using Redis.
// Entry values expire through key TTL, the creation-time index enforces
// the entry bound with oldest-first eviction.
type ResponseCache struct {
	client     *redis.Client
	maxEntries int
}

// NewResponseCache creates a new Redis-backed ResponseCache
func NewResponseCache(client *redis.Client, maxEntries int) *ResponseCache {
	return &ResponseCache{client: client, maxEntries: maxEntries}
}

// Lookup returns the cached value for a fingerprint. Key TTL handles
// expiry, so an expired entry simply reads as absent.
func (c *ResponseCache) Lookup(ctx context.Context, fingerprint string) (string, bool, error) {
	value, err := c.client.Get(ctx, cacheEntryPrefix+fingerprint).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache lookup: %w", err)
	}
	return value, true, nil
}

// storeScript inserts the entry and trims the index back to the entry
// bound in one atomic step. Concurrent writers each see the cardinality
// including their own insert, so the bound holds under contention.
var storeScript = redis.NewScript(`
local px = tonumber(ARGV[2])
if px > 0 then
	redis.call("SET", KEYS[1], ARGV[1], "PX", px)
else
	redis.call("SET", KEYS[1], ARGV[1])
end
redis.call("ZADD", KEYS[2], ARGV[3], ARGV[4])
local overflow = redis.call("ZCARD", KEYS[2]) - tonumber(ARGV[5])
if overflow <= 0 then
	return 0
end
local oldest = redis.call("ZRANGE", KEYS[2], 0, overflow - 1)
for _, fp in ipairs(oldest) do
	redis.call("DEL", ARGV[6] .. fp)
	redis.call("ZREM", KEYS[2], fp)
end
return overflow
`)

// Store inserts or overwrites an entry expiring at now+ttl. When the
// insert exceeds the entry bound, the oldest entries by creation time
// are evicted first, regardless of remaining TTL.
func (c *ResponseCache) Store(ctx context.Context, fingerprint, value string, ttl time.Duration) error {
	now := time.Now().UTC()

	keys := []string{cacheEntryPrefix + fingerprint, cacheIndexKey}
	err := storeScript.Run(ctx, c.client, keys,
		value,
		ttl.Milliseconds(),
		float64(now.UnixNano()),
		fingerprint,
		c.maxEntries,
		cacheEntryPrefix,
	).Err()
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

// Purge drops index entries whose value key has expired and returns the
// count removed. Redis already reclaimed the values, this keeps the
// creation-time index from growing stale.
func (c *ResponseCache) Purge(ctx context.Context) (int, error) {
	fingerprints, err := c.client.ZRange(ctx, cacheIndexKey, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("cache purge scan: %w", err)
	}

	removed := 0
	for _, fp := range fingerprints {
		exists, err := c.client.Exists(ctx, cacheEntryPrefix+fp).Result()
		if err != nil {
			return removed, fmt.Errorf("cache purge check: %w", err)
		}
		if exists == 0 {
			if err := c.client.ZRem(ctx, cacheIndexKey, fp).Err(); err != nil {
				return removed, fmt.Errorf("cache purge: %w", err)
			}
			removed++
		}
	}

	return removed, nil
}
