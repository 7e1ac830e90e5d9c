package domain

import "time"

// DefaultCacheSize bounds the response cache entry count. The entry with
// the earliest creation time is evicted first when an insert would exceed it.
const DefaultCacheSize = 100

// DefaultCacheTTL is how long a cached response stays servable
const DefaultCacheTTL = 5 * time.Minute

// CacheEntry is a memoized response addressed by a request fingerprint
type CacheEntry struct {
	Fingerprint string    `json:"fingerprint"`
	Value       string    `json:"value"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsExpired reports whether the entry must not be served anymore
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
