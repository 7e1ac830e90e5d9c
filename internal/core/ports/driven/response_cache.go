package driven

import (
	"context"
	"time"
)

// ResponseCache is time-bounded memoization of complete responses, keyed by
// a request fingerprint. Caching is best-effort: callers map any backend
// error to a miss and never surface it.
type ResponseCache interface {
	// Lookup returns the cached value for a fingerprint. The bool is false
	// both when the key is absent and when the entry has expired; expired
	// entries are lazily purged on lookup.
	Lookup(ctx context.Context, fingerprint string) (string, bool, error)

	// Store inserts or overwrites an entry expiring at now+ttl. If the
	// insert would exceed the entry bound, the entry with the earliest
	// creation time is evicted first, regardless of its remaining TTL.
	Store(ctx context.Context, fingerprint, value string, ttl time.Duration) error

	// Purge removes expired entries and returns the count removed
	Purge(ctx context.Context) (int, error)
}
