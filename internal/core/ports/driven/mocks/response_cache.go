package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/plantops/advisor-core/internal/core/domain"
)

// MockResponseCache is an in-memory ResponseCache for testing. It enforces
// the same bound and TTL semantics as the real adapters.
type MockResponseCache struct {
	mu      sync.Mutex
	entries map[string]*domain.CacheEntry
	maxSize int

	// Fail makes every call return an error, for degraded-path tests
	Fail error
}

// NewMockResponseCache creates a new MockResponseCache
func NewMockResponseCache(maxSize int) *MockResponseCache {
	if maxSize <= 0 {
		maxSize = domain.DefaultCacheSize
	}
	return &MockResponseCache{
		entries: make(map[string]*domain.CacheEntry),
		maxSize: maxSize,
	}
}

func (m *MockResponseCache) Lookup(ctx context.Context, fingerprint string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return "", false, m.Fail
	}
	entry, ok := m.entries[fingerprint]
	if !ok {
		return "", false, nil
	}
	if entry.IsExpired(time.Now()) {
		delete(m.entries, fingerprint)
		return "", false, nil
	}
	return entry.Value, true, nil
}

func (m *MockResponseCache) Store(ctx context.Context, fingerprint, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	now := time.Now()
	if _, exists := m.entries[fingerprint]; !exists && len(m.entries) >= m.maxSize {
		m.evictOldest()
	}
	m.entries[fingerprint] = &domain.CacheEntry{
		Fingerprint: fingerprint,
		Value:       value,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	return nil
}

func (m *MockResponseCache) Purge(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return 0, m.Fail
	}
	now := time.Now()
	removed := 0
	for key, entry := range m.entries {
		if entry.IsExpired(now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the current entry count
func (m *MockResponseCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Has reports whether a fingerprint is present, expired or not
func (m *MockResponseCache) Has(fingerprint string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[fingerprint]
	return ok
}

func (m *MockResponseCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range m.entries {
		if oldestKey == "" || entry.CreatedAt.Before(oldest) {
			oldestKey = key
			oldest = entry.CreatedAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}
