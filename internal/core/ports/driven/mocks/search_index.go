package mocks

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/plantops/advisor-core/internal/core/domain"
)

// MockSearchIndex is a scriptable SearchIndex for testing. Results can be
// canned per query, or an error forced for soft-fail tests.
type MockSearchIndex struct {
	mu         sync.Mutex
	results    map[string][]domain.ChunkScore
	generation atomic.Uint64

	// QueryErr makes Query fail, for degraded-retrieval tests
	QueryErr error

	// Inserted and Removed record the mutations seen
	Inserted []*domain.Chunk
	Removed  []string
}

// NewMockSearchIndex creates a new MockSearchIndex
func NewMockSearchIndex() *MockSearchIndex {
	return &MockSearchIndex{
		results: make(map[string][]domain.ChunkScore),
	}
}

// SetResults cans the hits returned for a query text
func (m *MockSearchIndex) SetResults(text string, hits []domain.ChunkScore) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[text] = hits
}

func (m *MockSearchIndex) Insert(ctx context.Context, chunks []*domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Inserted = append(m.Inserted, chunks...)
	m.generation.Add(1)
	return nil
}

func (m *MockSearchIndex) Remove(ctx context.Context, chunkIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Removed = append(m.Removed, chunkIDs...)
	m.generation.Add(1)
	return nil
}

func (m *MockSearchIndex) Query(ctx context.Context, text string, topK int) ([]domain.ChunkScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	hits := m.results[text]
	if topK > 0 && topK < len(hits) {
		hits = hits[:topK]
	}
	return append([]domain.ChunkScore(nil), hits...), nil
}

func (m *MockSearchIndex) Generation() uint64 {
	return m.generation.Load()
}
