package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/plantops/advisor-core/internal/core/domain"
)

// MockGenerator is a stub language-generation collaborator. By default it
// echoes the retrieved context back, which makes end-to-end assertions easy.
type MockGenerator struct {
	mu      sync.Mutex
	bundles []domain.ContextBundle

	// Response overrides the echoed reply when non-empty
	Response string

	// Err makes Generate fail
	Err error
}

// NewMockGenerator creates a new MockGenerator
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (m *MockGenerator) Generate(ctx context.Context, bundle domain.ContextBundle) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bundles = append(m.bundles, bundle)
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}
	if len(bundle.Chunks) == 0 {
		return "I could not find anything relevant.", nil
	}
	parts := make([]string, len(bundle.Chunks))
	for i, chunk := range bundle.Chunks {
		parts[i] = chunk.Content
	}
	return strings.Join(parts, " "), nil
}

// Bundles returns the context bundles seen so far
func (m *MockGenerator) Bundles() []domain.ContextBundle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ContextBundle(nil), m.bundles...)
}
