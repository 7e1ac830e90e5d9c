package mocks

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/plantops/advisor-core/internal/core/domain"
)

// MockSessionStore is a mock implementation of SessionStore for testing.
// GetOrCreate is atomic under the store mutex, matching the single-writer
// guarantee of the real adapters.
type MockSessionStore struct {
	mu         sync.Mutex
	sessions   map[string]*domain.Session
	byIdentity map[string]string // identity hint -> session ID
}

// NewMockSessionStore creates a new MockSessionStore
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		sessions:   make(map[string]*domain.Session),
		byIdentity: make(map[string]string),
	}
}

func (m *MockSessionStore) GetOrCreate(ctx context.Context, identityHint string) (*domain.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byIdentity[identityHint]; ok {
		return cloneSession(m.sessions[id]), false, nil
	}
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	session := domain.NewSession(hex.EncodeToString(b), identityHint, time.Now())
	m.sessions[session.ID] = session
	m.byIdentity[identityHint] = session.ID
	return cloneSession(session), true, nil
}

func (m *MockSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

func (m *MockSessionStore) Update(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[session.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	m.sessions[session.ID] = cloneSession(session)
	return nil
}

func (m *MockSessionStore) SweepExpired(ctx context.Context, maxIdle time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for id, session := range m.sessions {
		if session.IdleSince(cutoff) {
			delete(m.sessions, id)
			delete(m.byIdentity, session.IdentityHint)
			removed++
		}
	}
	return removed, nil
}

func cloneSession(s *domain.Session) *domain.Session {
	clone := *s
	clone.Turns = append([]domain.Turn(nil), s.Turns...)
	clone.Profile = make(map[string]string, len(s.Profile))
	for k, v := range s.Profile {
		clone.Profile[k] = v
	}
	return &clone
}
