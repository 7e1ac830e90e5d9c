package driven

import (
	"context"
	"time"

	"github.com/plantops/advisor-core/internal/core/domain"
)

// SessionStore handles session persistence (Redis or PostgreSQL).
//
// A session is shared state across all orchestrator instances: identity is a
// caller-supplied correlation key, not transport-layer state, so any instance
// can serve any session.
type SessionStore interface {
	// GetOrCreate returns the session for an identity hint, creating an
	// empty one if none exists. Concurrent calls with the same hint must
	// yield exactly one session: the implementation performs an atomic
	// check-and-insert keyed by the hint. The bool reports whether a new
	// session was created by this call.
	GetOrCreate(ctx context.Context, identityHint string) (*domain.Session, bool, error)

	// Get retrieves a session by ID, domain.ErrSessionNotFound if absent
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Update persists the session's turns, profile and activity time.
	// Returns domain.ErrSessionNotFound if the session no longer exists.
	Update(ctx context.Context, session *domain.Session) error

	// SweepExpired removes sessions idle longer than maxIdle and returns
	// the count removed. Intended for a periodic cadence, not per-request.
	SweepExpired(ctx context.Context, maxIdle time.Duration) (int, error)
}
