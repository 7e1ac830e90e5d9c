package driving

import (
	"context"
	"time"

	"github.com/plantops/advisor-core/internal/core/domain"
)

// SessionAdminService exposes session inspection and retention to the
// routing layer and the periodic sweeper.
type SessionAdminService interface {
	// Get retrieves a session by ID
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Sweep removes sessions idle longer than maxIdle and returns the
	// count removed
	Sweep(ctx context.Context, maxIdle time.Duration) (int, error)
}
