package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/plantops/advisor-core/internal/core/domain"
	"github.com/plantops/advisor-core/internal/core/ports/driven"
	"github.com/plantops/advisor-core/internal/core/ports/driving"
)

// DefaultMaxIdle is how long a session may stay idle before the sweep
// removes it
const DefaultMaxIdle = 7 * 24 * time.Hour

// Ensure sessionService implements SessionAdminService
var _ driving.SessionAdminService = (*sessionService)(nil)

// sessionService exposes session inspection and the retention sweep
type sessionService struct {
	store  driven.SessionStore
	logger *slog.Logger
}

// NewSessionService creates a new SessionAdminService
func NewSessionService(store driven.SessionStore, logger *slog.Logger) driving.SessionAdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &sessionService{store: store, logger: logger}
}

// Get retrieves a session by ID
func (s *sessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.store.Get(ctx, id)
}

// Sweep removes sessions idle longer than maxIdle
func (s *sessionService) Sweep(ctx context.Context, maxIdle time.Duration) (int, error) {
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdle
	}
	removed, err := s.store.SweepExpired(ctx, maxIdle)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("expired sessions swept", "removed", removed, "max_idle", maxIdle)
	}
	return removed, nil
}
