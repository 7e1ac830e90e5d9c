package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/plantops/advisor-core/internal/core/ports/driven"
	"github.com/plantops/advisor-core/internal/core/ports/driving"
)

const sweepLockName = "maintenance:sweep"

// Sweeper runs periodic retention maintenance: removing idle sessions and
// purging expired cache entries.
//
// For multi-instance deployments, configure a DistributedLock so only one
// instance sweeps per cycle.
type Sweeper struct {
	sessions driving.SessionAdminService
	cache    driven.ResponseCache
	lock     driven.DistributedLock
	logger   *slog.Logger

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	interval time.Duration
	maxIdle  time.Duration
	lockTTL  time.Duration
}

// SweeperConfig holds configuration for the sweeper.
type SweeperConfig struct {
	Sessions driving.SessionAdminService
	Cache    driven.ResponseCache    // Optional: skip cache purge when nil
	Lock     driven.DistributedLock  // Optional: multi-instance coordination
	Logger   *slog.Logger
	Interval time.Duration // How often to sweep (default: 1h)
	MaxIdle  time.Duration // Session idle window (default: 7 days)
	LockTTL  time.Duration // TTL for the distributed lock (default: 2x interval)
}

// NewSweeper creates a new sweeper.
func NewSweeper(cfg SweeperConfig) *Sweeper {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = time.Hour
	}

	maxIdle := cfg.MaxIdle
	if maxIdle == 0 {
		maxIdle = 7 * 24 * time.Hour
	}

	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 2 * interval
	}

	return &Sweeper{
		sessions: cfg.Sessions,
		cache:    cfg.Cache,
		lock:     cfg.Lock,
		logger:   logger,
		interval: interval,
		maxIdle:  maxIdle,
		lockTTL:  lockTTL,
	}
}

// Start begins the sweep loop.
// It runs until Stop is called or the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("sweeper starting", "interval", s.interval, "max_idle", s.maxIdle)

	go s.run(ctx)

	return nil
}

// Stop gracefully stops the sweeper.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.mu.Unlock()

	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("sweeper stopped")
}

// run is the main sweep loop.
func (s *Sweeper) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper context cancelled")
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep cycle. Exposed so operators can trigger
// maintenance out of band.
func (s *Sweeper) RunOnce(ctx context.Context) {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, sweepLockName, s.lockTTL)
		if err != nil {
			s.logger.Warn("failed to acquire sweep lock", "error", err)
			return
		}
		if !acquired {
			s.logger.Debug("sweep lock held by another instance, skipping cycle")
			return
		}
		defer func() {
			if err := s.lock.Release(ctx, sweepLockName); err != nil {
				s.logger.Warn("failed to release sweep lock", "error", err)
			}
		}()
	}

	removed, err := s.sessions.Sweep(ctx, s.maxIdle)
	if err != nil {
		s.logger.Error("session sweep failed", "error", err)
	} else if removed > 0 {
		s.logger.Info("swept idle sessions", "removed", removed)
	}

	if s.cache != nil {
		purged, err := s.cache.Purge(ctx)
		if err != nil {
			s.logger.Error("cache purge failed", "error", err)
		} else if purged > 0 {
			s.logger.Info("purged expired cache entries", "purged", purged)
		}
	}
}
