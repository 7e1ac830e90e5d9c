package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/plantops/advisor-core/internal/core/domain"
	"github.com/plantops/advisor-core/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var _ driven.SessionStore = (*SessionStore)(nil)

const (
	// Key prefixes for Redis
	sessionPrefix         = "session:"
	sessionIdentityPrefix = "session:identity:"

	// Sorted set of session IDs scored by last activity time,
	// used by the sweep to find idle sessions without scanning
	sessionActivityKey = "session:activity"
)

// SessionStore implements driven.SessionStore using Redis.
// Sessions are durable: no key TTL, removal only happens through the
// age-based sweep. The identity hint is indexed with SETNX so concurrent
// creates for the same hint collapse onto one session.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a new Redis-backed SessionStore
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func newSessionID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// GetOrCreate returns the session for an identity hint, creating an empty
// one if none exists. The session body is written before the identity
// index is claimed, so a hint that resolves always points at stored data.
func (s *SessionStore) GetOrCreate(ctx context.Context, identityHint string) (*domain.Session, bool, error) {
	identityKey := sessionIdentityPrefix + identityHint

	// Fast path: identity already mapped
	id, err := s.client.Get(ctx, identityKey).Result()
	if err == nil {
		session, err := s.Get(ctx, id)
		if err == nil {
			return session, false, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, false, err
		}
		// A sweep mid-flight removes the session body before the
		// identity key. Clear the dangling mapping and fall through
		// to create a fresh session.
		if err := s.client.Del(ctx, identityKey).Err(); err != nil {
			return nil, false, fmt.Errorf("clear stale identity: %w", err)
		}
	} else if err != redis.Nil {
		return nil, false, fmt.Errorf("resolve identity: %w", err)
	}

	// Write the candidate session first, then claim the identity index.
	// Losing the claim race means another instance created the session.
	candidate := domain.NewSession(newSessionID(), identityHint, time.Now().UTC())
	data, err := json.Marshal(candidate)
	if err != nil {
		return nil, false, fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, sessionPrefix+candidate.ID, data, 0).Err(); err != nil {
		return nil, false, fmt.Errorf("save session: %w", err)
	}

	claimed, err := s.client.SetNX(ctx, identityKey, candidate.ID, 0).Result()
	if err != nil {
		return nil, false, fmt.Errorf("claim identity: %w", err)
	}

	if !claimed {
		// Lost the race: discard the candidate and use the winner's session
		s.client.Del(ctx, sessionPrefix+candidate.ID)

		id, err := s.client.Get(ctx, identityKey).Result()
		if err != nil {
			return nil, false, fmt.Errorf("resolve identity: %w", err)
		}
		session, err := s.Get(ctx, id)
		if err != nil {
			return nil, false, err
		}
		return session, false, nil
	}

	err = s.client.ZAdd(ctx, sessionActivityKey, redis.Z{
		Score:  float64(candidate.LastActivityAt.Unix()),
		Member: candidate.ID,
	}).Err()
	if err != nil {
		return nil, false, fmt.Errorf("index session activity: %w", err)
	}

	return candidate, true, nil
}

// Get retrieves a session by ID
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, sessionPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if session.Profile == nil {
		session.Profile = make(map[string]string)
	}

	return &session, nil
}

// Update persists the session's turns, profile and activity time
func (s *SessionStore) Update(ctx context.Context, session *domain.Session) error {
	exists, err := s.client.Exists(ctx, sessionPrefix+session.ID).Result()
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if exists == 0 {
		return domain.ErrSessionNotFound
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, sessionPrefix+session.ID, data, 0)
	pipe.ZAdd(ctx, sessionActivityKey, redis.Z{
		Score:  float64(session.LastActivityAt.Unix()),
		Member: session.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	return nil
}

// SweepExpired removes sessions idle longer than maxIdle
func (s *SessionStore) SweepExpired(ctx context.Context, maxIdle time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-maxIdle).Unix()

	ids, err := s.client.ZRangeByScore(ctx, sessionActivityKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff, 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("list idle sessions: %w", err)
	}

	removed := 0
	for _, id := range ids {
		session, err := s.Get(ctx, id)
		if err == domain.ErrSessionNotFound {
			// Stale index entry
			s.client.ZRem(ctx, sessionActivityKey, id)
			continue
		}
		if err != nil {
			return removed, err
		}

		pipe := s.client.Pipeline()
		pipe.Del(ctx, sessionPrefix+id)
		pipe.Del(ctx, sessionIdentityPrefix+session.IdentityHint)
		pipe.ZRem(ctx, sessionActivityKey, id)
		if _, err := pipe.Exec(ctx); err != nil {
			return removed, fmt.Errorf("delete session: %w", err)
		}
		removed++
	}

	return removed, nil
}
