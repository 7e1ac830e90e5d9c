package postgres

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/plantops/advisor-core/internal/core/domain"
	"github.com/plantops/advisor-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore implements driven.SessionStore using PostgreSQL.
// Turns and profile are stored as JSONB, the identity hint carries a
// unique constraint so concurrent creates collapse onto one row.
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SessionStore
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// GetOrCreate returns the session for an identity hint, creating an empty
// one if none exists. The insert races through ON CONFLICT DO NOTHING, so
// concurrent calls with the same hint observe exactly one session.
func (s *SessionStore) GetOrCreate(ctx context.Context, identityHint string) (*domain.Session, bool, error) {
	now := time.Now().UTC()

	insert := `
		INSERT INTO sessions (id, identity_hint, turns, profile, created_at, last_activity_at)
		VALUES ($1, $2, '[]', '{}', $3, $3)
		ON CONFLICT (identity_hint) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, insert, newSessionID(), identityHint, now)
	if err != nil {
		return nil, false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	created := rowsAffected == 1

	query := `
		SELECT id, identity_hint, turns, profile, created_at, last_activity_at
		FROM sessions
		WHERE identity_hint = $1
	`

	session, err := s.scanSession(s.db.QueryRowContext(ctx, query, identityHint))
	if err != nil {
		return nil, false, err
	}

	return session, created, nil
}

// Get retrieves a session by ID
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	query := `
		SELECT id, identity_hint, turns, profile, created_at, last_activity_at
		FROM sessions
		WHERE id = $1
	`

	return s.scanSession(s.db.QueryRowContext(ctx, query, id))
}

func (s *SessionStore) scanSession(row *sql.Row) (*domain.Session, error) {
	var session domain.Session
	var turnsJSON, profileJSON []byte

	err := row.Scan(
		&session.ID,
		&session.IdentityHint,
		&turnsJSON,
		&profileJSON,
		&session.CreatedAt,
		&session.LastActivityAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(turnsJSON, &session.Turns); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(profileJSON, &session.Profile); err != nil {
		return nil, err
	}
	if session.Profile == nil {
		session.Profile = make(map[string]string)
	}

	return &session, nil
}

// Update persists the session's turns, profile and activity time
func (s *SessionStore) Update(ctx context.Context, session *domain.Session) error {
	turnsJSON, err := json.Marshal(session.Turns)
	if err != nil {
		return err
	}
	profileJSON, err := json.Marshal(session.Profile)
	if err != nil {
		return err
	}

	query := `
		UPDATE sessions
		SET turns = $2, profile = $3, last_activity_at = $4
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query,
		session.ID,
		turnsJSON,
		profileJSON,
		session.LastActivityAt,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}

// SweepExpired removes sessions idle longer than maxIdle
func (s *SessionStore) SweepExpired(ctx context.Context, maxIdle time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-maxIdle)

	query := `DELETE FROM sessions WHERE last_activity_at < $1`
	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(rowsAffected), nil
}
