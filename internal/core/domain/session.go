package domain

import "time"

// DefaultMaxTurns caps the conversation history kept per session.
// Oldest turns are evicted first once the cap is exceeded.
const DefaultMaxTurns = 100

// Turn is one request/response pair in a session's history
type Turn struct {
	UserText     string    `json:"user_text"`
	ResponseText string    `json:"response_text"`
	CacheHit     bool      `json:"cache_hit,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session holds durable, keyed conversational state for one identity.
// Sessions survive process restarts; they are only removed by the
// age-based sweep, never by normal operation.
type Session struct {
	ID             string            `json:"id"`
	IdentityHint   string            `json:"identity_hint"`
	CreatedAt      time.Time         `json:"created_at"`
	LastActivityAt time.Time         `json:"last_activity_at"`
	Turns          []Turn            `json:"turns"`
	Profile        map[string]string `json:"profile"`
}

// NewSession creates an empty session for an identity hint
func NewSession(id, identityHint string, now time.Time) *Session {
	return &Session{
		ID:             id,
		IdentityHint:   identityHint,
		CreatedAt:      now,
		LastActivityAt: now,
		Profile:        make(map[string]string),
	}
}

// AppendTurn appends a turn to the history, evicting the oldest turns
// FIFO once maxTurns is exceeded, and updates the activity time.
func (s *Session) AppendTurn(turn Turn, maxTurns int) {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	s.Turns = append(s.Turns, turn)
	if overflow := len(s.Turns) - maxTurns; overflow > 0 {
		s.Turns = append(s.Turns[:0:0], s.Turns[overflow:]...)
	}
	if turn.CreatedAt.After(s.LastActivityAt) {
		s.LastActivityAt = turn.CreatedAt
	}
}

// MergeProfile applies trait observations, last write wins per key
func (s *Session) MergeProfile(deltas map[string]string) {
	if len(deltas) == 0 {
		return
	}
	if s.Profile == nil {
		s.Profile = make(map[string]string, len(deltas))
	}
	for k, v := range deltas {
		s.Profile[k] = v
	}
}

// LastTurns returns up to n most recent turns in original order
func (s *Session) LastTurns(n int) []Turn {
	if n <= 0 || len(s.Turns) == 0 {
		return nil
	}
	if n > len(s.Turns) {
		n = len(s.Turns)
	}
	return s.Turns[len(s.Turns)-n:]
}

// IdleSince reports whether the session has seen no activity since the cutoff
func (s *Session) IdleSince(cutoff time.Time) bool {
	return s.LastActivityAt.Before(cutoff)
}
