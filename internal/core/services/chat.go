package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/plantops/advisor-core/internal/core/domain"
	"github.com/plantops/advisor-core/internal/core/ports/driven"
	"github.com/plantops/advisor-core/internal/core/ports/driving"
)

// DefaultHistoryWindow is how many recent turns travel with the context
// bundle to the generation backend
const DefaultHistoryWindow = 10

// Ensure chatService implements ChatService
var _ driving.ChatService = (*chatService)(nil)

// chatService composes the core per inbound message: cache check, session
// resolution, retrieval, context assembly, generation, persistence.
type chatService struct {
	sessions  driven.SessionStore
	retrieval *RetrievalService
	cache     driven.ResponseCache
	generator driven.Generator
	logger    *slog.Logger

	historyWindow int
	maxTurns      int
	cacheTTL      time.Duration
}

// ChatConfig holds configuration for the chat orchestrator
type ChatConfig struct {
	Sessions  driven.SessionStore
	Retrieval *RetrievalService
	Cache     driven.ResponseCache
	Generator driven.Generator
	Logger    *slog.Logger

	HistoryWindow int           // turns handed to the generator
	MaxTurns      int           // history cap per session
	CacheTTL      time.Duration // response memoization window
}

// NewChatService creates a new ChatService
func NewChatService(cfg ChatConfig) driving.ChatService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	historyWindow := cfg.HistoryWindow
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindow
	}
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = domain.DefaultMaxTurns
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = domain.DefaultCacheTTL
	}
	return &chatService{
		sessions:      cfg.Sessions,
		retrieval:     cfg.Retrieval,
		cache:         cfg.Cache,
		generator:     cfg.Generator,
		logger:        logger,
		historyWindow: historyWindow,
		maxTurns:      maxTurns,
		cacheTTL:      cacheTTL,
	}
}

// HandleMessage produces a reply for one inbound message.
//
// The session path is not degradable: a request with no session would
// silently corrupt conversational history, so store failures surface.
// Retrieval and cache failures degrade silently.
func (s *chatService) HandleMessage(ctx context.Context, identityHint, text string) (*domain.Reply, error) {
	start := time.Now()

	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrInvalidInput
	}
	if identityHint == "" {
		return nil, domain.ErrInvalidInput
	}

	session, created, err := s.sessions.GetOrCreate(ctx, identityHint)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if created {
		s.logger.Info("session created", "session_id", session.ID)
	}

	normalized := normalizeText(text)
	fp := fingerprint(normalized, identityHint, session.Profile)

	// Cache hit still appends the turn: memory update must never be
	// skipped just because the answer was memoized
	if cached, ok := s.cacheLookup(ctx, fp); ok {
		if err := s.persistTurn(ctx, session, text, cached, true); err != nil {
			return nil, err
		}
		return &domain.Reply{
			Text: cached,
			Diagnostics: domain.Diagnostics{
				SessionID: session.ID,
				CacheHit:  true,
				Took:      time.Since(start),
			},
		}, nil
	}

	retrieved := s.retrieval.Retrieve(ctx, normalized)

	bundle := domain.ContextBundle{
		Query:   text,
		Chunks:  retrieved.Chunks,
		History: session.LastTurns(s.historyWindow),
		Profile: session.Profile,
	}

	response, err := s.generator.Generate(ctx, bundle)
	if err != nil {
		if !errors.Is(err, domain.ErrGenerationFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
		}
		return nil, err
	}

	session.MergeProfile(extractSignals(text))
	if err := s.persistTurn(ctx, session, text, response, false); err != nil {
		return nil, err
	}

	// Best-effort memoization against the post-update profile is wrong:
	// the fingerprint must match what an identical follow-up derives, and
	// the follow-up sees the updated profile. Recompute it.
	followupFp := fingerprint(normalized, identityHint, session.Profile)
	if err := s.cache.Store(ctx, followupFp, response, s.cacheTTL); err != nil {
		s.logger.Warn("response cache store failed", "error", err)
	}

	scores := make([]float64, len(retrieved.Chunks))
	for i, chunk := range retrieved.Chunks {
		scores[i] = chunk.Score
	}

	return &domain.Reply{
		Text: response,
		Diagnostics: domain.Diagnostics{
			SessionID:       session.ID,
			CacheHit:        false,
			RetrievalScores: scores,
			Took:            time.Since(start),
		},
	}, nil
}

// cacheLookup degrades every cache failure to a miss
func (s *chatService) cacheLookup(ctx context.Context, fp string) (string, bool) {
	value, ok, err := s.cache.Lookup(ctx, fp)
	if err != nil {
		s.logger.Warn("response cache lookup failed, treating as miss", "error", err)
		return "", false
	}
	return value, ok
}

// persistTurn appends the turn and saves the session. Session persistence
// failures are contract violations and fail loudly.
func (s *chatService) persistTurn(ctx context.Context, session *domain.Session, userText, responseText string, cacheHit bool) error {
	session.AppendTurn(domain.Turn{
		UserText:     userText,
		ResponseText: responseText,
		CacheHit:     cacheHit,
		CreatedAt:    time.Now(),
	}, s.maxTurns)
	if err := s.sessions.Update(ctx, session); err != nil {
		return fmt.Errorf("persist turn: %w", err)
	}
	return nil
}
