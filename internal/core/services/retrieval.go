package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/plantops/advisor-core/internal/core/domain"
	"github.com/plantops/advisor-core/internal/core/ports/driven"
)

const (
	// DefaultMinScore excludes low-signal matches even inside the topK
	DefaultMinScore = 0.15

	// DefaultTopK is how many index hits are considered per query
	DefaultTopK = 5
)

// RetrievalService is a thin policy layer over the similarity index: it
// applies the minimum-score threshold and deduplicates hits by owning
// document. Retrieval is an enhancement, never a required path, so every
// index error degrades to an empty result.
type RetrievalService struct {
	index    driven.SearchIndex
	logger   *slog.Logger
	minScore float64
	topK     int
}

// NewRetrievalService creates a new RetrievalService
func NewRetrievalService(index driven.SearchIndex, minScore float64, topK int, logger *slog.Logger) *RetrievalService {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrievalService{
		index:    index,
		logger:   logger,
		minScore: minScore,
		topK:     topK,
	}
}

// Retrieve returns ranked context chunks for the query. On any index error
// the result is empty, not an error: the user still gets an answer, just
// less informed.
func (s *RetrievalService) Retrieve(ctx context.Context, query string) domain.RetrievalResult {
	start := time.Now()
	result := domain.RetrievalResult{Query: query}

	hits, err := s.index.Query(ctx, query, s.topK)
	if err != nil {
		s.logger.Warn("retrieval degraded to empty context", "error", err)
		result.Took = time.Since(start)
		return result
	}

	seen := make(map[string]struct{}, len(hits))
	for _, hit := range hits {
		if hit.Score < s.minScore {
			continue
		}
		// Hits arrive ranked, so the first chunk per document is its best
		if _, dup := seen[hit.DocumentID]; dup {
			continue
		}
		seen[hit.DocumentID] = struct{}{}
		result.Chunks = append(result.Chunks, domain.RetrievedChunk{
			DocumentID: hit.DocumentID,
			Content:    hit.Content,
			Score:      hit.Score,
		})
	}

	result.Took = time.Since(start)
	return result
}
