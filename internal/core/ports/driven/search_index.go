package driven

import (
	"context"

	"github.com/plantops/advisor-core/internal/core/domain"
)

// SearchIndex maintains term-weight vectors for every stored chunk and
// scores queries against them.
//
// The index is versioned by a monotonically increasing generation counter:
// every insert or removal bumps it, and cached weight computations tied to a
// stale generation are discarded on the next query. A query racing a
// mutation sees either the pre- or post-mutation state, never a partially
// applied vector.
type SearchIndex interface {
	// Insert adds chunks to the index and marks it dirty
	Insert(ctx context.Context, chunks []*domain.Chunk) error

	// Remove deletes chunks from the index and marks it dirty.
	// Unknown IDs are ignored.
	Remove(ctx context.Context, chunkIDs []string) error

	// Query ranks every chunk by cosine similarity against the text and
	// returns the topK highest, ties broken by most-recently-ingested
	// first. Scores are in [0,1]. An empty index yields an empty result,
	// not an error.
	Query(ctx context.Context, text string, topK int) ([]domain.ChunkScore, error)

	// Generation returns the current index version
	Generation() uint64
}
