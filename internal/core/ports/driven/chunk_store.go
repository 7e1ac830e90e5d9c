package driven

import (
	"context"

	"github.com/plantops/advisor-core/internal/core/domain"
)

// ChunkStore handles chunk persistence (PostgreSQL)
type ChunkStore interface {
	// SaveBatch saves multiple chunks in a transaction
	SaveBatch(ctx context.Context, chunks []*domain.Chunk) error

	// GetByDocument retrieves all chunks for a document, ordered by position
	GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error)

	// DeleteByDocument removes all chunks for a document and returns the
	// IDs of the removed chunks so the caller can cascade index removal
	DeleteByDocument(ctx context.Context, documentID string) ([]string, error)

	// All returns every stored chunk, ordered by creation time.
	// Used to rebuild the in-process similarity index after a restart.
	All(ctx context.Context) ([]*domain.Chunk, error)
}
