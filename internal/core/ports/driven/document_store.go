package driven

import (
	"context"

	"github.com/plantops/advisor-core/internal/core/domain"
)

// DocumentStore handles document persistence (PostgreSQL)
type DocumentStore interface {
	// Save creates a document
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID, domain.ErrNotFound if absent
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Delete removes a document, domain.ErrNotFound if absent
	Delete(ctx context.Context, id string) error

	// List returns documents ordered by ingestion time, newest first
	List(ctx context.Context, limit, offset int) ([]*domain.Document, error)

	// Count returns the total number of documents
	Count(ctx context.Context) (int, error)
}
