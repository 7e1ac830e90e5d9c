package driving

import (
	"context"

	"github.com/plantops/advisor-core/internal/core/domain"
)

// DocumentService manages the document store and keeps the similarity
// index consistent with it.
type DocumentService interface {
	// Ingest splits the text into chunks, persists document and chunks and
	// inserts the chunks into the similarity index.
	// Returns domain.ErrEmptyDocument when the text holds no usable content.
	Ingest(ctx context.Context, content, sourceLabel string) (*domain.IngestResult, error)

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetWithChunks retrieves a document together with its chunks
	GetWithChunks(ctx context.Context, id string) (*domain.DocumentWithChunks, error)

	// Remove deletes a document and cascades removal of its chunks from
	// the store and the index. domain.ErrNotFound if the ID is unknown.
	Remove(ctx context.Context, id string) error

	// List returns documents, newest first
	List(ctx context.Context, limit, offset int) ([]*domain.Document, error)

	// Count returns the total number of documents
	Count(ctx context.Context) (int, error)
}
