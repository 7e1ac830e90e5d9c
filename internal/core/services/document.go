package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/plantops/advisor-core/internal/core/domain"
	"github.com/plantops/advisor-core/internal/core/ports/driven"
	"github.com/plantops/advisor-core/internal/core/ports/driving"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

// documentService implements the DocumentService interface. Every ingest
// and remove keeps the similarity index consistent with the chunk store.
type documentService struct {
	documentStore driven.DocumentStore
	chunkStore    driven.ChunkStore
	index         driven.SearchIndex
	pipeline      driven.PostProcessorPipeline
	logger        *slog.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	documentStore driven.DocumentStore,
	chunkStore driven.ChunkStore,
	index driven.SearchIndex,
	pipeline driven.PostProcessorPipeline,
	logger *slog.Logger,
) driving.DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentService{
		documentStore: documentStore,
		chunkStore:    chunkStore,
		index:         index,
		pipeline:      pipeline,
		logger:        logger,
	}
}

// Ingest splits text into overlapping chunks, persists document and chunks,
// then inserts the chunks into the similarity index
func (s *documentService) Ingest(ctx context.Context, content, sourceLabel string) (*domain.IngestResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, domain.ErrEmptyDocument
	}

	now := time.Now()
	doc := &domain.Document{
		ID:          generateID(),
		SourceLabel: sourceLabel,
		Content:     content,
		IngestedAt:  now,
	}

	textChunks := s.pipeline.Process(content)
	if len(textChunks) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	chunks := make([]*domain.Chunk, len(textChunks))
	for i, tc := range textChunks {
		chunks[i] = &domain.Chunk{
			ID:         fmt.Sprintf("%s:%d", doc.ID, tc.Position),
			DocumentID: doc.ID,
			Content:    tc.Content,
			Position:   tc.Position,
			StartChar:  tc.StartOffset,
			EndChar:    tc.EndOffset,
			CreatedAt:  now,
		}
	}

	if err := s.documentStore.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	if err := s.chunkStore.SaveBatch(ctx, chunks); err != nil {
		return nil, fmt.Errorf("save chunks: %w", err)
	}
	if err := s.index.Insert(ctx, chunks); err != nil {
		return nil, fmt.Errorf("index chunks: %w", err)
	}

	s.logger.Info("document ingested",
		"document_id", doc.ID,
		"source", sourceLabel,
		"chunks", len(chunks))

	return &domain.IngestResult{DocumentID: doc.ID, ChunkCount: len(chunks)}, nil
}

// Get retrieves a document by ID
func (s *documentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.documentStore.Get(ctx, id)
}

// GetWithChunks retrieves a document with its chunks
func (s *documentService) GetWithChunks(ctx context.Context, id string) (*domain.DocumentWithChunks, error) {
	doc, err := s.documentStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	chunks, err := s.chunkStore.GetByDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.DocumentWithChunks{Document: doc, Chunks: chunks}, nil
}

// Remove deletes the document and cascades chunk removal through the store
// and the index
func (s *documentService) Remove(ctx context.Context, id string) error {
	if _, err := s.documentStore.Get(ctx, id); err != nil {
		return err
	}

	// Chunk IDs must be collected before the document row goes: the
	// schema cascades chunk deletion with the document, and the index
	// can only unindex IDs it is handed
	chunkIDs, err := s.chunkStore.DeleteByDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := s.index.Remove(ctx, chunkIDs); err != nil {
		return fmt.Errorf("unindex chunks: %w", err)
	}
	if err := s.documentStore.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("document removed", "document_id", id, "chunks", len(chunkIDs))
	return nil
}

// List returns documents, newest first
func (s *documentService) List(ctx context.Context, limit, offset int) ([]*domain.Document, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	return s.documentStore.List(ctx, limit, offset)
}

// Count returns the total number of documents
func (s *documentService) Count(ctx context.Context) (int, error) {
	return s.documentStore.Count(ctx)
}

// RebuildIndex reloads every stored chunk into the similarity index.
// Called once at startup: the index is in-process state and the host
// environment recycles processes.
func RebuildIndex(ctx context.Context, chunkStore driven.ChunkStore, index driven.SearchIndex, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	chunks, err := chunkStore.All(ctx)
	if err != nil {
		return fmt.Errorf("load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := index.Insert(ctx, chunks); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	logger.Info("similarity index rebuilt", "chunks", len(chunks))
	return nil
}

// generateID creates a random hex identifier
func generateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
