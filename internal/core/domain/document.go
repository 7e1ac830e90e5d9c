package domain

import "time"

// Document represents an ingested text unit (file upload or prior answer).
// Documents are immutable once ingested except for deletion.
type Document struct {
	ID          string    `json:"id"`
	SourceLabel string    `json:"source_label"`
	Content     string    `json:"content"`
	IngestedAt  time.Time `json:"ingested_at"`
}

// Chunk is a bounded-length slice of a document's text, the unit of
// retrieval. A chunk never outlives its document and is replaced wholesale
// when its document changes.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Content    string    `json:"content"`
	Position   int       `json:"position"` // Chunk position within document
	StartChar  int       `json:"start_char"`
	EndChar    int       `json:"end_char"`
	CreatedAt  time.Time `json:"created_at"`
}

// DocumentWithChunks combines a document with its chunks
type DocumentWithChunks struct {
	Document *Document `json:"document"`
	Chunks   []*Chunk  `json:"chunks"`
}

// IngestResult reports the outcome of a document ingest
type IngestResult struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
}
