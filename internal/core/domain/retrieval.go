package domain

import "time"

// ChunkScore is a raw index hit: a chunk and its cosine similarity to the
// query, in [0,1].
type ChunkScore struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

// RetrievedChunk is an index hit that passed the retrieval policy
// (minimum score, one chunk per document).
type RetrievedChunk struct {
	DocumentID string  `json:"document_id"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

// RetrievalResult is the ranked context returned for a query. An empty
// result is normal: retrieval is an enhancement, not a required path.
type RetrievalResult struct {
	Query  string           `json:"query"`
	Chunks []RetrievedChunk `json:"chunks"`
	Took   time.Duration    `json:"took"`
}

// ContextBundle is the bounded-size context handed to the
// language-generation backend.
type ContextBundle struct {
	Query   string            `json:"query"`
	Chunks  []RetrievedChunk  `json:"chunks"`
	History []Turn            `json:"history"`
	Profile map[string]string `json:"profile"`
}
