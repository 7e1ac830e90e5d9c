package domain

import "time"

// Diagnostics describes how a reply was produced, for observability.
// It deliberately exposes no internal structures.
type Diagnostics struct {
	SessionID       string        `json:"session_id"`
	CacheHit        bool          `json:"cache_hit"`
	RetrievalScores []float64     `json:"retrieval_scores,omitempty"`
	Took            time.Duration `json:"took"`
}

// Reply is the outcome of one inbound message
type Reply struct {
	Text        string      `json:"text"`
	Diagnostics Diagnostics `json:"diagnostics"`
}
