package tfidf

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/plantops/advisor-core/internal/core/domain"
	"github.com/plantops/advisor-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SearchIndex = (*Index)(nil)

// Index implements driven.SearchIndex with an in-process TF-IDF scheme.
//
// Raw term-frequency tables are updated eagerly on insert/remove; the IDF
// table and the normalized weight vectors depend on the whole corpus, so
// they are recomputed lazily on the first query after a mutation. The
// recomputed weights live in an immutable snapshot that is swapped in
// atomically and memoized against the generation counter, so repeated
// queries between mutations skip the recomputation and a query racing a
// mutation always scores against a complete snapshot of some generation.
type Index struct {
	mu      sync.Mutex // guards entries, df, nextSeq
	entries map[string]*chunkEntry
	df      map[string]int // term -> number of chunks containing it
	nextSeq uint64

	generation atomic.Uint64
	snap       atomic.Pointer[snapshot]
	rebuildMu  sync.Mutex

	tok *tokenizer
}

// chunkEntry holds the raw term counts for one chunk. Entries are immutable
// after insertion; re-indexing replaces them wholesale.
type chunkEntry struct {
	id         string
	documentID string
	content    string
	terms      map[string]int
	total      int
	seq        uint64 // ingestion order, newest wins score ties
}

// snapshot is an immutable view of the index weights at one generation.
// postings maps term -> chunk ID -> L2-normalized TF-IDF weight.
type snapshot struct {
	generation uint64
	idf        map[string]float64
	postings   map[string]map[string]float64
	entries    map[string]*chunkEntry
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{
		entries: make(map[string]*chunkEntry),
		df:      make(map[string]int),
		tok:     newTokenizer(),
	}
}

// Insert adds chunks to the raw tables and bumps the generation
func (i *Index) Insert(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, chunk := range chunks {
		if old, ok := i.entries[chunk.ID]; ok {
			i.dropTermsLocked(old)
		}
		entry := &chunkEntry{
			id:         chunk.ID,
			documentID: chunk.DocumentID,
			content:    chunk.Content,
			terms:      make(map[string]int),
			seq:        i.nextSeq,
		}
		i.nextSeq++
		for _, term := range i.tok.tokenize(chunk.Content) {
			entry.terms[term]++
			entry.total++
		}
		for term := range entry.terms {
			i.df[term]++
		}
		i.entries[chunk.ID] = entry
	}
	i.generation.Add(1)
	return nil
}

// Remove deletes chunks from the raw tables and bumps the generation.
// Unknown IDs are ignored.
func (i *Index) Remove(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	changed := false
	for _, id := range chunkIDs {
		entry, ok := i.entries[id]
		if !ok {
			continue
		}
		i.dropTermsLocked(entry)
		delete(i.entries, id)
		changed = true
	}
	if changed {
		i.generation.Add(1)
	}
	return nil
}

func (i *Index) dropTermsLocked(entry *chunkEntry) {
	for term := range entry.terms {
		if i.df[term] <= 1 {
			delete(i.df, term)
		} else {
			i.df[term]--
		}
	}
}

// Query scores every chunk by cosine similarity against the text and
// returns the topK highest, ties broken by most-recently-ingested first
func (i *Index) Query(ctx context.Context, text string, topK int) ([]domain.ChunkScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 5
	}

	snap := i.currentSnapshot()
	if len(snap.entries) == 0 {
		return []domain.ChunkScore{}, nil
	}

	queryVec := snap.vectorize(i.tok.tokenize(text))
	if len(queryVec) == 0 {
		return []domain.ChunkScore{}, nil
	}

	scores := make(map[string]float64)
	for term, qw := range queryVec {
		for chunkID, cw := range snap.postings[term] {
			scores[chunkID] += qw * cw
		}
	}

	hits := make([]domain.ChunkScore, 0, len(scores))
	for chunkID, score := range scores {
		entry := snap.entries[chunkID]
		if score > 1 {
			score = 1 // guard against float drift
		}
		hits = append(hits, domain.ChunkScore{
			ChunkID:    entry.id,
			DocumentID: entry.documentID,
			Content:    entry.content,
			Score:      score,
		})
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return snap.entries[hits[a].ChunkID].seq > snap.entries[hits[b].ChunkID].seq
	})
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

// Generation returns the current index version
func (i *Index) Generation() uint64 {
	return i.generation.Load()
}

// currentSnapshot returns the memoized snapshot, recomputing weights first
// if any mutation happened since it was built. Recomputation always runs to
// completion; a stale snapshot simply stays in place until the fresh one is
// swapped in.
func (i *Index) currentSnapshot() *snapshot {
	if snap := i.snap.Load(); snap != nil && snap.generation == i.generation.Load() {
		return snap
	}

	i.rebuildMu.Lock()
	defer i.rebuildMu.Unlock()

	// Another query may have rebuilt while we waited
	if snap := i.snap.Load(); snap != nil && snap.generation == i.generation.Load() {
		return snap
	}

	i.mu.Lock()
	generation := i.generation.Load()
	entries := make(map[string]*chunkEntry, len(i.entries))
	for id, entry := range i.entries {
		entries[id] = entry
	}
	df := make(map[string]int, len(i.df))
	for term, n := range i.df {
		df[term] = n
	}
	i.mu.Unlock()

	snap := buildSnapshot(generation, entries, df)
	i.snap.Store(snap)
	return snap
}

// buildSnapshot computes smoothed IDF values and L2-normalized TF-IDF
// weight vectors for every chunk
func buildSnapshot(generation uint64, entries map[string]*chunkEntry, df map[string]int) *snapshot {
	n := float64(len(entries))
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log((1+n)/(1+float64(count))) + 1.0
	}

	postings := make(map[string]map[string]float64, len(df))
	for id, entry := range entries {
		if entry.total == 0 {
			continue
		}
		norm := 0.0
		weights := make(map[string]float64, len(entry.terms))
		for term, count := range entry.terms {
			w := (float64(count) / float64(entry.total)) * idf[term]
			weights[term] = w
			norm += w * w
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			continue
		}
		for term, w := range weights {
			posting, ok := postings[term]
			if !ok {
				posting = make(map[string]float64)
				postings[term] = posting
			}
			posting[id] = w / norm
		}
	}

	return &snapshot{
		generation: generation,
		idf:        idf,
		postings:   postings,
		entries:    entries,
	}
}

// vectorize converts query tokens into the snapshot's vector space,
// ignoring terms outside the corpus vocabulary
func (s *snapshot) vectorize(tokens []string) map[string]float64 {
	tf := make(map[string]int)
	total := 0
	for _, tok := range tokens {
		if _, ok := s.idf[tok]; !ok {
			continue
		}
		tf[tok]++
		total++
	}
	if total == 0 {
		return nil
	}
	vec := make(map[string]float64, len(tf))
	norm := 0.0
	for term, count := range tf {
		w := (float64(count) / float64(total)) * s.idf[term]
		vec[term] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for term := range vec {
		vec[term] /= norm
	}
	return vec
}
