package tfidf

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/plantops/advisor-core/internal/core/domain"
)

func chunk(id, docID, content string) *domain.Chunk {
	return &domain.Chunk{
		ID:         id,
		DocumentID: docID,
		Content:    content,
		CreatedAt:  time.Now(),
	}
}

func TestIndex_Query_EmptyIndex(t *testing.T) {
	idx := NewIndex()

	hits, err := idx.Query(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected empty result, got %d hits", len(hits))
	}
}

func TestIndex_RelevanceOrdering(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	err := idx.Insert(ctx, []*domain.Chunk{
		chunk("c1", "d1", "cement grade 43 specification"),
		chunk("c2", "d2", "unrelated delivery schedule"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hits, err := idx.Query(ctx, "grade 43 strength", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].ChunkID != "c1" {
		t.Fatalf("expected c1 ranked first, got %s", hits[0].ChunkID)
	}
	if hits[0].Score < 0.15 {
		t.Errorf("expected c1 above the minimum score threshold, got %f", hits[0].Score)
	}
	for _, hit := range hits[1:] {
		if hit.ChunkID == "c2" && hit.Score >= 0.15 {
			t.Errorf("expected c2 absent or below threshold, got score %f", hit.Score)
		}
	}
}

func TestIndex_ScoreBounds(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	_ = idx.Insert(ctx, []*domain.Chunk{
		chunk("c1", "d1", "stock of opc43 is 500 tons"),
		chunk("c2", "d2", "cement strength testing procedure"),
	})

	hits, err := idx.Query(ctx, "stock of opc43 is 500 tons", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, hit := range hits {
		if hit.Score < 0 || hit.Score > 1 {
			t.Errorf("score out of [0,1]: %f for %s", hit.Score, hit.ChunkID)
		}
	}
	// Identical text scores maximally
	if hits[0].ChunkID != "c1" || hits[0].Score < 0.99 {
		t.Errorf("expected exact match near 1.0, got %s at %f", hits[0].ChunkID, hits[0].Score)
	}
}

func TestIndex_DuplicateContentBothDiscoverable(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	text := "monthly clinker production report"
	_ = idx.Insert(ctx, []*domain.Chunk{chunk("c1", "d1", text)})
	_ = idx.Insert(ctx, []*domain.Chunk{chunk("c2", "d2", text)})

	hits, err := idx.Query(ctx, "clinker production", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected both duplicates discoverable, got %d hits", len(hits))
	}
	// Equal scores: most recently ingested wins the tie
	if hits[0].ChunkID != "c2" {
		t.Errorf("expected newest chunk first on tie, got %s", hits[0].ChunkID)
	}

	// Removing one must not affect the other
	_ = idx.Remove(ctx, []string{"c1"})
	hits, _ = idx.Query(ctx, "clinker production", 10)
	if len(hits) != 1 || hits[0].ChunkID != "c2" {
		t.Fatalf("expected only c2 after removal, got %+v", hits)
	}
}

func TestIndex_RemovedChunkNeverScored(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	_ = idx.Insert(ctx, []*domain.Chunk{chunk("c1", "d1", "silo capacity overview")})
	if _, err := idx.Query(ctx, "silo capacity", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = idx.Remove(ctx, []string{"c1"})

	hits, err := idx.Query(ctx, "silo capacity", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, hit := range hits {
		if hit.ChunkID == "c1" {
			t.Error("removed chunk must never be returned")
		}
	}
}

func TestIndex_GenerationAdvancesOnMutation(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	start := idx.Generation()
	_ = idx.Insert(ctx, []*domain.Chunk{chunk("c1", "d1", "kiln temperature log")})
	afterInsert := idx.Generation()
	if afterInsert <= start {
		t.Error("expected generation bump on insert")
	}

	_ = idx.Remove(ctx, []string{"c1"})
	if idx.Generation() <= afterInsert {
		t.Error("expected generation bump on remove")
	}

	// Removing an unknown ID is a no-op and must not bump
	before := idx.Generation()
	_ = idx.Remove(ctx, []string{"ghost"})
	if idx.Generation() != before {
		t.Error("expected no generation bump for unknown IDs")
	}
}

func TestIndex_SnapshotMemoized(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	_ = idx.Insert(ctx, []*domain.Chunk{chunk("c1", "d1", "dispatch summary for january")})
	_, _ = idx.Query(ctx, "dispatch", 5)
	first := idx.snap.Load()
	_, _ = idx.Query(ctx, "summary", 5)
	if idx.snap.Load() != first {
		t.Error("expected the same snapshot to be reused between mutations")
	}

	_ = idx.Insert(ctx, []*domain.Chunk{chunk("c2", "d2", "dispatch summary for february")})
	_, _ = idx.Query(ctx, "dispatch", 5)
	if idx.snap.Load() == first {
		t.Error("expected a fresh snapshot after a mutation")
	}
}

func TestIndex_ConcurrentInsertQueryRemove(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for n := 0; n < 50; n++ {
				id := fmt.Sprintf("c-%d-%d", g, n)
				_ = idx.Insert(ctx, []*domain.Chunk{chunk(id, "d", "rotating stock ledger entry")})
				if _, err := idx.Query(ctx, "stock ledger", 3); err != nil {
					t.Errorf("query failed: %v", err)
					return
				}
				_ = idx.Remove(ctx, []string{id})
				hits, err := idx.Query(ctx, "stock ledger", 100)
				if err != nil {
					t.Errorf("query failed: %v", err)
					return
				}
				for _, hit := range hits {
					if hit.ChunkID == id {
						t.Errorf("query returned chunk %s after its removal", id)
						return
					}
				}
			}
		}(g)
	}
	wg.Wait()
}

func TestIndex_QueryWithNoVocabularyOverlap(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	_ = idx.Insert(ctx, []*domain.Chunk{chunk("c1", "d1", "cement stock report")})

	hits, err := idx.Query(ctx, "zzz qqq", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits for out-of-vocabulary query, got %d", len(hits))
	}
}
