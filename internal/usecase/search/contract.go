package search

import (
	"context"

	"github.com/Omar-Sa03/rag-api/internal/domain/search/result"
)

// VectorIndex is the externally-owned nearest-neighbor capability. Results
// arrive best first with similarity already derived from distance.
type VectorIndex interface {
	Query(ctx context.Context, text string, k int) ([]result.Result, error)
}

// LexicalIndex is the BM25 side of retrieval.
type LexicalIndex interface {
	Search(ctx context.Context, query string, n int) ([]result.Result, error)
	Rebuild(ctx context.Context) error
	Documents() int
}

// RerankScorer scores query/text pairs, one score per text in input order.
type RerankScorer interface {
	ScoreBatch(ctx context.Context, query string, texts []string) ([]float64, error)
}
