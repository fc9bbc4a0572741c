package result

import "github.com/Omar-Sa03/rag-api/internal/domain"

// Result is a single search hit. Score fields are optional provenance: each
// retrieval stage (vector, bm25, fusion, rerank) attaches its own score
// without erasing the earlier ones.
type Result struct {
	id       string
	text     string
	metadata domain.Metadata
	rank     int

	similarity *float64
	bm25       *float64
	rrf        *float64
	rerank     *float64
}

// New creates a search result.
func New(id, text string, metadata domain.Metadata) Result {
	return Result{id: id, text: text, metadata: metadata}
}

// ID returns the document identifier.
func (r Result) ID() string { return r.id }

// Text returns the document text.
func (r Result) Text() string { return r.text }

// Metadata returns the document metadata.
func (r Result) Metadata() domain.Metadata { return r.metadata }

// Rank returns the 1-based position in the ranking that produced this result.
func (r Result) Rank() int { return r.rank }

// SimilarityScore returns the cosine similarity from the vector stage.
func (r Result) SimilarityScore() (float64, bool) { return deref(r.similarity) }

// BM25Score returns the score from the lexical stage.
func (r Result) BM25Score() (float64, bool) { return deref(r.bm25) }

// RRFScore returns the fused reciprocal rank score.
func (r Result) RRFScore() (float64, bool) { return deref(r.rrf) }

// RerankScore returns the cross-encoder relevance score.
func (r Result) RerankScore() (float64, bool) { return deref(r.rerank) }

// WithRank returns a copy with the rank set.
func (r Result) WithRank(rank int) Result {
	r.rank = rank
	return r
}

// WithSimilarityScore returns a copy with the vector similarity attached.
func (r Result) WithSimilarityScore(score float64) Result {
	r.similarity = &score
	return r
}

// WithBM25Score returns a copy with the lexical score attached.
func (r Result) WithBM25Score(score float64) Result {
	r.bm25 = &score
	return r
}

// WithRRFScore returns a copy with the fused score attached.
func (r Result) WithRRFScore(score float64) Result {
	r.rrf = &score
	return r
}

// WithRerankScore returns a copy with the rerank score attached.
func (r Result) WithRerankScore(score float64) Result {
	r.rerank = &score
	return r
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
