package search

import (
	"sort"

	"github.com/Omar-Sa03/rag-api/internal/domain/search/result"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// fuseRRF merges vector and bm25 rankings via Reciprocal Rank Fusion.
// score(d) = sum of 1/(k + rank_i(d)) over the lists where d appears, with
// 1-based positional ranks. Absence from a list is simply not counted.
// Exact score ties keep first-seen order, scanning the vector list before
// the lexical list; when a document appears in both, the vector copy is the
// canonical text/metadata and the bm25 score is carried as provenance.
func fuseRRF(vec, lex []result.Result) []result.Result {
	type scored struct {
		res   result.Result
		score float64
		seen  int
	}

	merged := make(map[string]*scored, len(vec)+len(lex))
	order := make([]string, 0, len(vec)+len(lex))

	for i, r := range vec {
		merged[r.ID()] = &scored{res: r, score: 1.0 / float64(rrfK+i+1), seen: len(order)}
		order = append(order, r.ID())
	}
	for i, r := range lex {
		s := 1.0 / float64(rrfK+i+1)
		if existing, ok := merged[r.ID()]; ok {
			existing.score += s
			if bm25, ok := r.BM25Score(); ok {
				existing.res = existing.res.WithBM25Score(bm25)
			}
			continue
		}
		merged[r.ID()] = &scored{res: r, score: s, seen: len(order)}
		order = append(order, r.ID())
	}

	fused := make([]*scored, 0, len(order))
	for _, id := range order {
		fused = append(fused, merged[id])
	}
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].score > fused[j].score
	})

	out := make([]result.Result, len(fused))
	for i, s := range fused {
		out[i] = s.res.WithRRFScore(s.score).WithRank(i + 1)
	}
	return out
}
