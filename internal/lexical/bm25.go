package lexical

import (
	"math"
	"sort"
	"strings"

	"github.com/Omar-Sa03/rag-api/internal/domain"
	"github.com/Omar-Sa03/rag-api/internal/domain/search/result"
)

// Okapi BM25 parameters. Negative IDFs are floored to epsilon times the mean
// IDF so common terms still contribute a small positive weight, keeping
// scores compatible with the rank_bm25 reference values.
const (
	k1      = 1.5
	b       = 0.75
	epsilon = 0.25
)

type posting struct {
	doc int
	tf  int
}

// snapshot is an immutable scoring structure over one corpus state. Queries
// walk the inverted postings lists, so cost is proportional to the query
// terms and their matching documents rather than the corpus size.
type snapshot struct {
	ids       []string
	texts     []string
	metadatas []domain.Metadata
	postings  map[string][]posting
	docLens   []int
	avgdl     float64
	idf       map[string]float64
}

func buildSnapshot(corpus domain.Corpus) *snapshot {
	n := corpus.Len()
	s := &snapshot{
		ids:       corpus.IDs,
		texts:     corpus.Texts,
		metadatas: corpus.Metadatas,
		postings:  make(map[string][]posting),
		docLens:   make([]int, n),
		idf:       make(map[string]float64),
	}

	totalLen := 0
	for i := 0; i < n; i++ {
		tokens := tokenize(corpus.Texts[i])
		s.docLens[i] = len(tokens)
		totalLen += len(tokens)

		freqs := make(map[string]int, len(tokens))
		for _, t := range tokens {
			freqs[t]++
		}
		for t, tf := range freqs {
			s.postings[t] = append(s.postings[t], posting{doc: i, tf: tf})
		}
	}
	if n == 0 {
		return s
	}
	s.avgdl = float64(totalLen) / float64(n)

	idfSum := 0.0
	var negative []string
	for t, plist := range s.postings {
		df := float64(len(plist))
		idf := math.Log((float64(n) - df + 0.5) / (df + 0.5))
		s.idf[t] = idf
		idfSum += idf
		if idf < 0 {
			negative = append(negative, t)
		}
	}
	eps := epsilon * idfSum / float64(len(s.idf))
	for _, t := range negative {
		s.idf[t] = eps
	}

	// Postings for a term arrive in corpus order already, but keep the
	// invariant explicit for score tie-breaking.
	for t := range s.postings {
		plist := s.postings[t]
		sort.Slice(plist, func(a, b int) bool { return plist[a].doc < plist[b].doc })
	}
	return s
}

// search returns the top n documents with a positive BM25 score for the
// query, best first. Exact score ties keep corpus order. Query terms are
// scored as a list, so a repeated term counts twice.
func (s *snapshot) search(query string, n int) []result.Result {
	if len(s.ids) == 0 || n <= 0 {
		return nil
	}

	scores := make(map[int]float64)
	for _, term := range tokenize(query) {
		idf, ok := s.idf[term]
		if !ok {
			continue
		}
		for _, p := range s.postings[term] {
			tf := float64(p.tf)
			norm := tf * (k1 + 1) / (tf + k1*(1-b+b*float64(s.docLens[p.doc])/s.avgdl))
			scores[p.doc] += idf * norm
		}
	}

	docs := make([]int, 0, len(scores))
	for doc, score := range scores {
		if score > 0 {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		if scores[docs[i]] != scores[docs[j]] {
			return scores[docs[i]] > scores[docs[j]]
		}
		return docs[i] < docs[j]
	})
	if len(docs) > n {
		docs = docs[:n]
	}

	out := make([]result.Result, len(docs))
	for i, doc := range docs {
		out[i] = result.New(s.ids[doc], s.texts[doc], s.metadatas[doc]).
			WithBM25Score(scores[doc]).
			WithRank(i + 1)
	}
	return out
}

// tokenize lowercases and splits on whitespace. No stemming, no stop words:
// matching is exact by design of the scoring scheme.
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
