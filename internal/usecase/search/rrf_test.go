package search

import (
	"math"
	"testing"

	"github.com/Omar-Sa03/rag-api/internal/domain"
	"github.com/Omar-Sa03/rag-api/internal/domain/search/result"
)

func res(id, text string) result.Result {
	return result.New(id, text, domain.Metadata{})
}

func TestFuseRRFSingleListScore(t *testing.T) {
	vec := []result.Result{res("a", "alpha")}

	fused := fuseRRF(vec, nil)
	if len(fused) != 1 {
		t.Fatalf("got %d results, want 1", len(fused))
	}

	score, ok := fused[0].RRFScore()
	if !ok {
		t.Fatal("missing rrf score")
	}
	if math.Abs(score-1.0/61.0) > 1e-9 {
		t.Errorf("rrf score = %v, want 1/61", score)
	}
	if fused[0].Rank() != 1 {
		t.Errorf("rank = %d, want 1", fused[0].Rank())
	}
}

func TestFuseRRFBothListsOutranksSingle(t *testing.T) {
	vec := []result.Result{res("both", "in both"), res("vecOnly", "vector only")}
	lex := []result.Result{res("both", "in both")}

	fused := fuseRRF(vec, lex)
	if len(fused) != 2 {
		t.Fatalf("got %d results, want 2", len(fused))
	}

	if fused[0].ID() != "both" {
		t.Fatalf("top result = %s, want the double-listed document", fused[0].ID())
	}
	score, _ := fused[0].RRFScore()
	if math.Abs(score-2.0/61.0) > 1e-9 {
		t.Errorf("rrf score = %v, want 2/61", score)
	}

	for i, r := range fused {
		if r.Rank() != i+1 {
			t.Errorf("rank at %d = %d, want dense 1..N", i, r.Rank())
		}
	}
}

func TestFuseRRFTieBreakVectorFirst(t *testing.T) {
	// Both documents score 1/62: rank 2 in exactly one list each. The one
	// seen in the vector list wins the tie.
	vec := []result.Result{res("shared", "s"), res("vecDoc", "v")}
	lex := []result.Result{res("shared", "s"), res("lexDoc", "l")}

	fused := fuseRRF(vec, lex)
	if len(fused) != 3 {
		t.Fatalf("got %d results, want 3", len(fused))
	}
	if fused[0].ID() != "shared" {
		t.Fatalf("top = %s, want shared", fused[0].ID())
	}
	if fused[1].ID() != "vecDoc" || fused[2].ID() != "lexDoc" {
		t.Errorf("tie order = [%s %s], want vector-list document first",
			fused[1].ID(), fused[2].ID())
	}
}

func TestFuseRRFCanonicalCopyFromVector(t *testing.T) {
	vec := []result.Result{res("a", "vector text").WithSimilarityScore(0.9)}
	lex := []result.Result{res("a", "lexical text").WithBM25Score(3.2)}

	fused := fuseRRF(vec, lex)
	if fused[0].Text() != "vector text" {
		t.Errorf("text = %q, want the vector copy", fused[0].Text())
	}
	if sim, ok := fused[0].SimilarityScore(); !ok || sim != 0.9 {
		t.Errorf("similarity = %v (ok=%v), want provenance preserved", sim, ok)
	}
	if bm25, ok := fused[0].BM25Score(); !ok || bm25 != 3.2 {
		t.Errorf("bm25 = %v (ok=%v), want provenance carried over", bm25, ok)
	}
}

func TestFuseRRFEmptyInputs(t *testing.T) {
	if got := fuseRRF(nil, nil); len(got) != 0 {
		t.Errorf("fuseRRF(nil, nil) = %v, want empty", got)
	}
}
