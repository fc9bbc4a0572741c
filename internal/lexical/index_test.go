package lexical

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/Omar-Sa03/rag-api/internal/domain"
)

type staticLister struct {
	corpus domain.Corpus
	err    error
}

func (l *staticLister) ListAll(_ context.Context) (domain.Corpus, error) {
	return l.corpus, l.err
}

func petCorpus() domain.Corpus {
	return domain.Corpus{
		IDs: []string{"doc1", "doc2", "doc3"},
		Texts: []string{
			"The cat sat on the mat",
			"Dogs are loyal companions",
			"Cats and dogs are common pets",
		},
		Metadatas: []domain.Metadata{{"n": 1}, {"n": 2}, {"n": 3}},
	}
}

func TestSearchExactTermMatch(t *testing.T) {
	idx := New(&staticLister{corpus: petCorpus()}, zap.NewNop())

	got, err := idx.Search(context.Background(), "cats", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1 (no stemming, cat != cats)", len(got))
	}
	if got[0].ID() != "doc3" {
		t.Errorf("top result = %s, want doc3", got[0].ID())
	}
	if got[0].Rank() != 1 {
		t.Errorf("rank = %d, want 1", got[0].Rank())
	}
	if score, ok := got[0].BM25Score(); !ok || score <= 0 {
		t.Errorf("bm25 score = %v (ok=%v), want positive", score, ok)
	}
}

func TestSearchCommonTermLengthNormalization(t *testing.T) {
	idx := New(&staticLister{corpus: petCorpus()}, zap.NewNop())

	// "are" appears in doc2 and doc3; negative raw IDF is floored to a
	// positive epsilon, and the shorter doc2 scores higher.
	got, err := idx.Search(context.Background(), "are", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].ID() != "doc2" || got[1].ID() != "doc3" {
		t.Errorf("order = [%s %s], want [doc2 doc3]", got[0].ID(), got[1].ID())
	}
}

func TestSearchNoMatches(t *testing.T) {
	idx := New(&staticLister{corpus: petCorpus()}, zap.NewNop())

	got, err := idx.Search(context.Background(), "zebra", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d results, want 0", len(got))
	}
}

func TestSearchEmptyCorpus(t *testing.T) {
	idx := New(&staticLister{}, zap.NewNop())

	got, err := idx.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d results, want 0", len(got))
	}
}

func TestSearchTieBreakCorpusOrder(t *testing.T) {
	corpus := domain.Corpus{
		IDs:       []string{"a", "b", "c"},
		Texts:     []string{"apple banana", "apple banana", "cherry"},
		Metadatas: []domain.Metadata{{}, {}, {}},
	}
	idx := New(&staticLister{corpus: corpus}, zap.NewNop())

	got, err := idx.Search(context.Background(), "apple", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].ID() != "a" || got[1].ID() != "b" {
		t.Errorf("order = [%s %s], want corpus order [a b]", got[0].ID(), got[1].ID())
	}
}

func TestSearchListError(t *testing.T) {
	wantErr := errors.New("store down")
	idx := New(&staticLister{err: wantErr}, zap.NewNop())

	if _, err := idx.Search(context.Background(), "q", 5); !errors.Is(err, wantErr) {
		t.Errorf("Search() error = %v, want %v", err, wantErr)
	}
}

type blockingLister struct {
	entered  chan struct{}
	release  chan struct{}
	corpus   domain.Corpus
	listOnce bool
}

func (l *blockingLister) ListAll(_ context.Context) (domain.Corpus, error) {
	if !l.listOnce {
		l.listOnce = true
		close(l.entered)
		<-l.release
	}
	return l.corpus, nil
}

func TestRebuildConcurrentRejected(t *testing.T) {
	lister := &blockingLister{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		corpus:  petCorpus(),
	}
	idx := New(lister, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- idx.Rebuild(context.Background()) }()
	<-lister.entered

	if err := idx.Rebuild(context.Background()); !errors.Is(err, domain.ErrRebuildInProgress) {
		t.Errorf("concurrent Rebuild() error = %v, want ErrRebuildInProgress", err)
	}

	close(lister.release)
	if err := <-done; err != nil {
		t.Fatalf("first Rebuild() error = %v", err)
	}
	if got := idx.Documents(); got != 3 {
		t.Errorf("Documents() = %d, want 3", got)
	}

	// The flag is released, so rebuilding again succeeds.
	if err := idx.Rebuild(context.Background()); err != nil {
		t.Errorf("Rebuild() after completion error = %v", err)
	}
}

func TestDocumentsBeforeBuild(t *testing.T) {
	idx := New(&staticLister{corpus: petCorpus()}, zap.NewNop())
	if got := idx.Documents(); got != 0 {
		t.Errorf("Documents() = %d, want 0 before first build", got)
	}
}
