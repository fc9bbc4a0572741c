// Package lexical implements the BM25 side of hybrid retrieval: an
// in-memory inverted index rebuilt on demand from the document store.
package lexical

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Omar-Sa03/rag-api/internal/domain"
	"github.com/Omar-Sa03/rag-api/internal/domain/search/result"
)

// CorpusLister pulls a full corpus snapshot from the document store.
type CorpusLister interface {
	ListAll(ctx context.Context) (domain.Corpus, error)
}

// Index serves BM25 queries over an immutable snapshot that is swapped
// atomically on rebuild. Reads never block and never see a partially built
// index.
type Index struct {
	source     CorpusLister
	snap       atomic.Pointer[snapshot]
	rebuilding atomic.Bool
	logger     *zap.Logger
}

// New creates an index over the given corpus source. The first Search builds
// the snapshot lazily; call Rebuild after corpus mutations.
func New(source CorpusLister, logger *zap.Logger) *Index {
	return &Index{source: source, logger: logger}
}

// Search scores the query against the current snapshot and returns the top n
// documents with positive scores. An empty corpus or a query matching
// nothing yields an empty result, not an error.
func (i *Index) Search(ctx context.Context, query string, n int) ([]result.Result, error) {
	snap := i.snap.Load()
	if snap == nil {
		if err := i.Rebuild(ctx); err != nil && !errors.Is(err, domain.ErrRebuildInProgress) {
			return nil, err
		}
		if snap = i.snap.Load(); snap == nil {
			// A concurrent first build has not published yet.
			return nil, nil
		}
	}
	return snap.search(query, n), nil
}

// Rebuild pulls a fresh corpus from the source, builds a new snapshot off to
// the side, and publishes it atomically. A rebuild that is already running
// is reported with domain.ErrRebuildInProgress, never queued.
func (i *Index) Rebuild(ctx context.Context) error {
	if !i.rebuilding.CompareAndSwap(false, true) {
		return domain.ErrRebuildInProgress
	}
	defer i.rebuilding.Store(false)

	corpus, err := i.source.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list corpus: %w", err)
	}

	i.snap.Store(buildSnapshot(corpus))
	i.logger.Info("lexical index rebuilt", zap.Int("documents", corpus.Len()))
	return nil
}

// Documents returns the number of indexed documents, 0 before the first
// build.
func (i *Index) Documents() int {
	if snap := i.snap.Load(); snap != nil {
		return len(snap.ids)
	}
	return 0
}
