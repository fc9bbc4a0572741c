// Package ingest turns raw text and processed documents into embedded,
// persisted corpus entries.
package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/Omar-Sa03/rag-api/internal/chunking"
	"github.com/Omar-Sa03/rag-api/internal/domain"
)

// DocumentStore persists embedded documents.
type DocumentStore interface {
	Add(ctx context.Context, docs []domain.Document) error
}

// Params are the default chunker settings used when a request does not
// override them.
type Params struct {
	Strategy chunking.Strategy
	Size     int
	Overlap  int
}

// Service chunks, embeds, and stores incoming text. Embedding of a chunk
// batch runs on a bounded worker pool; the whole batch fails on the first
// embed or store error, never partially succeeding in silence.
type Service struct {
	store    DocumentStore
	embedder domain.Embedder
	defaults Params
	pool     *ants.Pool
	logger   *zap.Logger
}

// New creates an ingest service with a worker pool of poolSize embedders.
func New(store DocumentStore, embedder domain.Embedder, defaults Params, poolSize int, logger *zap.Logger) (*Service, error) {
	if poolSize <= 0 {
		poolSize = 4
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Service{
		store:    store,
		embedder: embedder,
		defaults: defaults,
		pool:     pool,
		logger:   logger,
	}, nil
}

// Close releases the worker pool.
func (s *Service) Close() {
	s.pool.Release()
}

// AddText ingests raw text. With doChunk set it is split by the given
// strategy using the default size parameters; otherwise it is stored as a
// single document. Returns the generated document ids.
func (s *Service) AddText(ctx context.Context, text string, doChunk bool, strategy chunking.Strategy) ([]string, error) {
	base := domain.Metadata{"source": "direct_text"}

	var chunks []domain.Chunk
	if doChunk {
		chunker := chunking.New(strategy, s.defaults.Size, s.defaults.Overlap)
		chunks = chunker.Chunk(text, base)
	} else if text != "" {
		chunks = []domain.Chunk{{Text: text, Metadata: base}}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no content to ingest", domain.ErrDocumentProcessing)
	}

	return s.persist(ctx, chunks)
}

// IngestDocument ingests processed document text with per-request chunker
// parameters. Zero size or overlap falls back to the defaults.
func (s *Service) IngestDocument(
	ctx context.Context, text string, meta domain.Metadata,
	strategy chunking.Strategy, size, overlap int,
) ([]string, error) {
	if size <= 0 {
		size = s.defaults.Size
	}
	if overlap < 0 {
		overlap = s.defaults.Overlap
	}

	chunks := chunking.New(strategy, size, overlap).Chunk(text, meta)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document produced no chunks", domain.ErrDocumentProcessing)
	}

	return s.persist(ctx, chunks)
}

// persist embeds all chunks in parallel and stores them in one batch.
func (s *Service) persist(ctx context.Context, chunks []domain.Chunk) ([]string, error) {
	docs := make([]domain.Document, len(chunks))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for i, chunk := range chunks {
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			vector, err := s.embedder.Embed(ctx, chunk.Text)
			if err != nil {
				fail(fmt.Errorf("embed chunk %d: %w", i, err))
				return
			}
			docs[i] = domain.Document{
				ID:        uuid.NewString(),
				Text:      chunk.Text,
				Metadata:  chunk.Metadata,
				Embedding: vector,
			}
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("submit embed task: %w", err))
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	if err := s.store.Add(ctx, docs); err != nil {
		return nil, fmt.Errorf("store documents: %w", err)
	}

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}

	s.logger.Info("documents ingested", zap.Int("chunks", len(ids)))
	return ids, nil
}
