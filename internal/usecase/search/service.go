// Package search orchestrates hybrid retrieval: vector and bm25 candidate
// generation, reciprocal rank fusion, and optional cross-encoder reranking.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Omar-Sa03/rag-api/internal/domain"
	"github.com/Omar-Sa03/rag-api/internal/domain/search/mode"
	"github.com/Omar-Sa03/rag-api/internal/domain/search/result"
	"github.com/Omar-Sa03/rag-api/internal/metrics"
)

// oversampleFactor widens candidate pools so fusion and reranking have
// enough material to meaningfully reorder before truncation.
const oversampleFactor = 2

// Service is the search orchestrator. Stateless per call; safe for
// concurrent use.
type Service struct {
	vector         VectorIndex
	lexical        LexicalIndex
	reranker       RerankScorer
	rerankOptional bool
	logger         *zap.Logger
}

// New creates a search service. reranker may be nil when no rerank service
// is configured; rerankOptional degrades scorer failures to pass-through
// instead of failing the search.
func New(vector VectorIndex, lexical LexicalIndex, reranker RerankScorer, rerankOptional bool, logger *zap.Logger) *Service {
	return &Service{
		vector:         vector,
		lexical:        lexical,
		reranker:       reranker,
		rerankOptional: rerankOptional,
		logger:         logger,
	}
}

// Search runs a query in the given mode and returns at most nResults ranked
// results. An unknown mode fails before any index is touched. An empty
// corpus or zero matching candidates yields an empty list, not an error.
func (s *Service) Search(
	ctx context.Context, query string, m mode.Mode, nResults int, rerank bool,
) ([]result.Result, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSearchMode, m)
	}
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	start := time.Now()
	results, err := s.gather(ctx, query, m, nResults*oversampleFactor)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues(string(m), "error").Inc()
		return nil, err
	}

	if rerank && s.reranker != nil {
		results, err = s.applyRerank(ctx, query, results)
		if err != nil {
			metrics.SearchesTotal.WithLabelValues(string(m), "error").Inc()
			return nil, err
		}
	}

	if len(results) > nResults {
		results = results[:nResults]
	}

	metrics.SearchesTotal.WithLabelValues(string(m), "success").Inc()
	metrics.SearchDuration.WithLabelValues(string(m)).Observe(time.Since(start).Seconds())

	s.logger.Debug("search completed",
		zap.String("mode", string(m)),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// gather produces the oversampled candidate list for the mode.
func (s *Service) gather(
	ctx context.Context, query string, m mode.Mode, k int,
) ([]result.Result, error) {
	switch m {
	case mode.Vector:
		results, err := s.vector.Query(ctx, query, k)
		if err != nil {
			return nil, fmt.Errorf("vector search: %w", err)
		}
		return results, nil

	case mode.BM25:
		results, err := s.lexical.Search(ctx, query, k)
		if err != nil {
			return nil, fmt.Errorf("bm25 search: %w", err)
		}
		return results, nil

	default: // mode.Hybrid, validated by the caller
		vecResults, err := s.vector.Query(ctx, query, k)
		if err != nil {
			return nil, fmt.Errorf("vector search: %w", err)
		}
		lexResults, err := s.lexical.Search(ctx, query, k)
		if err != nil {
			return nil, fmt.Errorf("bm25 search: %w", err)
		}
		return fuseRRF(vecResults, lexResults), nil
	}
}

// RebuildIndex refreshes the lexical snapshot from the document store.
// Completion or failure is visible to the caller; a concurrent rebuild
// surfaces domain.ErrRebuildInProgress.
func (s *Service) RebuildIndex(ctx context.Context) error {
	if err := s.lexical.Rebuild(ctx); err != nil {
		metrics.IndexRebuildsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.IndexRebuildsTotal.WithLabelValues("success").Inc()
	metrics.LexicalIndexDocuments.Set(float64(s.lexical.Documents()))
	return nil
}
