package search

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Omar-Sa03/rag-api/internal/domain"
	"github.com/Omar-Sa03/rag-api/internal/domain/search/result"
	"github.com/Omar-Sa03/rag-api/internal/metrics"
)

// applyRerank scores the candidates with the cross-encoder and reorders by
// rerank score, renumbering ranks densely. A scorer failure degrades to the
// incoming order when the reranker is configured as optional, otherwise the
// search fails with domain.ErrRerankUnavailable. No retries.
func (s *Service) applyRerank(
	ctx context.Context, query string, results []result.Result,
) ([]result.Result, error) {
	if len(results) == 0 {
		return results, nil
	}

	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text()
	}

	scores, err := s.reranker.ScoreBatch(ctx, query, texts)
	if err == nil && len(scores) != len(results) {
		err = fmt.Errorf("got %d scores for %d candidates", len(scores), len(results))
	}
	if err != nil {
		metrics.RerankRequestsTotal.WithLabelValues("error").Inc()
		if s.rerankOptional {
			s.logger.Warn("rerank failed, keeping fused order", zap.Error(err))
			return results, nil
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrRerankUnavailable, err)
	}
	metrics.RerankRequestsTotal.WithLabelValues("success").Inc()

	reranked := make([]result.Result, len(results))
	for i, r := range results {
		reranked[i] = r.WithRerankScore(scores[i])
	}
	sort.SliceStable(reranked, func(i, j int) bool {
		si, _ := reranked[i].RerankScore()
		sj, _ := reranked[j].RerankScore()
		return si > sj
	})
	for i := range reranked {
		reranked[i] = reranked[i].WithRank(i + 1)
	}
	return reranked, nil
}
