// Package search composes the retrieval pipeline: dedupe -> ephemeral
// index -> k-NN query -> threshold ranking -> optional LLM rerank.
package search

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/synapse-cloud/chatsense/internal/domain"
	"github.com/synapse-cloud/chatsense/internal/domain/search/query"
	"github.com/synapse-cloud/chatsense/internal/domain/search/result"
	"github.com/synapse-cloud/chatsense/internal/index"
	"github.com/synapse-cloud/chatsense/internal/logger"
)

// Service handles semantic search over a conversation's messages.
type Service struct {
	embedder Embedder
	reranker Reranker
}

// New creates a search service without reranking (fast path).
func New(embedder Embedder) *Service {
	return &Service{embedder: embedder}
}

// WithReranker enables the optional LLM reranking stage.
func (s *Service) WithReranker(r Reranker) *Service {
	s.reranker = r
	return s
}

// Search runs the end-to-end pipeline and returns ranked (id, similarity)
// results, descending. An empty candidate set or a threshold that nothing
// passes yields an empty list, not an error.
func (s *Service) Search(
	ctx context.Context, q query.Query, candidates []domain.Message,
) ([]result.Result, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	deduped := domain.DedupeMessages(candidates)

	idx, err := index.Build(ctx, s.embedder, deduped)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	// 2x headroom so threshold filtering can still fill maxResults.
	entries, err := idx.Query(ctx, q.Text(), 2*q.MaxResults())
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	results := rankByThreshold(entries, q.MinSimilarity(), q.MaxResults())

	if s.reranker == nil || len(results) == 0 {
		return results, nil
	}
	return s.rerank(ctx, q.Text(), results, deduped), nil
}

// rerank applies the LLM reranking stage. Rerank failures and contract
// violations (invented or dropped ids) degrade to the vector ranking:
// reranking is a quality stage, not a correctness stage.
func (s *Service) rerank(
	ctx context.Context, queryText string, results []result.Result, messages []domain.Message,
) []result.Result {
	log := logger.FromContext(ctx)

	texts := make(map[string]string, len(messages))
	for _, m := range messages {
		texts[m.ID()] = m.Text()
	}

	candidates := make([]RerankCandidate, len(results))
	for i, r := range results {
		candidates[i] = RerankCandidate{ID: r.ID(), Text: texts[r.ID()]}
	}

	scores, err := s.reranker.Rerank(ctx, queryText, candidates, len(candidates))
	if err != nil {
		log.Warn("rerank failed, keeping vector ranking", zap.Error(err))
		return results
	}

	wanted := make(map[string]struct{}, len(results))
	for _, r := range results {
		wanted[r.ID()] = struct{}{}
	}
	if len(scores) != len(results) {
		log.Warn("reranker changed result count, keeping vector ranking",
			zap.Int("got", len(scores)), zap.Int("want", len(results)))
		return results
	}
	for _, sc := range scores {
		if _, ok := wanted[sc.ID]; !ok {
			log.Warn("reranker invented id, keeping vector ranking", zap.String("id", sc.ID))
			return results
		}
		delete(wanted, sc.ID)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	reranked := make([]result.Result, len(scores))
	for i, sc := range scores {
		reranked[i] = result.New(sc.ID, clamp01(sc.Score), i+1, sc.Explanation)
	}
	return reranked
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
