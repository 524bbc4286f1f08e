package search

import (
	"context"

	"github.com/synapse-cloud/chatsense/internal/domain"
)

// Embedder vectorizes the query and candidate texts.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// RerankCandidate is one ranked hit handed to the reranker.
type RerankCandidate struct {
	ID   string
	Text string
}

// RerankScore is the reranker's judgment for one candidate.
type RerankScore struct {
	ID          string
	Score       float64
	Explanation string
}

// Reranker reorders and rescores the top candidates purely by textual
// relevance judgment. It must preserve the candidate id set: it may
// reorder and rescore but not invent or drop ids.
type Reranker interface {
	Rerank(
		ctx context.Context, queryText string, candidates []RerankCandidate, maxResults int,
	) ([]RerankScore, error)
}
