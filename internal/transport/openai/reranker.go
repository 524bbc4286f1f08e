package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/synapse-cloud/chatsense/internal/domain"
	searchuc "github.com/synapse-cloud/chatsense/internal/usecase/search"
)

// Reranker reorders search hits by LLM relevance judgment. It implements
// the search use case's Reranker contract on top of a chat completion.
type Reranker struct {
	completer domain.Completer
}

// NewReranker creates an LLM reranker.
func NewReranker(completer domain.Completer) *Reranker {
	return &Reranker{completer: completer}
}

const rerankSystemPrompt = "You are a search relevance expert ranking chat messages for a query."

// Rerank asks the model to rescore every candidate by textual relevance.
// The model must return exactly the input ids; the caller enforces that.
func (r *Reranker) Rerank(
	ctx context.Context, queryText string, candidates []searchuc.RerankCandidate, maxResults int,
) ([]searchuc.RerankScore, error) {
	// maxResults is not forwarded: the contract requires the id set to be
	// preserved, so truncation stays upstream.
	res, err := r.completer.Complete(ctx, domain.CompletionRequest{
		System:      rerankSystemPrompt,
		User:        buildRerankPrompt(queryText, candidates),
		Temperature: 0.1,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("rerank completion: %w", err)
	}

	var parsed struct {
		Results []struct {
			MessageID   string  `json:"message_id"`
			Score       float64 `json:"relevance_score"`
			Explanation string  `json:"explanation"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(res.Content), &parsed); err != nil {
		return nil, fmt.Errorf("parse rerank response: %w: %w", err, domain.ErrMalformedCompletion)
	}

	scores := make([]searchuc.RerankScore, len(parsed.Results))
	for i, item := range parsed.Results {
		scores[i] = searchuc.RerankScore{
			ID:          item.MessageID,
			Score:       item.Score,
			Explanation: item.Explanation,
		}
	}
	return scores, nil
}

func buildRerankPrompt(queryText string, candidates []searchuc.RerankCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %q\n\nCandidate messages:\n", queryText)
	for _, c := range candidates {
		fmt.Fprintf(&b, "[%s] %s\n", c.ID, c.Text)
	}
	fmt.Fprintf(&b, `
Rank ALL %d candidates by relevance to the query. Do not add or drop ids.
Return relevance scores between 0.0 and 1.0.

JSON format:
{
    "results": [
        {"message_id": "id", "relevance_score": 0.95, "explanation": "why relevant"}
    ]
}`, len(candidates))
	return b.String()
}
