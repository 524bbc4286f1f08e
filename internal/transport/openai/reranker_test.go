package openai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/synapse-cloud/chatsense/internal/domain"
	searchuc "github.com/synapse-cloud/chatsense/internal/usecase/search"
)

type mockCompleter struct {
	content string
	err     error
	lastReq domain.CompletionRequest
}

func (m *mockCompleter) Complete(
	_ context.Context, req domain.CompletionRequest,
) (domain.CompletionResult, error) {
	m.lastReq = req
	if m.err != nil {
		return domain.CompletionResult{}, m.err
	}
	return domain.CompletionResult{Content: m.content}, nil
}

func TestRerank_ParsesScores(t *testing.T) {
	llm := &mockCompleter{content: `{"results":[
		{"message_id":"m2","relevance_score":0.95,"explanation":"direct answer"},
		{"message_id":"m1","relevance_score":0.4,"explanation":"related"}
	]}`}
	r := NewReranker(llm)

	candidates := []searchuc.RerankCandidate{
		{ID: "m1", Text: "lunch is at noon"},
		{ID: "m2", Text: "the deadline is friday"},
	}

	scores, err := r.Rerank(context.Background(), "when is the deadline", candidates, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}
	if scores[0].ID != "m2" || scores[0].Score != 0.95 {
		t.Errorf("unexpected top score: %+v", scores[0])
	}
	if scores[0].Explanation != "direct answer" {
		t.Errorf("unexpected explanation: %q", scores[0].Explanation)
	}

	if !llm.lastReq.JSONMode {
		t.Error("expected JSON mode request")
	}
	for _, want := range []string{"when is the deadline", "[m1]", "[m2]", "lunch is at noon"} {
		if !strings.Contains(llm.lastReq.User, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestRerank_MalformedResponse(t *testing.T) {
	llm := &mockCompleter{content: "ranked: m2 first, then m1"}
	r := NewReranker(llm)

	_, err := r.Rerank(context.Background(), "query",
		[]searchuc.RerankCandidate{{ID: "m1", Text: "hi"}}, 5)
	if !errors.Is(err, domain.ErrMalformedCompletion) {
		t.Fatalf("expected ErrMalformedCompletion, got %v", err)
	}
}

func TestRerank_CompleterError(t *testing.T) {
	llm := &mockCompleter{err: domain.ErrCompletionProvider}
	r := NewReranker(llm)

	_, err := r.Rerank(context.Background(), "query",
		[]searchuc.RerankCandidate{{ID: "m1", Text: "hi"}}, 5)
	if !errors.Is(err, domain.ErrCompletionProvider) {
		t.Fatalf("expected ErrCompletionProvider, got %v", err)
	}
}
