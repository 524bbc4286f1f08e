package insights

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/synapse-cloud/chatsense/internal/domain"
	"github.com/synapse-cloud/chatsense/internal/repository/message"
)

// --- Mocks ---

type mockMessages struct {
	msgs []domain.Message
	err  error
}

func (m *mockMessages) List(_ context.Context, _ string, _ message.ListQuery) ([]domain.Message, error) {
	return m.msgs, m.err
}

type mockCompleter struct {
	content    string
	err        error
	lastPrompt string
	lastReq    domain.CompletionRequest
}

func (m *mockCompleter) Complete(_ context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	m.lastPrompt = req.User
	m.lastReq = req
	if m.err != nil {
		return domain.CompletionResult{}, m.err
	}
	return domain.CompletionResult{Content: m.content}, nil
}

func msg(id, text string) domain.Message {
	return domain.NewMessage(id, text, "u1", "Alice", "conv-1", time.Unix(1700000000, 0))
}

func fixture() *mockMessages {
	return &mockMessages{msgs: []domain.Message{
		msg("m1", "John, can you update the docs by Friday?"),
		msg("m2", "sure, will do"),
	}}
}

// --- Tests ---

func TestActionItems_Extraction(t *testing.T) {
	llm := &mockCompleter{content: `{
		"action_items": [
			{"task": "update the docs", "assigned_to": "John", "deadline": "Friday",
			 "priority": "high", "message_id": "m1", "context": "docs request"}
		]
	}`}
	svc := New(fixture(), llm)

	items, err := svc.ActionItems(context.Background(), "conv-1", Range{MaxMessages: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	it := items[0]
	if it.Task != "update the docs" || it.AssignedTo != "John" || it.Priority != "high" {
		t.Errorf("unexpected item: %+v", it)
	}
	if it.MessageID != "m1" {
		t.Errorf("MessageID = %q, expected m1", it.MessageID)
	}
	if !llm.lastReq.JSONMode {
		t.Error("extraction must request JSON mode")
	}
	if !strings.Contains(llm.lastPrompt, "[MSG_ID:m1]") {
		t.Error("transcript should tag message ids")
	}
}

func TestActionItems_DefaultPriority(t *testing.T) {
	llm := &mockCompleter{content: `{"action_items": [{"task": "do the thing"}]}`}
	svc := New(fixture(), llm)

	items, err := svc.ActionItems(context.Background(), "conv-1", Range{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items[0].Priority != "medium" {
		t.Errorf("Priority = %q, expected default medium", items[0].Priority)
	}
}

func TestActionItems_EmptyConversation(t *testing.T) {
	svc := New(&mockMessages{}, &mockCompleter{})

	_, err := svc.ActionItems(context.Background(), "conv-1", Range{})
	if !errors.Is(err, domain.ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestActionItems_MalformedCompletion(t *testing.T) {
	svc := New(fixture(), &mockCompleter{content: "I could not produce JSON, sorry"})

	_, err := svc.ActionItems(context.Background(), "conv-1", Range{})
	if !errors.Is(err, domain.ErrMalformedCompletion) {
		t.Fatalf("expected ErrMalformedCompletion, got %v", err)
	}
}

func TestDecisions_Extraction(t *testing.T) {
	llm := &mockCompleter{content: `{
		"decisions": [
			{"decision": "deploy on friday", "decided_by": ["Alice", "Bob"],
			 "timestamp": "14:02", "confidence": 0.9,
			 "context": "deployment discussion", "message_ids": ["m1", "m2"]}
		]
	}`}
	svc := New(fixture(), llm)

	decisions, err := svc.Decisions(context.Background(), "conv-1", Range{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(decisions) != 1 {
		t.Fatalf("expected 1 decision, got %d", len(decisions))
	}
	d := decisions[0]
	if d.Decision != "deploy on friday" || d.Confidence != 0.9 {
		t.Errorf("unexpected decision: %+v", d)
	}
	if len(d.DecidedBy) != 2 || len(d.MessageIDs) != 2 {
		t.Errorf("unexpected decision refs: %+v", d)
	}
}

func TestPriority_Extraction(t *testing.T) {
	llm := &mockCompleter{content: `{
		"priority_messages": [
			{"message_id": "m1", "priority_score": 0.95, "urgency_level": "urgent",
			 "reasons": ["contains deadline"]}
		]
	}`}
	svc := New(fixture(), llm)

	flagged, err := svc.Priority(context.Background(), "conv-1", Range{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(flagged) != 1 {
		t.Fatalf("expected 1 flagged message, got %d", len(flagged))
	}
	p := flagged[0]
	if p.MessageID != "m1" || p.PriorityScore != 0.95 || p.UrgencyLevel != "urgent" {
		t.Errorf("unexpected flag: %+v", p)
	}
}

func TestPriority_CompletionError(t *testing.T) {
	svc := New(fixture(), &mockCompleter{err: domain.ErrCompletionProvider})

	_, err := svc.Priority(context.Background(), "conv-1", Range{})
	if !errors.Is(err, domain.ErrCompletionProvider) {
		t.Fatalf("expected ErrCompletionProvider, got %v", err)
	}
}

func TestExtract_NoItems(t *testing.T) {
	svc := New(fixture(), &mockCompleter{content: `{"action_items": []}`})

	items, err := svc.ActionItems(context.Background(), "conv-1", Range{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}
