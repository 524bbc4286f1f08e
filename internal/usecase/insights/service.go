// Package insights extracts structured facts (action items, decisions,
// priority flags) from conversations via LLM JSON completions.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/synapse-cloud/chatsense/internal/domain"
	"github.com/synapse-cloud/chatsense/internal/repository/message"
)

// Range bounds which messages an extraction analyzes.
type Range struct {
	From        time.Time
	To          time.Time
	MaxMessages int
}

// Service handles LLM fact extraction from conversations.
type Service struct {
	messages  Messages
	completer domain.Completer
}

// New creates an insights service.
func New(messages Messages, completer domain.Completer) *Service {
	return &Service{messages: messages, completer: completer}
}

// ActionItems extracts tasks, todos, and commitments.
func (s *Service) ActionItems(
	ctx context.Context, conversationID string, r Range,
) ([]domain.ActionItem, error) {
	msgs, err := s.fetch(ctx, conversationID, r)
	if err != nil {
		return nil, err
	}
	return s.ExtractActionItems(ctx, msgs)
}

// ExtractActionItems runs action-item extraction over an already-fetched
// message set. Used by the minutes pipeline.
func (s *Service) ExtractActionItems(
	ctx context.Context, msgs []domain.Message,
) ([]domain.ActionItem, error) {
	prompt := `Extract ALL action items, tasks, todos, and commitments from this conversation.

Look for:
- Direct assignments ("John, can you...", "@Sarah please...")
- Commitments ("I'll do X by Friday")
- Todos ("We need to...", "Someone should...")
- Deadlines and due dates

Conversation:
` + taggedTranscript(msgs) + `

Respond in JSON format:
{
    "action_items": [
        {
            "task": "task description",
            "assigned_to": "person name or null",
            "deadline": "deadline or null",
            "priority": "low|medium|high",
            "message_id": "MSG_ID",
            "context": "surrounding text"
        }
    ]
}`

	var parsed struct {
		ActionItems []struct {
			Task       string `json:"task"`
			AssignedTo string `json:"assigned_to"`
			Deadline   string `json:"deadline"`
			Priority   string `json:"priority"`
			MessageID  string `json:"message_id"`
			Context    string `json:"context"`
		} `json:"action_items"`
	}
	if err := s.extract(ctx,
		"You are an expert at identifying action items and tasks in team conversations.",
		prompt, &parsed,
	); err != nil {
		return nil, err
	}

	items := make([]domain.ActionItem, len(parsed.ActionItems))
	for i, it := range parsed.ActionItems {
		priority := it.Priority
		if priority == "" {
			priority = "medium"
		}
		items[i] = domain.ActionItem{
			Task:       it.Task,
			AssignedTo: it.AssignedTo,
			Deadline:   it.Deadline,
			Priority:   priority,
			MessageID:  it.MessageID,
			Context:    it.Context,
		}
	}
	return items, nil
}

// Decisions identifies agreements and resolutions.
func (s *Service) Decisions(
	ctx context.Context, conversationID string, r Range,
) ([]domain.Decision, error) {
	msgs, err := s.fetch(ctx, conversationID, r)
	if err != nil {
		return nil, err
	}
	return s.TrackDecisions(ctx, msgs)
}

// TrackDecisions runs decision tracking over an already-fetched message set.
func (s *Service) TrackDecisions(
	ctx context.Context, msgs []domain.Message,
) ([]domain.Decision, error) {
	prompt := `Look for:
- Explicit decisions ("we decided to...", "let's go with...")
- Agreements ("sounds good", "agreed", "👍")
- Consensus ("everyone okay with...?", "yes", "approved")
- Resolutions ("we'll do X", "final decision is...")

Conversation:
` + taggedTranscript(msgs) + `

Respond in JSON format:
{
    "decisions": [
        {
            "decision": "decision statement",
            "decided_by": ["name1", "name2"],
            "timestamp": "time",
            "confidence": 0.85,
            "context": "surrounding text",
            "message_ids": ["MSG_ID1", "MSG_ID2"]
        }
    ]
}`

	var parsed struct {
		Decisions []struct {
			Decision   string   `json:"decision"`
			DecidedBy  []string `json:"decided_by"`
			Timestamp  string   `json:"timestamp"`
			Confidence float64  `json:"confidence"`
			Context    string   `json:"context"`
			MessageIDs []string `json:"message_ids"`
		} `json:"decisions"`
	}
	if err := s.extract(ctx,
		"You are an expert at identifying decisions made in team conversations.",
		prompt, &parsed,
	); err != nil {
		return nil, err
	}

	decisions := make([]domain.Decision, len(parsed.Decisions))
	for i, d := range parsed.Decisions {
		decisions[i] = domain.Decision{
			Decision:   d.Decision,
			DecidedBy:  d.DecidedBy,
			Timestamp:  d.Timestamp,
			Confidence: d.Confidence,
			Context:    d.Context,
			MessageIDs: d.MessageIDs,
		}
	}
	return decisions, nil
}

// Priority flags urgent or blocking messages.
func (s *Service) Priority(
	ctx context.Context, conversationID string, r Range,
) ([]domain.PriorityMessage, error) {
	msgs, err := s.fetch(ctx, conversationID, r)
	if err != nil {
		return nil, err
	}

	prompt := `Identify messages that are:
- Urgent (ASAP, immediate, today, deadline)
- Blocking issues
- Questions that need quick answers
- Critical decisions
- Important announcements

Conversation:
` + taggedTranscript(msgs) + `

Respond in JSON format:
{
    "priority_messages": [
        {
            "message_id": "MSG_ID",
            "priority_score": 0.9,
            "urgency_level": "low|medium|high|urgent",
            "reasons": ["contains deadline", "blocking issue"]
        }
    ]
}`

	var parsed struct {
		PriorityMessages []struct {
			MessageID     string   `json:"message_id"`
			PriorityScore float64  `json:"priority_score"`
			UrgencyLevel  string   `json:"urgency_level"`
			Reasons       []string `json:"reasons"`
		} `json:"priority_messages"`
	}
	if err := s.extract(ctx,
		"You are an expert at identifying urgent and high-priority messages in team conversations.",
		prompt, &parsed,
	); err != nil {
		return nil, err
	}

	flagged := make([]domain.PriorityMessage, len(parsed.PriorityMessages))
	for i, p := range parsed.PriorityMessages {
		flagged[i] = domain.PriorityMessage{
			MessageID:     p.MessageID,
			PriorityScore: p.PriorityScore,
			UrgencyLevel:  p.UrgencyLevel,
			Reasons:       p.Reasons,
		}
	}
	return flagged, nil
}

func (s *Service) fetch(ctx context.Context, conversationID string, r Range) ([]domain.Message, error) {
	msgs, err := s.messages.List(ctx, conversationID, message.ListQuery{
		From: r.From, To: r.To, Limit: r.MaxMessages,
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if len(msgs) == 0 {
		return nil, domain.ErrConversationNotFound
	}
	return msgs, nil
}

func (s *Service) extract(ctx context.Context, system, prompt string, out any) error {
	res, err := s.completer.Complete(ctx, domain.CompletionRequest{
		System:      system,
		User:        prompt,
		Temperature: 0.2,
		JSONMode:    true,
	})
	if err != nil {
		return fmt.Errorf("extraction completion: %w", err)
	}
	if err := json.Unmarshal([]byte(res.Content), out); err != nil {
		return fmt.Errorf("parse extraction: %w: %w", err, domain.ErrMalformedCompletion)
	}
	return nil
}

// taggedTranscript renders messages with MSG_ID tags so the model can
// reference specific messages in its output.
func taggedTranscript(msgs []domain.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "[MSG_ID:%s] [%s] %s: %s\n",
			m.ID(), m.CreatedAt().Format("15:04"), m.SenderName(), m.Text())
	}
	return b.String()
}
