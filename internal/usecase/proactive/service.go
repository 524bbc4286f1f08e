// Package proactive decides when the assistant should interject on its own.
// Two cheap gates run before any model call: a bot message among the last
// few turns suppresses a new suggestion, and a conversation that went quiet
// is left alone.
package proactive

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/synapse-cloud/chatsense/internal/domain"
	"github.com/synapse-cloud/chatsense/internal/logger"
	"github.com/synapse-cloud/chatsense/internal/repository/message"
)

// MessageKindSuggestion tags posted proactive suggestions.
const MessageKindSuggestion = "suggestion"

const (
	// antiSpamWindow is how many recent messages may not contain a bot
	// message before the assistant speaks again.
	antiSpamWindow = 10

	// staleAfter suppresses suggestions for conversations that went quiet.
	staleAfter = 5 * time.Minute

	// evaluateWindow is how many recent messages the model sees.
	evaluateWindow = 20
)

// Service evaluates conversations for proactive assistance.
type Service struct {
	messages  Messages
	completer domain.Completer
	now       func() time.Time
}

func New(messages Messages, completer domain.Completer) *Service {
	return &Service{messages: messages, completer: completer, now: time.Now}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Evaluate inspects the conversation and, if appropriate, posts a
// suggestion as a bot message. A declined suggestion is not an error.
func (s *Service) Evaluate(ctx context.Context, conversationID string) (domain.Suggestion, string, error) {
	msgs, err := s.messages.List(ctx, conversationID, message.ListQuery{
		Limit:      evaluateWindow,
		IncludeBot: true,
	})
	if err != nil {
		return domain.Suggestion{}, "", fmt.Errorf("list messages: %w", err)
	}
	if len(msgs) == 0 {
		return domain.Suggestion{}, "", domain.ErrConversationNotFound
	}

	if sug, held := s.gate(msgs); held {
		return sug, "", nil
	}

	sug, err := s.detect(ctx, msgs)
	if err != nil {
		return domain.Suggestion{}, "", err
	}
	if !sug.ShouldAct {
		return sug, "", nil
	}

	sug.Text = suggestionText(sug.ContextType)
	id, err := s.messages.CreateBotMessage(ctx, conversationID, sug.Text, MessageKindSuggestion)
	if err != nil {
		return domain.Suggestion{}, "", fmt.Errorf("post suggestion: %w", err)
	}

	logger.FromContext(ctx).Info("proactive suggestion posted",
		zap.String("conversation_id", conversationID),
		zap.String("context_type", sug.ContextType),
		zap.Float64("confidence", sug.Confidence))

	return sug, id, nil
}

// gate applies the anti-spam and staleness checks. held is true when the
// suggestion is suppressed without consulting the model.
func (s *Service) gate(msgs []domain.Message) (domain.Suggestion, bool) {
	recent := msgs
	if len(recent) > antiSpamWindow {
		recent = recent[len(recent)-antiSpamWindow:]
	}
	for _, m := range recent {
		if m.IsBot() {
			return domain.Suggestion{ShouldAct: false, Reason: "anti_spam"}, true
		}
	}

	last := msgs[len(msgs)-1]
	if s.now().Sub(last.CreatedAt()) > staleAfter {
		return domain.Suggestion{ShouldAct: false, Reason: "stale_conversation"}, true
	}

	return domain.Suggestion{}, false
}

const detectSystemPrompt = `You are a proactive assistant watching a team conversation.
Decide whether the team is actively planning something where concrete help
(links, bookings, reservations) would be welcome RIGHT NOW. Be conservative:
only act when the conversation clearly converges on a plan.`

func (s *Service) detect(ctx context.Context, msgs []domain.Message) (domain.Suggestion, error) {
	var b strings.Builder
	b.WriteString("Recent conversation:\n\n")
	for _, m := range msgs {
		if m.IsBot() {
			continue
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.CreatedAt().Format("15:04"), m.SenderName(), m.Text())
	}
	b.WriteString(`
Respond in JSON format:
{
  "should_act": true/false,
  "context_type": "cinema" | "restaurant" | "generic",
  "confidence": 0.0-1.0,
  "reason": "one short sentence"
}`)

	res, err := s.completer.Complete(ctx, domain.CompletionRequest{
		System:      detectSystemPrompt,
		User:        b.String(),
		Temperature: 0.2,
		JSONMode:    true,
	})
	if err != nil {
		return domain.Suggestion{}, fmt.Errorf("context detection: %w", err)
	}

	var parsed struct {
		ShouldAct   bool    `json:"should_act"`
		ContextType string  `json:"context_type"`
		Confidence  float64 `json:"confidence"`
		Reason      string  `json:"reason"`
	}
	if err := json.Unmarshal([]byte(res.Content), &parsed); err != nil {
		return domain.Suggestion{}, fmt.Errorf("parse detection: %w: %w", err, domain.ErrMalformedCompletion)
	}

	return domain.Suggestion{
		ShouldAct:   parsed.ShouldAct,
		ContextType: parsed.ContextType,
		Confidence:  parsed.Confidence,
		Reason:      parsed.Reason,
	}, nil
}

func suggestionText(contextType string) string {
	switch contextType {
	case "cinema":
		return "🎬 It sounds like you're planning a movie night! I can look up showtimes and help you pick a screening. Just say the word."
	case "restaurant":
		return "🍽️ Planning to eat out? I can suggest places nearby and help with a reservation. Want me to?"
	default:
		return "💡 Looks like you're organizing something! Let me know if I can help with the details."
	}
}
