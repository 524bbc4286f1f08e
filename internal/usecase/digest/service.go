// Package digest generates thread summaries and writes them back as
// bot-authored messages.
package digest

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

// MessageKindSummary tags bot messages carrying a thread summary.
const MessageKindSummary = "summary"

// Options bounds a summarize call.
type Options struct {
	From         time.Time
	To           time.Time
	MaxMessages  int
	Instructions string // optional focus instructions
}

// Outcome reports a posted summary.
type Outcome struct {
	MessageID    string
	MessageCount int
	Summary      domain.Summary
}

// Service handles thread summarization.
type Service struct {
	messages  Messages
	completer domain.Completer
	compactor Compactor
	// Compaction kicks in only above this fetched-set size.
	compactAbove     int
	compactTarget    int
	compactThreshold float64
}

// New creates a digest service. compactor can be nil (no compaction).
func New(messages Messages, completer domain.Completer) *Service {
	return &Service{messages: messages, completer: completer}
}

// WithCompaction enables redundancy clustering for large fetched sets.
func (s *Service) WithCompaction(c Compactor, above, target int, similarityThreshold float64) *Service {
	s.compactor = c
	s.compactAbove = above
	s.compactTarget = target
	s.compactThreshold = similarityThreshold
	return s
}

// Summarize fetches the conversation, summarizes it, and posts the result
// as a bot message. Returns ErrConversationNotFound when no messages match.
func (s *Service) Summarize(ctx context.Context, conversationID string, opts Options) (Outcome, error) {
	msgs, err := s.messages.List(ctx, conversationID, message.ListQuery{
		From: opts.From, To: opts.To, Limit: opts.MaxMessages,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("list messages: %w", err)
	}
	if len(msgs) == 0 {
		return Outcome{}, domain.ErrConversationNotFound
	}

	fetched := len(msgs)
	msgs = s.compact(ctx, msgs)

	summary, err := s.summarize(ctx, msgs, opts.Instructions)
	if err != nil {
		return Outcome{}, err
	}

	text := formatSummaryMessage(summary, fetched, false)
	id, err := s.messages.CreateBotMessage(ctx, conversationID, text, MessageKindSummary)
	if err != nil {
		return Outcome{}, fmt.Errorf("post summary: %w", err)
	}

	return Outcome{MessageID: id, MessageCount: fetched, Summary: summary}, nil
}

// Refine regenerates a summary taking the previous one plus user feedback
// into account, and posts it as a new bot message.
func (s *Service) Refine(
	ctx context.Context, conversationID, previousSummaryID, instructions string,
) (Outcome, error) {
	previous, err := s.messages.Get(ctx, conversationID, previousSummaryID)
	if err != nil {
		return Outcome{}, fmt.Errorf("get previous summary: %w", err)
	}

	msgs, err := s.messages.List(ctx, conversationID, message.ListQuery{})
	if err != nil {
		return Outcome{}, fmt.Errorf("list messages: %w", err)
	}
	if len(msgs) == 0 {
		return Outcome{}, domain.ErrConversationNotFound
	}

	fetched := len(msgs)
	msgs = s.compact(ctx, msgs)

	full := fmt.Sprintf(
		"The previous summary was:\n---\n%s\n---\n\nUser's refinement request: %s\n\n"+
			"Generate a NEW summary that addresses the user's feedback.",
		previous.Text(), instructions,
	)
	summary, err := s.summarize(ctx, msgs, full)
	if err != nil {
		return Outcome{}, err
	}

	text := formatSummaryMessage(summary, fetched, true)
	id, err := s.messages.CreateBotMessage(ctx, conversationID, text, MessageKindSummary)
	if err != nil {
		return Outcome{}, fmt.Errorf("post summary: %w", err)
	}

	return Outcome{MessageID: id, MessageCount: fetched, Summary: summary}, nil
}

// SummarizeMessages generates a summary for an already-fetched message set
// without posting it. Used by the minutes pipeline. Oversized sets compact
// the same way Summarize does.
func (s *Service) SummarizeMessages(
	ctx context.Context, msgs []domain.Message, instructions string,
) (domain.Summary, error) {
	return s.summarize(ctx, s.compact(ctx, msgs), instructions)
}

// compact shrinks an oversized set to cluster representatives. A clustering
// failure falls back to the full set: compaction is a cost optimization,
// never a correctness requirement.
func (s *Service) compact(ctx context.Context, msgs []domain.Message) []domain.Message {
	if s.compactor == nil || len(msgs) <= s.compactAbove {
		return msgs
	}
	reduced, err := s.compactor.Reduce(ctx, msgs, s.compactTarget, s.compactThreshold)
	if err != nil {
		logger.FromContext(ctx).Warn("compaction failed, using full message set",
			zap.Int("messages", len(msgs)), zap.Error(err))
		return msgs
	}
	return reduced
}

func (s *Service) summarize(
	ctx context.Context, msgs []domain.Message, instructions string,
) (domain.Summary, error) {
	prompt := "Analyze this conversation and provide:\n" +
		"1. A concise overall summary (2-3 sentences)\n" +
		"2. Key points discussed (bullet points)"
	if instructions != "" {
		prompt += "\n\n**Special Instructions:** " + instructions
	}
	prompt += "\n\nConversation:\n" + transcript(msgs) +
		"\n\nRespond in JSON format:\n{\"summary\": \"overall summary here\", \"key_points\": [\"point 1\", \"point 2\"]}"

	res, err := s.completer.Complete(ctx, domain.CompletionRequest{
		System:      "You are an expert at summarizing team conversations for remote professionals.",
		User:        prompt,
		Temperature: 0.3,
		JSONMode:    true,
	})
	if err != nil {
		return domain.Summary{}, fmt.Errorf("summarize completion: %w", err)
	}

	var parsed struct {
		Summary   string   `json:"summary"`
		KeyPoints []string `json:"key_points"`
	}
	if err := json.Unmarshal([]byte(res.Content), &parsed); err != nil {
		return domain.Summary{}, fmt.Errorf("parse summary: %w: %w", err, domain.ErrMalformedCompletion)
	}

	return domain.Summary{Summary: parsed.Summary, KeyPoints: parsed.KeyPoints}, nil
}

func transcript(msgs []domain.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.CreatedAt().Format("2006-01-02 15:04"), m.SenderName(), m.Text())
	}
	return b.String()
}

func formatSummaryMessage(s domain.Summary, messageCount int, refined bool) string {
	var b strings.Builder
	b.WriteString("📊 **Thread Summary**")
	if refined {
		b.WriteString(" (Refined)")
	}
	b.WriteString("\n\n")
	b.WriteString(s.Summary)
	b.WriteString("\n\n**Key Points:**\n")
	for i, p := range s.KeyPoints {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p)
	}
	fmt.Fprintf(&b, "\n_(%d messages analyzed)_", messageCount)
	return b.String()
}
