// Package minutes assembles full meeting-minutes reports. The pipeline is
// deliberately sequential — summary, action items, decisions, next steps,
// document — each step feeding the next; there is no scheduling to speak of.
package minutes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/synapse-cloud/chatsense/internal/domain"
	"github.com/synapse-cloud/chatsense/internal/repository/message"
)

// MessageKindMinutes tags bot messages carrying meeting minutes.
const MessageKindMinutes = "minutes"

// Options bounds a minutes generation call.
type Options struct {
	Title       string
	From        time.Time
	To          time.Time
	MaxMessages int
}

// Outcome reports generated minutes and the posted bot message.
type Outcome struct {
	MessageID string
	Minutes   domain.Minutes
}

// Service generates meeting minutes.
type Service struct {
	messages   Messages
	summarizer Summarizer
	extractor  Extractor
	completer  domain.Completer
}

// New creates a minutes service. completer is used only for the
// next-steps synthesis step, which benefits from a stronger model.
func New(messages Messages, summarizer Summarizer, extractor Extractor, completer domain.Completer) *Service {
	return &Service{
		messages:   messages,
		summarizer: summarizer,
		extractor:  extractor,
		completer:  completer,
	}
}

// Generate runs the full pipeline and posts the document as a bot message.
func (s *Service) Generate(ctx context.Context, conversationID string, opts Options) (Outcome, error) {
	msgs, err := s.messages.List(ctx, conversationID, message.ListQuery{
		From: opts.From, To: opts.To, Limit: opts.MaxMessages,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("list messages: %w", err)
	}
	if len(msgs) == 0 {
		return Outcome{}, domain.ErrConversationNotFound
	}

	participants, err := s.messages.Participants(ctx, conversationID)
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve participants: %w", err)
	}
	names := make([]string, len(participants))
	for i, p := range participants {
		names[i] = p.Name
	}

	summary, err := s.summarizer.SummarizeMessages(ctx, msgs, "")
	if err != nil {
		return Outcome{}, fmt.Errorf("summary step: %w", err)
	}

	actionItems, err := s.extractor.ExtractActionItems(ctx, msgs)
	if err != nil {
		return Outcome{}, fmt.Errorf("action items step: %w", err)
	}

	decisions, err := s.extractor.TrackDecisions(ctx, msgs)
	if err != nil {
		return Outcome{}, fmt.Errorf("decisions step: %w", err)
	}

	nextSteps, err := s.nextSteps(ctx, summary, actionItems, decisions)
	if err != nil {
		return Outcome{}, fmt.Errorf("next steps step: %w", err)
	}

	title := opts.Title
	if title == "" {
		title = "Meeting Minutes"
	}
	m := domain.Minutes{
		Title:        title,
		DateRange:    formatDateRange(msgs),
		Participants: names,
		Summary:      summary.Summary,
		KeyPoints:    summary.KeyPoints,
		ActionItems:  actionItems,
		Decisions:    decisions,
		NextSteps:    nextSteps,
	}
	m.Document = renderDocument(m)

	id, err := s.messages.CreateBotMessage(ctx, conversationID, m.Document, MessageKindMinutes)
	if err != nil {
		return Outcome{}, fmt.Errorf("post minutes: %w", err)
	}

	return Outcome{MessageID: id, Minutes: m}, nil
}

// nextSteps asks the model for forward-looking steps, distinct from the
// extracted action items.
func (s *Service) nextSteps(
	ctx context.Context, summary domain.Summary,
	actionItems []domain.ActionItem, decisions []domain.Decision,
) ([]string, error) {
	var b strings.Builder
	b.WriteString("Based on this analysis, generate 3-5 clear NEXT STEPS the team should take.\n\nSummary:\n")
	b.WriteString(summary.Summary)
	b.WriteString("\n\nAction Items:\n")
	for _, a := range actionItems {
		fmt.Fprintf(&b, "- %s\n", a.Task)
	}
	b.WriteString("\nDecisions Made:\n")
	for _, d := range decisions {
		fmt.Fprintf(&b, "- %s\n", d.Decision)
	}
	b.WriteString(`
These should be actionable, forward-looking, prioritized, and higher level
than the action items.

Respond in JSON format:
{"next_steps": ["step 1", "step 2"]}`)

	res, err := s.completer.Complete(ctx, domain.CompletionRequest{
		System:      "You are an expert project manager analyzing a team conversation.",
		User:        b.String(),
		Temperature: 0.3,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("next steps completion: %w", err)
	}

	var parsed struct {
		NextSteps []string `json:"next_steps"`
	}
	if err := json.Unmarshal([]byte(res.Content), &parsed); err != nil {
		return nil, fmt.Errorf("parse next steps: %w: %w", err, domain.ErrMalformedCompletion)
	}
	return parsed.NextSteps, nil
}

func formatDateRange(msgs []domain.Message) string {
	const layout = "January 2, 2006"
	first := msgs[0].CreatedAt().Format(layout)
	last := msgs[len(msgs)-1].CreatedAt().Format(layout)
	if first == last {
		return first
	}
	return first + " - " + last
}

// renderDocument formats the minutes as markdown.
func renderDocument(m domain.Minutes) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n**Date:** %s  \n**Participants:** %s\n\n---\n\n",
		m.Title, m.DateRange, strings.Join(m.Participants, ", "))

	fmt.Fprintf(&b, "## Executive Summary\n\n%s\n\n---\n\n## Key Discussion Points\n\n", m.Summary)
	for _, p := range m.KeyPoints {
		fmt.Fprintf(&b, "- %s\n", p)
	}

	b.WriteString("\n---\n\n## Decisions Made\n\n")
	if len(m.Decisions) == 0 {
		b.WriteString("_No formal decisions recorded_\n")
	}
	for _, d := range m.Decisions {
		fmt.Fprintf(&b, "- **%s**  \n  Decided by: %s (Confidence: %d%%)\n",
			d.Decision, strings.Join(d.DecidedBy, ", "), int(d.Confidence*100))
	}

	b.WriteString("\n---\n\n## Action Items\n\n")
	if len(m.ActionItems) == 0 {
		b.WriteString("_No action items identified_\n")
	}
	for _, a := range m.ActionItems {
		assignee := a.AssignedTo
		if assignee == "" {
			assignee = "Unassigned"
		}
		deadline := a.Deadline
		if deadline == "" {
			deadline = "TBD"
		}
		fmt.Fprintf(&b, "- [ ] **%s**  \n  Assigned to: %s  \n  Deadline: %s  \n  Priority: %s\n",
			a.Task, assignee, deadline, strings.ToUpper(a.Priority))
	}

	b.WriteString("\n---\n\n## Next Steps\n\n")
	for i, step := range m.NextSteps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	b.WriteString("\n---\n\n_Generated by Synapse AI - Meeting Minutes_\n")
	return b.String()
}
