package minutes

import (
	"context"

	"github.com/synapse-cloud/chatsense/internal/domain"
	"github.com/synapse-cloud/chatsense/internal/repository/message"
)

// Messages is the message store contract for minutes generation.
type Messages interface {
	List(ctx context.Context, conversationID string, q message.ListQuery) ([]domain.Message, error)
	CreateBotMessage(ctx context.Context, conversationID, text, kind string) (string, error)
	Participants(ctx context.Context, conversationID string) ([]domain.Participant, error)
}

// Summarizer produces the executive summary step.
type Summarizer interface {
	SummarizeMessages(ctx context.Context, msgs []domain.Message, instructions string) (domain.Summary, error)
}

// Extractor produces the action-item and decision steps.
type Extractor interface {
	ExtractActionItems(ctx context.Context, msgs []domain.Message) ([]domain.ActionItem, error)
	TrackDecisions(ctx context.Context, msgs []domain.Message) ([]domain.Decision, error)
}
