package digest

import (
	"context"

	"github.com/synapse-cloud/chatsense/internal/domain"
	"github.com/synapse-cloud/chatsense/internal/repository/message"
)

// Messages is the message store contract for summarization.
type Messages interface {
	List(ctx context.Context, conversationID string, q message.ListQuery) ([]domain.Message, error)
	Get(ctx context.Context, conversationID, messageID string) (domain.Message, error)
	CreateBotMessage(ctx context.Context, conversationID, text, kind string) (string, error)
}

// Compactor shrinks an oversized message set to cluster representatives.
type Compactor interface {
	Reduce(
		ctx context.Context, messages []domain.Message, targetCount int, similarityThreshold float64,
	) ([]domain.Message, error)
}
