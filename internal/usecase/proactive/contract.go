package proactive

import (
	"context"

	"github.com/synapse-cloud/chatsense/internal/domain"
	"github.com/synapse-cloud/chatsense/internal/repository/message"
)

// Messages abstracts message access. IncludeBot matters here: the
// anti-spam gate inspects the assistant's own recent messages.
type Messages interface {
	List(ctx context.Context, conversationID string, q message.ListQuery) ([]domain.Message, error)
	CreateBotMessage(ctx context.Context, conversationID, text, kind string) (string, error)
}
