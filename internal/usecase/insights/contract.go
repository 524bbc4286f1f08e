package insights

import (
	"context"

	"github.com/synapse-cloud/chatsense/internal/domain"
	"github.com/synapse-cloud/chatsense/internal/repository/message"
)

// Messages is the message store contract for extraction.
type Messages interface {
	List(ctx context.Context, conversationID string, q message.ListQuery) ([]domain.Message, error)
}
