package message

import (
	"strconv"
	"time"

	"github.com/synapse-cloud/chatsense/internal/domain"
)

// Hash field names for a stored message.
const (
	fieldText      = "text"
	fieldSenderID  = "sender_id"
	fieldSender    = "sender_name"
	fieldCreatedMs = "created_at_ms"
	fieldDeleted   = "deleted"
	fieldKind      = "kind"
)

// buildMessageFields converts a bot message into a flat map for HSET.
func buildMessageFields(text, kind string, createdAt time.Time) map[string]string {
	return map[string]string{
		fieldText:      text,
		fieldSenderID:  domain.BotSenderID,
		fieldSender:    "Synapse Assistant",
		fieldCreatedMs: strconv.FormatInt(createdAt.UnixMilli(), 10),
		fieldKind:      kind,
	}
}

// parseMessageFields converts a flat hash map back into a domain Message.
// Returns false for tombstoned (deleted) messages.
func parseMessageFields(id, conversationID string, m map[string]string) (domain.Message, bool) {
	if m[fieldDeleted] == "1" {
		return domain.Message{}, false
	}

	createdMs, _ := strconv.ParseInt(m[fieldCreatedMs], 10, 64)
	senderName := m[fieldSender]
	if senderName == "" {
		senderName = "Unknown"
	}

	msg := domain.NewMessage(
		id, m[fieldText], m[fieldSenderID], senderName,
		conversationID, time.UnixMilli(createdMs),
	)
	return msg, true
}
