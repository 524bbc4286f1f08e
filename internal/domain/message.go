package domain

import "time"

// BotSenderID identifies messages authored by the assistant itself.
// Bot messages are excluded from analysis fetches and counted by the
// proactive anti-spam gate.
const BotSenderID = "synapse-bot-system"

// Message is a chat message as handed to the analysis pipelines
// (immutable value object). Identity is the id; text never changes
// after construction.
type Message struct {
	id             string
	text           string
	senderID       string
	senderName     string
	conversationID string
	createdAt      time.Time
}

// NewMessage creates a Message.
func NewMessage(
	id, text, senderID, senderName, conversationID string, createdAt time.Time,
) Message {
	return Message{
		id:             id,
		text:           text,
		senderID:       senderID,
		senderName:     senderName,
		conversationID: conversationID,
		createdAt:      createdAt,
	}
}

// ID returns the message identifier.
func (m *Message) ID() string { return m.id }

// Text returns the message text.
func (m *Message) Text() string { return m.text }

// SenderID returns the sender identifier.
func (m *Message) SenderID() string { return m.senderID }

// SenderName returns the sender display name ("Unknown" when unresolved).
func (m *Message) SenderName() string { return m.senderName }

// ConversationID returns the parent conversation identifier.
func (m *Message) ConversationID() string { return m.conversationID }

// CreatedAt returns the message timestamp.
func (m *Message) CreatedAt() time.Time { return m.createdAt }

// IsBot reports whether the message was authored by the assistant.
func (m *Message) IsBot() bool { return m.senderID == BotSenderID }

// DedupeMessages removes exact-id duplicates, keeping the first occurrence
// and the original relative order. Duplicate ids show up when the source
// fetch overlaps (pagination); embedding the same item twice wastes
// provider cost and skews cluster centroids, so this runs before any
// embedding call.
func DedupeMessages(messages []Message) []Message {
	if len(messages) == 0 {
		return messages
	}

	seen := make(map[string]struct{}, len(messages))
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if _, ok := seen[m.ID()]; ok {
			continue
		}
		seen[m.ID()] = struct{}{}
		out = append(out, m)
	}
	return out
}

// Participant is a conversation member with a resolved display name.
type Participant struct {
	ID    string
	Name  string
	Email string
}
