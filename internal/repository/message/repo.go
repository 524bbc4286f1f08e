// Package message implements the conversation message store over Redis.
// Each message is a hash; each conversation keeps a timeline sorted set
// scored by created-at millis.
package message

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/synapse-cloud/chatsense/internal/db"
	"github.com/synapse-cloud/chatsense/internal/domain"
)

// Store is the storage contract the repository needs.
type Store interface {
	db.HashStore
	db.SortedSetStore
}

// ListQuery bounds a message listing.
type ListQuery struct {
	From       time.Time // zero = unbounded
	To         time.Time // zero = unbounded
	Limit      int       // 0 = unlimited; applies to the newest messages
	IncludeBot bool      // include assistant-authored messages
}

// Repo reads and writes conversation messages.
type Repo struct {
	store  Store
	prefix string
}

// New creates a message repository.
func New(store Store, keyPrefix string) *Repo {
	return &Repo{store: store, prefix: keyPrefix}
}

// List returns a conversation's messages in chronological order. Deleted
// messages are always excluded; bot messages only when IncludeBot is set.
// Limit keeps the newest messages, matching what a catch-up analysis wants.
// A conversation with no key at all yields ErrConversationNotFound; an
// existing conversation with no matching messages yields an empty list.
func (r *Repo) List(ctx context.Context, conversationID string, q ListQuery) ([]domain.Message, error) {
	min, max := math.Inf(-1), math.Inf(1)
	if !q.From.IsZero() {
		min = float64(q.From.UnixMilli())
	}
	if !q.To.IsZero() {
		max = float64(q.To.UnixMilli())
	}

	var ids []string
	var err error
	if q.Limit > 0 {
		// Newest first so Limit trims the oldest, then back to chronological.
		ids, err = r.store.ZRevRangeByScore(ctx, r.timelineKey(conversationID), min, max, q.Limit)
	} else {
		ids, err = r.store.ZRangeByScore(ctx, r.timelineKey(conversationID), min, max, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	if q.Limit > 0 {
		reverseStrings(ids)
	}
	if len(ids) == 0 {
		exists, err := r.store.Exists(ctx, r.conversationKey(conversationID))
		if err != nil {
			return nil, fmt.Errorf("check conversation: %w", err)
		}
		if !exists {
			return nil, domain.ErrConversationNotFound
		}
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.messageKey(conversationID, id)
	}
	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	messages := make([]domain.Message, 0, len(ids))
	for i := range ids {
		msg, ok := parseMessageFields(ids[i], conversationID, hashes[i])
		if !ok {
			continue
		}
		if !q.IncludeBot && msg.IsBot() {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func reverseStrings(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// Get returns a single message by id.
func (r *Repo) Get(ctx context.Context, conversationID, messageID string) (domain.Message, error) {
	fields, err := r.store.HGetAll(ctx, r.messageKey(conversationID, messageID))
	if err != nil {
		return domain.Message{}, fmt.Errorf("get message: %w", err)
	}
	if len(fields) == 0 {
		return domain.Message{}, domain.ErrMessageNotFound
	}
	msg, ok := parseMessageFields(messageID, conversationID, fields)
	if !ok {
		return domain.Message{}, domain.ErrMessageNotFound
	}
	return msg, nil
}

// CreateBotMessage writes an assistant-authored message into the
// conversation and returns its id. kind tags the message purpose
// (summary, minutes, suggestion) for the client UI.
func (r *Repo) CreateBotMessage(
	ctx context.Context, conversationID, text, kind string,
) (string, error) {
	id := uuid.NewString()
	now := time.Now()

	if err := r.store.HSet(ctx, r.messageKey(conversationID, id), buildMessageFields(text, kind, now)); err != nil {
		return "", fmt.Errorf("store bot message: %w", err)
	}
	err := r.store.ZAdd(ctx, r.timelineKey(conversationID),
		db.ScoredMember{Member: id, Score: float64(now.UnixMilli())})
	if err != nil {
		return "", fmt.Errorf("append timeline: %w", err)
	}
	return id, nil
}

// Participants resolves the conversation's members with display names.
// The per-member lookups are independent, so they are issued concurrently
// and awaited jointly; each goroutine writes only its own slot.
func (r *Repo) Participants(ctx context.Context, conversationID string) ([]domain.Participant, error) {
	conv, err := r.store.HGetAll(ctx, r.conversationKey(conversationID))
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if len(conv) == 0 {
		return nil, domain.ErrConversationNotFound
	}

	memberIDs := splitMemberIDs(conv["member_ids"])
	if len(memberIDs) == 0 {
		return nil, nil
	}

	participants := make([]domain.Participant, len(memberIDs))
	errs := make([]error, len(memberIDs))

	var wg sync.WaitGroup
	for i, id := range memberIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			user, err := r.store.HGetAll(ctx, r.userKey(id))
			if err != nil {
				errs[i] = fmt.Errorf("get user %s: %w", id, err)
				return
			}
			name := user["display_name"]
			if name == "" {
				name = "Unknown"
			}
			participants[i] = domain.Participant{ID: id, Name: name, Email: user["email"]}
		}(i, id)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return participants, nil
}

func (r *Repo) conversationKey(conversationID string) string {
	return r.prefix + "conv:" + conversationID
}

func (r *Repo) timelineKey(conversationID string) string {
	return r.prefix + "conv:" + conversationID + ":timeline"
}

func (r *Repo) messageKey(conversationID, messageID string) string {
	return r.prefix + "msg:" + conversationID + ":" + messageID
}

func (r *Repo) userKey(userID string) string {
	return r.prefix + "user:" + userID
}

func splitMemberIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
