package message

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/synapse-cloud/chatsense/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn             func(ctx context.Context, key string, fields map[string]string) error
	hgetAllFn          func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn     func(ctx context.Context, keys []string) ([]map[string]string, error)
	existsFn           func(ctx context.Context, key string) (bool, error)
	zaddFn             func(ctx context.Context, key string, members ...db.ScoredMember) error
	zrangeByScoreFn    func(ctx context.Context, key string, min, max float64, limit int) ([]string, error)
	zrevRangeByScoreFn func(ctx context.Context, key string, min, max float64, limit int) ([]string, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) ZAdd(ctx context.Context, key string, members ...db.ScoredMember) error {
	if m.zaddFn != nil {
		return m.zaddFn(ctx, key, members...)
	}
	return nil
}

func (m *mockStore) ZRangeByScore(
	ctx context.Context, key string, min, max float64, limit int,
) ([]string, error) {
	if m.zrangeByScoreFn != nil {
		return m.zrangeByScoreFn(ctx, key, min, max, limit)
	}
	return nil, nil
}

func (m *mockStore) ZRevRangeByScore(
	ctx context.Context, key string, min, max float64, limit int,
) ([]string, error) {
	if m.zrevRangeByScoreFn != nil {
		return m.zrevRangeByScoreFn(ctx, key, min, max, limit)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, "chatsense:")
	return repo, ms
}

func userFields(text, senderID, senderName string, createdAt time.Time) map[string]string {
	return map[string]string{
		fieldText:      text,
		fieldSenderID:  senderID,
		fieldSender:    senderName,
		fieldCreatedMs: strconv.FormatInt(createdAt.UnixMilli(), 10),
	}
}
