// Package db defines the storage facade the repositories consume.
// Consumers depend on the narrow sub-interfaces, not on Store.
package db

import (
	"context"
	"time"
)

// Store is the database facade combining all sub-interfaces.
type Store interface {
	Pinger
	HashStore
	SortedSetStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// ScoredMember is one sorted-set member with its score.
type ScoredMember struct {
	Member string
	Score  float64
}

// SortedSetStore provides sorted-set operations for the conversation
// timeline (score = created-at millis).
type SortedSetStore interface {
	ZAdd(ctx context.Context, key string, members ...ScoredMember) error
	// ZRangeByScore returns members with min <= score <= max ascending,
	// at most limit (0 = unlimited).
	ZRangeByScore(ctx context.Context, key string, min, max float64, limit int) ([]string, error)
	// ZRevRangeByScore returns members with min <= score <= max descending,
	// at most limit (0 = unlimited).
	ZRevRangeByScore(ctx context.Context, key string, min, max float64, limit int) ([]string, error)
}
