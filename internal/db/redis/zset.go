package redis

import (
	"context"
	"math"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/synapse-cloud/chatsense/internal/db"
)

// ZAdd adds members with scores to a sorted set.
func (s *Store) ZAdd(ctx context.Context, key string, members ...db.ScoredMember) error {
	if len(members) == 0 {
		return nil
	}
	cmd := s.b().Zadd().Key(key).ScoreMember()
	for _, m := range members {
		cmd = cmd.ScoreMember(m.Score, m.Member)
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpZAdd, Err: err}
	}
	return nil
}

// ZRangeByScore returns members with min <= score <= max, ascending.
func (s *Store) ZRangeByScore(
	ctx context.Context, key string, min, max float64, limit int,
) ([]string, error) {
	var cmd rueidis.Completed
	if limit > 0 {
		cmd = s.b().Zrangebyscore().Key(key).
			Min(formatScore(min)).Max(formatScore(max)).
			Limit(0, int64(limit)).Build()
	} else {
		cmd = s.b().Zrangebyscore().Key(key).
			Min(formatScore(min)).Max(formatScore(max)).Build()
	}

	members, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRangeByScore, Err: err}
	}
	return members, nil
}

// ZRevRangeByScore returns members with min <= score <= max, descending.
func (s *Store) ZRevRangeByScore(
	ctx context.Context, key string, min, max float64, limit int,
) ([]string, error) {
	var cmd rueidis.Completed
	if limit > 0 {
		cmd = s.b().Zrevrangebyscore().Key(key).
			Max(formatScore(max)).Min(formatScore(min)).
			Limit(0, int64(limit)).Build()
	} else {
		cmd = s.b().Zrevrangebyscore().Key(key).
			Max(formatScore(max)).Min(formatScore(min)).Build()
	}

	members, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRevRangeByScore, Err: err}
	}
	return members, nil
}

// formatScore renders a score bound for ZRANGEBYSCORE, using the
// inf notation for unbounded ranges.
func formatScore(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}
