package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// LeaderboardRepository keeps one sorted set per test, scored by final marks.
// MySQL remains the source of truth; the set is rebuilt lazily from completed
// attempts when it expires.
type LeaderboardRepository struct {
	Redis *redis.Client
	ctx   context.Context
}

type LeaderboardEntry struct {
	UserID uint `json:"userId"`
	Score  int  `json:"score"`
	Rank   int  `json:"rank"`
}

func NewLeaderboardRepository(rdb *redis.Client) *LeaderboardRepository {
	return &LeaderboardRepository{Redis: rdb, ctx: context.Background()}
}

func leaderboardKey(testID string) string {
	return fmt.Sprintf("test:leaderboard:%s", testID)
}

func (r *LeaderboardRepository) AddScore(testID string, userID uint, score int) error {
	if r.Redis == nil {
		return nil
	}
	key := leaderboardKey(testID)
	pipe := r.Redis.Pipeline()
	pipe.ZAdd(r.ctx, key, &redis.Z{
		Score:  float64(score),
		Member: strconv.FormatUint(uint64(userID), 10),
	})
	pipe.Expire(r.ctx, key, 7*24*time.Hour)
	_, err := pipe.Exec(r.ctx)
	return err
}

// Rank returns the user's 1-based position on the test, 0 when absent.
func (r *LeaderboardRepository) Rank(testID string, userID uint) (int, error) {
	if r.Redis == nil {
		return 0, nil
	}
	rank, err := r.Redis.ZRevRank(r.ctx, leaderboardKey(testID), strconv.FormatUint(uint64(userID), 10)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int(rank) + 1, nil
}

func (r *LeaderboardRepository) Top(testID string, limit int) ([]LeaderboardEntry, error) {
	if r.Redis == nil {
		return nil, nil
	}
	zs, err := r.Redis.ZRevRangeWithScores(r.ctx, leaderboardKey(testID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		member, _ := z.Member.(string)
		uid, _ := strconv.ParseUint(member, 10, 64)
		entries = append(entries, LeaderboardEntry{
			UserID: uint(uid),
			Score:  int(z.Score),
			Rank:   i + 1,
		})
	}
	return entries, nil
}

func (r *LeaderboardRepository) Size(testID string) (int64, error) {
	if r.Redis == nil {
		return 0, nil
	}
	return r.Redis.ZCard(r.ctx, leaderboardKey(testID)).Result()
}
