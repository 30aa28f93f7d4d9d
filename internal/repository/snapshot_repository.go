package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"medprep_backend/internal/engine"

	"github.com/go-redis/redis/v8"
)

// SnapshotRepository mirrors live attempt state into Redis so a refreshed or
// reconnecting client resumes mid-section without touching MySQL, and so a
// restarted server can rebuild its runners.
type SnapshotRepository struct {
	Redis *redis.Client
	ctx   context.Context
	ttl   time.Duration
}

func NewSnapshotRepository(rdb *redis.Client, ttl time.Duration) *SnapshotRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SnapshotRepository{
		Redis: rdb,
		ctx:   context.Background(),
		ttl:   ttl,
	}
}

func snapshotKey(attemptID string) string {
	return fmt.Sprintf("attempt:snapshot:%s", attemptID)
}

func (r *SnapshotRepository) Save(snap engine.Snapshot) error {
	if r.Redis == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return r.Redis.Set(r.ctx, snapshotKey(snap.AttemptID), data, r.ttl).Err()
}

func (r *SnapshotRepository) Get(attemptID string) (engine.Snapshot, bool, error) {
	var snap engine.Snapshot
	if r.Redis == nil {
		return snap, false, nil
	}
	data, err := r.Redis.Get(r.ctx, snapshotKey(attemptID)).Bytes()
	if err == redis.Nil {
		return snap, false, nil
	}
	if err != nil {
		return snap, false, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, false, err
	}
	return snap, true, nil
}

func (r *SnapshotRepository) Delete(attemptID string) error {
	if r.Redis == nil {
		return nil
	}
	return r.Redis.Del(r.ctx, snapshotKey(attemptID)).Err()
}
