package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"auramythos/errx"
	"auramythos/generator"
	"auramythos/logx"
)

// RedisStore keeps each session as one JSON value with a TTL that is
// refreshed on every save.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) sessionKey(id string) string {
	return fmt.Sprintf("auramythos:session:%s", id)
}

func (r *RedisStore) Save(ctx context.Context, snap generator.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		logx.Error().Err(err).Str("session_id", snap.ID).Msg("failed to marshal session")
		return fmt.Errorf("marshal session: %w", err)
	}
	key := r.sessionKey(snap.ID)
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save session to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, id string) (generator.Snapshot, error) {
	key := r.sessionKey(id)
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return generator.Snapshot{}, ErrNotFound
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session from redis")
		return generator.Snapshot{}, errx.WrapRedis(err)
	}
	var snap generator.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to unmarshal session")
		return generator.Snapshot{}, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return snap, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	key := r.sessionKey(id)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete session from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
