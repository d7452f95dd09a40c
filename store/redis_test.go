package store

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auramythos/errx"
)

// fakeRedis implements the handful of commands RedisStore uses.
type fakeRedis struct {
	redis.Cmdable

	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = value.([]byte)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	s := NewRedisStore(rdb, 24*time.Hour)

	snap := testSnapshot("abc")
	require.NoError(t, s.Save(ctx, snap))
	assert.Contains(t, rdb.data, "auramythos:session:abc")
	assert.Equal(t, 24*time.Hour, rdb.ttls["auramythos:session:abc"])

	got, err := s.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	require.NoError(t, s.Delete(ctx, "abc"))
	_, err = s.Load(ctx, "abc")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Errors(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	s := NewRedisStore(rdb, time.Hour)

	rdb.err = errors.New("connection refused")
	err := s.Save(ctx, testSnapshot("a"))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, errx.StatusOf(err))

	_, err = s.Load(ctx, "a")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, http.StatusBadGateway, errx.StatusOf(err))

	require.Error(t, s.Delete(ctx, "a"))
}

func TestRedisStore_CorruptValue(t *testing.T) {
	rdb := newFakeRedis()
	rdb.data["auramythos:session:bad"] = []byte("{not json")
	s := NewRedisStore(rdb, time.Hour)

	_, err := s.Load(context.Background(), "bad")
	require.ErrorContains(t, err, "unmarshal session")
}
