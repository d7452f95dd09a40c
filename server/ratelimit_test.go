package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingLimiter allows limit calls per key and ignores the window.
type countingLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	keys   []string
	err    error
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.counts == nil {
		l.counts = map[string]int{}
	}
	l.counts[key]++
	l.keys = append(l.keys, key)
	return l.counts[key] <= limit, nil
}

func TestRateLimit_PostRoutes(t *testing.T) {
	limiter := &countingLimiter{}
	env := newTestEnv(t, nil, func(o *Options) {
		o.Limiter = limiter
		o.RateLimitPerMinute = 2
	})

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/api/continue", map[string]any{"newInput": "x"})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := env.do(t, http.MethodPost, "/api/continue", map[string]any{"newInput": "x"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", decode[errorResp](t, rec).Message)

	// GET routes are not limited.
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/formats", nil).Code)
	}

	// Each route has its own bucket.
	rec = env.do(t, http.MethodPost, "/api/sessions", map[string]any{})
	assert.Equal(t, http.StatusCreated, rec.Code)

	require.NotEmpty(t, limiter.keys)
	assert.Contains(t, limiter.keys[0], rateLimitKeyPrefix+":")
	assert.Contains(t, limiter.keys[0], "/api/continue")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	env := newTestEnv(t, nil, func(o *Options) {
		o.Limiter = &countingLimiter{err: errors.New("redis down")}
		o.RateLimitPerMinute = 1
	})
	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodPost, "/api/continue", map[string]any{"newInput": "x"})
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimit_DisabledWithoutLimit(t *testing.T) {
	limiter := &countingLimiter{}
	env := newTestEnv(t, nil, func(o *Options) {
		o.Limiter = limiter
	})
	env.do(t, http.MethodPost, "/api/continue", map[string]any{"newInput": "x"})
	assert.Empty(t, limiter.keys)
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()

	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	assert.Equal(t, 2, k.size())

	acquired := make(chan struct{})
	go func() {
		unlock := k.Lock("a")
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock on the same key must wait")
	case <-time.After(20 * time.Millisecond):
	}

	unlockA()
	<-acquired
	unlockB()
	assert.Eventually(t, func() bool { return k.size() == 0 }, time.Second, 5*time.Millisecond)
}

// zsetRedis keeps sorted sets in memory for the commands RedisRateLimiter uses.
type zsetRedis struct {
	redis.Cmdable
	sets    map[string]map[string]float64
	execErr error
}

func newZSetRedis() *zsetRedis {
	return &zsetRedis{sets: map[string]map[string]float64{}}
}

func (f *zsetRedis) Pipeline() redis.Pipeliner {
	return &zsetPipe{rdb: f}
}

func (f *zsetRedis) ZAdd(_ context.Context, key string, members ...redis.Z) *redis.IntCmd {
	set, ok := f.sets[key]
	if !ok {
		set = map[string]float64{}
		f.sets[key] = set
	}
	var added int64
	for _, m := range members {
		name := fmt.Sprint(m.Member)
		if _, exists := set[name]; !exists {
			added++
		}
		set[name] = m.Score
	}
	return redis.NewIntResult(added, nil)
}

func (f *zsetRedis) Expire(context.Context, string, time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

func (f *zsetRedis) card(key string) int64 {
	return int64(len(f.sets[key]))
}

type zsetPipe struct {
	redis.Pipeliner
	rdb    *zsetRedis
	queued []func()
}

func (p *zsetPipe) ZRemRangeByScore(ctx context.Context, key, min, max string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	p.queued = append(p.queued, func() {
		lo, _ := strconv.ParseFloat(min, 64)
		hi, _ := strconv.ParseFloat(max, 64)
		var removed int64
		for name, score := range p.rdb.sets[key] {
			if score >= lo && score <= hi {
				delete(p.rdb.sets[key], name)
				removed++
			}
		}
		cmd.SetVal(removed)
	})
	return cmd
}

func (p *zsetPipe) ZCard(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	p.queued = append(p.queued, func() { cmd.SetVal(p.rdb.card(key)) })
	return cmd
}

func (p *zsetPipe) Exec(context.Context) ([]redis.Cmder, error) {
	if p.rdb.execErr != nil {
		return nil, p.rdb.execErr
	}
	for _, fn := range p.queued {
		fn()
	}
	p.queued = nil
	return nil, nil
}

func TestRedisRateLimiter_RecoversAfterWindow(t *testing.T) {
	rdb := newZSetRedis()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	limiter := NewRedisRateLimiter(rdb)
	limiter.now = func() time.Time { return now }

	ctx := context.Background()
	const key = rateLimitKeyPrefix + ":10.0.0.1:/api/continue"
	allow := func() bool {
		ok, err := limiter.Allow(ctx, key, 2, time.Minute)
		require.NoError(t, err)
		return ok
	}

	// Two hits with the same timestamp are counted separately.
	assert.True(t, allow())
	assert.True(t, allow())
	assert.Equal(t, int64(2), rdb.card(key))
	assert.False(t, allow())

	// Retries inside the window stay denied and are not recorded.
	for _, offset := range []time.Duration{20 * time.Second, 40 * time.Second, 59 * time.Second} {
		now = start.Add(offset)
		assert.False(t, allow(), "retry at +%s", offset)
		assert.Equal(t, int64(2), rdb.card(key))
	}

	now = start.Add(61 * time.Second)
	assert.True(t, allow(), "earlier hits have aged out")
	assert.Equal(t, int64(1), rdb.card(key))
	assert.True(t, allow())
	assert.False(t, allow())
}

func TestRedisRateLimiter_KeysAreIndependent(t *testing.T) {
	rdb := newZSetRedis()
	limiter := NewRedisRateLimiter(rdb)
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "a", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = limiter.Allow(ctx, "a", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = limiter.Allow(ctx, "b", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisRateLimiter_PropagatesErrors(t *testing.T) {
	rdb := newZSetRedis()
	rdb.execErr = errors.New("connection refused")
	limiter := NewRedisRateLimiter(rdb)

	ok, err := limiter.Allow(context.Background(), "a", 1, time.Minute)
	require.ErrorContains(t, err, "connection refused")
	assert.False(t, ok)
	assert.Empty(t, rdb.sets)
}
