package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"auramythos/logx"
)

const rateLimitKeyPrefix = "auramythos:ratelimit"

// RateLimiter reports whether one more request under key fits in window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// rateLimit throttles per client IP and route. A limiter failure lets the
// request through.
func rateLimit(limiter RateLimiter, perMinute int) gin.HandlerFunc {
	if limiter == nil || perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		key := rateLimitKeyPrefix + ":" + c.ClientIP() + ":" + c.FullPath()
		allowed, err := limiter.Allow(c.Request.Context(), key, perMinute, time.Minute)
		if err != nil {
			logx.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable")
			c.Next()
			return
		}
		if !allowed {
			writeError(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		c.Next()
	}
}

// RedisRateLimiter is a sliding-window limiter over a sorted set per key.
type RedisRateLimiter struct {
	rdb redis.Cmdable
	now func() time.Time
}

func NewRedisRateLimiter(rdb redis.Cmdable) *RedisRateLimiter {
	return &RedisRateLimiter{rdb: rdb, now: time.Now}
}

// Allow trims entries older than window and admits the request only while
// fewer than limit remain. Denied requests are not recorded, so a client that
// keeps retrying is let through again once its earlier hits age out.
func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := r.now().UnixNano()
	windowStart := now - window.Nanoseconds()

	pipe := r.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	count := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	if count.Val() >= int64(limit) {
		return false, nil
	}

	member := fmt.Sprintf("%d-%s", now, uuid.NewString())
	if err := r.rdb.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: member}).Err(); err != nil {
		return false, err
	}
	r.rdb.Expire(ctx, key, window*2)
	return true, nil
}
