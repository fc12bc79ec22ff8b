package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/auth-core/pkg/database"
	"github.com/redis/go-redis/v9"
)

// slidingWindow trims the window, then records the request only if it
// fits. Scores are microseconds and stay as strings on the way in so Lua
// number formatting cannot round them. Returns {allowed, used, oldest}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', '(' .. ARGV[2])

local used = redis.call('ZCARD', key)
if used >= limit then
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	return {0, used, tonumber(oldest[2] or 0)}
end

redis.call('ZADD', key, ARGV[1], ARGV[4])
redis.call('PEXPIRE', key, ARGV[5])
return {1, used + 1, 0}
`)

// RateLimitResult describes the state of a caller's window after a request
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter is a sliding window log limiter kept in Redis sorted sets
type RateLimiter struct {
	redis *database.Redis
	now   func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *database.Redis) *RateLimiter {
	return &RateLimiter{redis: redis, now: time.Now}
}

// Allow records a request for key and reports whether it fits in the window.
// Rejected requests are not recorded.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	at := r.now()
	now := at.UnixMicro()

	vals, err := slidingWindow.Run(ctx, r.redis.Client,
		[]string{"ratelimit:" + key},
		strconv.FormatInt(now, 10),
		strconv.FormatInt(now-window.Microseconds(), 10),
		limit,
		strconv.FormatInt(now, 10)+"-"+uuid.NewString(),
		(window + time.Minute).Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate rate limit window: %w", err)
	}
	if len(vals) != 3 {
		return nil, fmt.Errorf("unexpected rate limit reply %v", vals)
	}

	used := int(vals[1])
	if vals[0] == 0 {
		result := &RateLimitResult{Limit: limit, RetryAfter: window}
		if vals[2] > 0 {
			result.RetryAfter = window - at.Sub(time.UnixMicro(vals[2]))
		}
		return result, nil
	}

	return &RateLimitResult{
		Allowed:   true,
		Limit:     limit,
		Remaining: max(limit-used, 0),
	}, nil
}
