package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RateLimitResult struct {
	Allowed   bool
	Remaining int64
	ResetAt   time.Time
}

// slidingWindow keeps one sorted-set member per accepted request, scored by
// its timestamp in milliseconds. Rejected requests are not recorded.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call("ZREMRANGEBYSCORE", key, "-inf", window_start)

	local count = redis.call("ZCARD", key)
	if count >= limit then
		return {0, 0}
	end

	redis.call("ZADD", key, now, member)
	redis.call("PEXPIRE", key, window_ms)
	return {1, limit - count - 1}
`)

// CheckRateLimit counts the request against key and reports whether it fits
// in limit requests per window.
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error) {
	now := time.Now()

	result, err := slidingWindow.Run(ctx, c.rdb, []string{c.prefixKey("ratelimit:" + key)},
		now.UnixMilli(),
		now.Add(-window).UnixMilli(),
		limit,
		window.Milliseconds(),
		fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(result) != 2 {
		return nil, fmt.Errorf("rate limit script: unexpected reply %v", result)
	}

	return &RateLimitResult{
		Allowed:   result[0] == 1,
		Remaining: result[1],
		ResetAt:   now.Add(window),
	}, nil
}
