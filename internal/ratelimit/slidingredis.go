package ratelimit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingScript trims the window, admits the hit only while under max and
// reports when the oldest surviving hit leaves the window. Times are in
// milliseconds so scores stay exact in Lua doubles.
var slidingScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local count = redis.call("ZCARD", key)
local allowed = 0
if count < max then
  redis.call("ZADD", key, now, ARGV[4])
  count = count + 1
  allowed = 1
end
redis.call("PEXPIRE", key, window)
local reset = now + window
local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
if oldest[2] then
  reset = tonumber(oldest[2]) + window
end
return {allowed, max - count, reset}
`)

// SlidingWindow is a Backend over Redis sorted sets, shared by all API
// replicas. Rejected requests do not occupy a slot.
type SlidingWindow struct {
	Client redis.UniversalClient
	Prefix string

	now func() time.Time
}

// Allow registers an event for key and reports whether it is within max.
func (l SlidingWindow) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	now := time.Now()
	if l.now != nil {
		now = l.now()
	}
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, now.Add(window), nil
	}

	windowMs := window.Milliseconds()
	if windowMs < 1 {
		windowMs = 1
	}
	res, err := slidingScript.Run(ctx, l.Client, []string{l.Prefix + key},
		now.UnixMilli(), windowMs, max, uuid.NewString()).Int64Slice()
	if err != nil {
		return false, 0, now.Add(window), err
	}
	if len(res) != 3 {
		return false, 0, now.Add(window), redis.Nil
	}
	return res[0] == 1, int(res[1]), time.UnixMilli(res[2]), nil
}
