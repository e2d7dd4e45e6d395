package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementScript bumps the current window and reads the previous one in a
// single round trip. The first hit sets the expiry, so a counter never
// outlives the window after it.
var incrementScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local previous = tonumber(redis.call("GET", KEYS[2]) or "0")
return {current, previous}
`)

// RedisStore shares counters between instances.
type RedisStore struct {
	client redis.Scripter
}

func NewRedisStore(client redis.Scripter) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration, index int64) (Counts, error) {
	// The hash tag keeps both windows of a key on one cluster slot.
	keys := []string{
		fmt.Sprintf("{%s}:%d", key, index),
		fmt.Sprintf("{%s}:%d", key, index-1),
	}

	res, err := incrementScript.Run(ctx, s.client, keys, (2 * window).Milliseconds()).Int64Slice()
	if err != nil {
		return Counts{}, fmt.Errorf("increment %s: %w", key, err)
	}
	if len(res) != 2 {
		return Counts{}, fmt.Errorf("increment %s: unexpected script reply %v", key, res)
	}

	return Counts{Current: res[0], Previous: res[1]}, nil
}
