package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript increments the window counter and arms its TTL in one step. A
// counter left without a TTL gets one on its next hit.
var hitScript = redis.NewScript(`
local c = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return c
`)

// RedisStore shares windows between server instances. Each key is a counter
// whose TTL is set on the first hit of a window, so the window restarts once
// the key expires.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Hit(ctx context.Context, key string, _ time.Time, length time.Duration) (int64, error) {
	count, err := hitScript.Run(ctx, s.client, []string{s.prefix + key}, length.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis hit: %w", err)
	}
	return count, nil
}
