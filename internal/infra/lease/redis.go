// Package lease provides a Redis-backed run lease, an alternative to the
// pipeline_leases table when several workers share one Redis.
package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "news-notifier:lease:"

// acquireScript takes the key when it is free or already held by ARGV[1],
// refreshing the TTL in both cases.
var acquireScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then
  redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
  return 1
end
if v == ARGV[1] then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
  return 1
end
return 0
`)

// releaseScript deletes the key only if ARGV[1] still holds it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease implements repository.LeaseRepository on a single Redis key per lease.
type RedisLease struct {
	client redis.UniversalClient
}

func NewRedisLease(client redis.UniversalClient) *RedisLease {
	return &RedisLease{client: client}
}

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (l *RedisLease) TryAcquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	n, err := acquireScript.Run(ctx, l.client, []string{keyPrefix + name}, holder, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("TryAcquire: %w", err)
	}
	return n == 1, nil
}

func (l *RedisLease) Release(ctx context.Context, name, holder string) error {
	if err := releaseScript.Run(ctx, l.client, []string{keyPrefix + name}, holder).Err(); err != nil {
		return fmt.Errorf("Release: %w", err)
	}
	return nil
}
