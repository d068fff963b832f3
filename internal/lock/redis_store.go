package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const leaseKeyPrefix = "lease:"

// releaseScript deletes the key only when the caller still owns it, so a
// slow node cannot release a lease the TTL already handed to someone else.
var releaseScript = redis.NewScript(`
local key = KEYS[1]
local owner = ARGV[1]

if redis.call('GET', key) == owner then
	return redis.call('DEL', key)
end

return 0
`)

// RedisLeaseStore backs the gate with SET NX + TTL. Expiry is handled by
// Redis itself, so no eviction pass is needed on acquire.
type RedisLeaseStore struct {
	client *redis.Client
}

func NewRedisLeaseStore(client *redis.Client) *RedisLeaseStore {
	return &RedisLeaseStore{client: client}
}

func (s *RedisLeaseStore) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, leaseKeyPrefix+key, owner, ttl).Result()
}

func (s *RedisLeaseStore) Release(ctx context.Context, key, owner string) error {
	return releaseScript.Run(ctx, s.client, []string{leaseKeyPrefix + key}, owner).Err()
}
