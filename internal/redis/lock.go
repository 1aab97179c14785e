package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore hands out short-lived per-driver locks so that two API instances
// do not race the same candidate into the database claim.
type LockStore struct {
	client *redis.Client
	owner  string
}

// NewLockStore creates a new LockStore. Locks are tagged with a per-process token.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client, owner: uuid.New().String()}
}

func driverLockKey(driverID string) string {
	return fmt.Sprintf("lock:driver:%s", driverID)
}

// AcquireDriverLock attempts to acquire a lock for the given driver.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, driverLockKey(driverID), s.owner, ttl).Result()
}

// ReleaseDriverLock releases the lock if this process still holds it.
func (s *LockStore) ReleaseDriverLock(ctx context.Context, driverID string) error {
	return releaseScript.Run(ctx, s.client, []string{driverLockKey(driverID)}, s.owner).Err()
}
