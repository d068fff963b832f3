// Package lock provides the TTL-bounded, cluster-shared mutual-exclusion
// primitive that gates scheduled work to one node per cycle.
package lock

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL bounds how long a crashed owner can starve a lock key.
const DefaultTTL = 30 * time.Second

// DefaultAcquireTimeout bounds a single acquisition attempt.
const DefaultAcquireTimeout = 1 * time.Second

// LeaseStore is the capability a Gate needs from a shared lease backend.
// Acquire is a single non-blocking attempt; a lease whose owner never
// releases becomes acquirable again after ttl.
type LeaseStore interface {
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, owner string) error
}

// Gate wraps a LeaseStore with best-effort leader-for-a-moment semantics:
// exactly one caller runs a given key's action per acquisition window, late
// callers no-op that cycle instead of queueing.
type Gate struct {
	store   LeaseStore
	ownerID string
	ttl     time.Duration
}

func NewGate(store LeaseStore, ttl time.Duration) *Gate {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	host, _ := os.Hostname()
	return &Gate{
		store:   store,
		ownerID: fmt.Sprintf("%s-%s", host, uuid.New().String()[:8]),
		ttl:     ttl,
	}
}

// OwnerID identifies this gate instance in the lease store.
func (g *Gate) OwnerID() string { return g.ownerID }

// TryRunExclusive attempts to acquire key within timeout. If acquired it
// runs action and releases the lease on all paths; if not, action is
// skipped entirely and ran is false. It never blocks past timeout and
// never queues.
func (g *Gate) TryRunExclusive(ctx context.Context, key string, timeout time.Duration, action func(ctx context.Context) error) (ran bool, err error) {
	if timeout <= 0 {
		timeout = DefaultAcquireTimeout
	}
	acquireCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	acquired, err := g.store.Acquire(acquireCtx, key, g.ownerID, g.ttl)
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !acquired {
		return false, nil
	}

	defer func() {
		// Release must not inherit a canceled action context.
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), timeout)
		defer releaseCancel()
		if releaseErr := g.store.Release(releaseCtx, key, g.ownerID); releaseErr != nil {
			log.Printf("[LockGate] failed to release %s: %v", key, releaseErr)
		}
	}()

	return true, action(ctx)
}
