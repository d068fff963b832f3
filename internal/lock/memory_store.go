package lock

import (
	"context"
	"sync"
	"time"
)

type memoryLease struct {
	owner     string
	expiresAt time.Time
}

// MemoryLeaseStore is a single-process LeaseStore for tests and local runs.
type MemoryLeaseStore struct {
	mu     sync.Mutex
	leases map[string]memoryLease
}

func NewMemoryLeaseStore() *MemoryLeaseStore {
	return &MemoryLeaseStore{leases: make(map[string]memoryLease)}
}

func (s *MemoryLeaseStore) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if lease, held := s.leases[key]; held && lease.expiresAt.After(now) {
		return false, nil
	}
	s.leases[key] = memoryLease{owner: owner, expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *MemoryLeaseStore) Release(ctx context.Context, key, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lease, held := s.leases[key]; held && lease.owner == owner {
		delete(s.leases, key)
	}
	return nil
}

// ActiveLeases counts unexpired leases.
func (s *MemoryLeaseStore) ActiveLeases() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	now := time.Now()
	for _, lease := range s.leases {
		if lease.expiresAt.After(now) {
			n++
		}
	}
	return n
}
