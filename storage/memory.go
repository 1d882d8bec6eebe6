package storage

import (
	"context"
	"sync"
	"time"
)

// InMemoryReplayStore is an in-memory ReplayStore. Suitable for tests and
// single-instance deployments; spent ids are lost on restart.
type InMemoryReplayStore struct {
	mu   sync.Mutex
	used map[string]time.Time // id -> expiry
}

// NewInMemoryReplayStore creates a new in-memory replay store.
func NewInMemoryReplayStore() *InMemoryReplayStore {
	return &InMemoryReplayStore{
		used: make(map[string]time.Time),
	}
}

// MarkUsed records the id as spent, sweeping expired entries as it goes.
func (s *InMemoryReplayStore) MarkUsed(ctx context.Context, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, expiry := range s.used {
		if now.After(expiry) {
			delete(s.used, k)
		}
	}

	if expiry, exists := s.used[id]; exists && now.Before(expiry) {
		return ErrAlreadyUsed
	}

	s.used[id] = now.Add(ttl)
	return nil
}
