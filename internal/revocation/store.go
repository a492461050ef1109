package revocation

import (
	"context"
	"sync"
	"time"
)

// Store records token ids invalidated before their natural expiry. An entry
// only has to live until the token's own exp, after which it is prunable.
type Store interface {
	Add(ctx context.Context, id string, expiresAt time.Time) error
	Contains(ctx context.Context, id string) (bool, error)
}

// MemoryStore keeps revoked ids in-process. It does not survive a restart and
// does not share state across instances; deployments with more than one
// replica must use the Redis store instead.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryStore) Add(_ context.Context, id string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	s.entries[id] = expiresAt
	return nil
}

func (s *MemoryStore) Contains(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.entries[id]
	if !ok {
		return false, nil
	}
	if s.now().After(exp) {
		delete(s.entries, id)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) prune() {
	now := s.now()
	for id, exp := range s.entries {
		if now.After(exp) {
			delete(s.entries, id)
		}
	}
}
