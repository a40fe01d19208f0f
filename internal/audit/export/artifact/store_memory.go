package artifact

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps artifacts in process memory with TTL-based expiry.
// Expired entries are dropped lazily on access.
type MemoryStore struct {
	ttl time.Duration

	mu        sync.RWMutex
	artifacts map[string]Artifact
}

// NewMemory constructs an in-memory artifact store.
func NewMemory(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:       ttl,
		artifacts: make(map[string]Artifact),
	}
}

func (s *MemoryStore) Put(_ context.Context, a Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	s.artifacts[a.ID] = a
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Artifact, error) {
	s.mu.RLock()
	a, ok := s.artifacts[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if s.ttl > 0 && time.Since(a.CreatedAt) > s.ttl {
		s.mu.Lock()
		delete(s.artifacts, id)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	return &a, nil
}
