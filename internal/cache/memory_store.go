package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// memoryStore is the in-process backend used when no Redis is configured.
// TTL is enforced on read; Sweep handles physical cleanup.
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	val      []byte
	deadline time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]memoryEntry)}
}

func (s *memoryStore) get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !e.deadline.IsZero() && time.Now().After(e.deadline) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, nil
	}
	return e.val, nil
}

func (s *memoryStore) set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	var deadline time.Time
	if ttl > 0 {
		deadline = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = memoryEntry{val: val, deadline: deadline}
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) keys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}
