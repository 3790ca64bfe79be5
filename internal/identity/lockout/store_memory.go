package lockout

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	count     int
	expiresAt time.Time
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]*counter), now: time.Now}
}

func (s *MemoryStore) Failures(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.live(key)
	if !ok {
		return 0, nil
	}
	return c.count, nil
}

func (s *MemoryStore) RecordFailure(_ context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.live(key)
	if !ok {
		c = &counter{expiresAt: s.now().Add(window)}
		s.counters[key] = c
	}
	c.count++
	return c.count, nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, key)
	return nil
}

// live returns the counter for key, dropping it if expired. Caller holds mu.
func (s *MemoryStore) live(key string) (*counter, bool) {
	c, ok := s.counters[key]
	if !ok {
		return nil, false
	}
	if !s.now().Before(c.expiresAt) {
		delete(s.counters, key)
		return nil, false
	}
	return c, true
}
