package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count  int64
	start  time.Time
	length time.Duration
}

// MemoryStore is a process-local Store. Limits are not shared between
// instances and are lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]*window)}
}

func (s *MemoryStore) Hit(_ context.Context, key string, now time.Time, length time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) > length {
		s.windows[key] = &window{count: 1, start: now, length: length}
		return 1, nil
	}

	w.count++
	return w.count, nil
}

// Prune drops windows that have already expired at now and returns how many
// were removed.
func (s *MemoryStore) Prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, w := range s.windows {
		if now.Sub(w.start) > w.length {
			delete(s.windows, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
