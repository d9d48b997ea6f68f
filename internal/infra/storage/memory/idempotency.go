package memory

import (
	"context"
	"sync"
	"time"

	"frontdesk/internal/app/middleware"
)

// IdempotencyStore keeps command outcomes in memory.
type IdempotencyStore struct {
	mu    sync.RWMutex
	items map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{items: make(map[string]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Key] = rec
	return nil
}

// Prune drops records older than cutoff and returns how many were removed.
func (s *IdempotencyStore) Prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, rec := range s.items {
		if rec.OccurredAt.Before(cutoff) {
			delete(s.items, key)
			removed++
		}
	}
	return removed
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
