package cache

import (
	"context"
	"sync"
	"time"

	"github.com/koperasi/backend/internal/domain/payment"
)

// MemoryCallbackStore is an in-process CallbackDeduper for single-instance
// deployments and tests. Entries expire lazily on access.
type MemoryCallbackStore struct {
	mu      sync.Mutex
	entries map[string]time.Time // callback ID -> expiry
}

// NewMemoryCallbackStore creates an in-memory callback dedup store
func NewMemoryCallbackStore() *MemoryCallbackStore {
	return &MemoryCallbackStore{
		entries: make(map[string]time.Time),
	}
}

// MarkProcessed records a callback ID with a TTL
func (s *MemoryCallbackStore) MarkProcessed(_ context.Context, callbackID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if expiry, ok := s.entries[callbackID]; ok && now.Before(expiry) {
		return false, nil
	}
	s.entries[callbackID] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether the callback ID has been seen and is unexpired
func (s *MemoryCallbackStore) IsProcessed(_ context.Context, callbackID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.entries[callbackID]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(s.entries, callbackID)
		return false, nil
	}
	return true, nil
}

var _ payment.CallbackDeduper = (*MemoryCallbackStore)(nil)
