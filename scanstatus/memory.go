package scanstatus

import (
	"context"
	"sync"
)

// MemoryStore implements the Store interface using memory storage.
// It's primarily intended for testing purposes.
type MemoryStore struct {
	statuses map[string]Status
	mu       sync.RWMutex
}

// NewMemoryStore creates a new MemoryStore instance
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{statuses: make(map[string]Status)}
}

// Get retrieves the scan status for an object version from memory
func (s *MemoryStore) Get(ctx context.Context, ref ObjectRef) (Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statuses[ref.String()], nil
}

// Set stores the scan status for an object version in memory
func (s *MemoryStore) Set(ctx context.Context, ref ObjectRef, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[ref.String()] = status
	return nil
}
