package memory

import (
	"context"
	"sync"

	"mnm-site/internal/domain"
	"mnm-site/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
// It keeps at most capacity observations, dropping the oldest.
type SnapshotStore struct {
	mu       sync.RWMutex
	data     []*domain.SnapshotObservation // ring once full, oldest at head
	head     int
	nextID   int64
	capacity int
}

// DefaultSnapshotCapacity bounds memory use of the default store.
const DefaultSnapshotCapacity = 10000

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return NewSnapshotStoreWithCapacity(DefaultSnapshotCapacity)
}

// NewSnapshotStoreWithCapacity creates a store holding at most capacity
// observations. A non-positive capacity means unbounded.
func NewSnapshotStoreWithCapacity(capacity int) *SnapshotStore {
	return &SnapshotStore{nextID: 1, capacity: capacity}
}

// Insert appends an observation and sets its ID.
func (s *SnapshotStore) Insert(_ context.Context, o *domain.SnapshotObservation) error {
	if o == nil || o.Strategy == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o.ID = s.nextID
	s.nextID++

	obsCopy := *o
	if s.capacity <= 0 || len(s.data) < s.capacity {
		s.data = append(s.data, &obsCopy)
		return nil
	}
	s.data[s.head] = &obsCopy
	s.head = (s.head + 1) % s.capacity
	return nil
}

// Recent returns up to limit observations, newest first.
func (s *SnapshotStore) Recent(_ context.Context, limit int) ([]*domain.SnapshotObservation, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	size := len(s.data)
	n := min(limit, size)
	result := make([]*domain.SnapshotObservation, 0, n)
	for i := range n {
		obsCopy := *s.data[(s.head+size-1-i)%size]
		result = append(result, &obsCopy)
	}
	return result, nil
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
