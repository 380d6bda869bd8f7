package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"mnm-site/internal/domain"
	"mnm-site/internal/storage"
)

// HistoryStore is an in-memory implementation of storage.HistoryStore.
type HistoryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.HistoryObservation // keyed by (token_id, timestamp_ms)
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		data: make(map[string]*domain.HistoryObservation),
	}
}

func historyKey(tokenID string, timestampMs int64) string {
	return fmt.Sprintf("%s|%d", tokenID, timestampMs)
}

// InsertBulk stores points, replacing those already stored with an older
// or equal fetch time.
func (s *HistoryStore) InsertBulk(_ context.Context, points []*domain.HistoryObservation) error {
	if len(points) == 0 {
		return nil
	}

	// Validate the whole batch before writing any of it.
	for _, p := range points {
		if p == nil || p.TokenID == "" || p.TimestampMs < 0 {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		key := historyKey(p.TokenID, p.TimestampMs)
		if existing, ok := s.data[key]; ok && existing.FetchedAt > p.FetchedAt {
			continue
		}
		pointCopy := *p
		s.data[key] = &pointCopy
	}
	return nil
}

// GetByTimeRange retrieves points for a token within [start, end] (inclusive).
func (s *HistoryStore) GetByTimeRange(_ context.Context, tokenID string, start, end int64) ([]*domain.HistoryObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.HistoryObservation
	for _, p := range s.data {
		if p.TokenID == tokenID && p.TimestampMs >= start && p.TimestampMs <= end {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

var _ storage.HistoryStore = (*HistoryStore)(nil)
