package storage

import (
	"context"

	"mnm-site/internal/domain"
)

// SnapshotStore archives served price snapshots.
type SnapshotStore interface {
	// Insert appends an observation and sets its ID.
	Insert(ctx context.Context, o *domain.SnapshotObservation) error

	// Recent returns up to limit observations, newest first.
	// Returns ErrInvalidInput if limit is not positive.
	Recent(ctx context.Context, limit int) ([]*domain.SnapshotObservation, error)
}

// HistoryStore archives fetched history points.
// A point is keyed by (token_id, timestamp_ms); a later fetch of the same
// point replaces the earlier one.
type HistoryStore interface {
	// InsertBulk stores points. Fails the entire batch on invalid input.
	InsertBulk(ctx context.Context, points []*domain.HistoryObservation) error

	// GetByTimeRange retrieves points for a token within [start, end] (inclusive),
	// ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, tokenID string, start, end int64) ([]*domain.HistoryObservation, error)
}
