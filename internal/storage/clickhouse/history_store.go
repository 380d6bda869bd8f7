package clickhouse

import (
	"context"
	"fmt"

	"mnm-site/internal/domain"
	"mnm-site/internal/storage"
)

// HistoryStore implements storage.HistoryStore using ClickHouse.
// The table is a ReplacingMergeTree versioned by fetched_at, so re-fetched
// points collapse to the latest fetch; reads use FINAL.
type HistoryStore struct {
	conn *Conn
}

// NewHistoryStore creates a new HistoryStore.
func NewHistoryStore(conn *Conn) *HistoryStore {
	return &HistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.HistoryStore = (*HistoryStore)(nil)

// InsertBulk stores points in one batch.
func (s *HistoryStore) InsertBulk(ctx context.Context, points []*domain.HistoryObservation) error {
	if len(points) == 0 {
		return nil
	}

	for _, p := range points {
		if p == nil || p.TokenID == "" || p.TimestampMs < 0 || p.FetchedAt < 0 {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_history (
			token_id, timestamp_ms, price, volume, fetched_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.TokenID, uint64(p.TimestampMs), p.Price, p.Volume, uint64(p.FetchedAt),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTimeRange retrieves points for a token within [start, end] (inclusive).
func (s *HistoryStore) GetByTimeRange(ctx context.Context, tokenID string, start, end int64) ([]*domain.HistoryObservation, error) {
	if start < 0 || end < start {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT token_id, timestamp_ms, price, volume, fetched_at
		FROM price_history FINAL
		WHERE token_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenID, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanHistory(rows)
}

func scanHistory(rows chRows) ([]*domain.HistoryObservation, error) {
	var points []*domain.HistoryObservation

	for rows.Next() {
		var p domain.HistoryObservation
		var timestampMs, fetchedAt uint64

		if err := rows.Scan(&p.TokenID, &timestampMs, &p.Price, &p.Volume, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scan price history row: %w", err)
		}

		p.TimestampMs = int64(timestampMs)
		p.FetchedAt = int64(fetchedAt)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price history rows: %w", err)
	}

	return points, nil
}
