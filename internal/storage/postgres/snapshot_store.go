package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mnm-site/internal/domain"
	"mnm-site/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Insert appends an observation and sets its ID.
func (s *SnapshotStore) Insert(ctx context.Context, o *domain.SnapshotObservation) error {
	if o == nil || o.Strategy == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO price_snapshots (
			observed_at, strategy,
			price, change_24h, volume_24h, market_cap, last_updated,
			source, token_id, error, message, contract_address
		) VALUES (
			$1, $2,
			$3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12
		)
		RETURNING id
	`

	snap := o.Snapshot
	err := s.pool.QueryRow(ctx, query,
		o.ObservedAt, o.Strategy,
		snap.Price, snap.Change24h, snap.Volume24h, snap.MarketCap, snap.LastUpdated,
		snap.Source, snap.TokenID, snap.Error, snap.Message, snap.ContractAddress,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert price snapshot: %w", err)
	}
	return nil
}

// Recent returns up to limit observations, newest first.
func (s *SnapshotStore) Recent(ctx context.Context, limit int) ([]*domain.SnapshotObservation, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT id, observed_at, strategy,
			price, change_24h, volume_24h, market_cap, last_updated,
			source, token_id, error, message, contract_address
		FROM price_snapshots
		ORDER BY observed_at DESC, id DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func scanSnapshots(rows pgx.Rows) ([]*domain.SnapshotObservation, error) {
	var result []*domain.SnapshotObservation

	for rows.Next() {
		var o domain.SnapshotObservation
		snap := &o.Snapshot
		err := rows.Scan(
			&o.ID, &o.ObservedAt, &o.Strategy,
			&snap.Price, &snap.Change24h, &snap.Volume24h, &snap.MarketCap, &snap.LastUpdated,
			&snap.Source, &snap.TokenID, &snap.Error, &snap.Message, &snap.ContractAddress,
		)
		if err != nil {
			return nil, fmt.Errorf("scan price snapshot row: %w", err)
		}
		snap.LastUpdated = snap.LastUpdated.UTC()
		result = append(result, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price snapshot rows: %w", err)
	}

	return result, nil
}
