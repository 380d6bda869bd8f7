package httpapi

import (
	"context"
	"time"

	"mnm-site/internal/domain"
	"mnm-site/internal/observability"
)

const archiveTimeout = 5 * time.Second

// archiveSnapshot records a served snapshot. It runs after the response is
// written and outlives a disconnecting client.
func (s *Server) archiveSnapshot(ctx context.Context, snap *domain.PriceSnapshot, strategy string) {
	if s.opts.SnapshotStore == nil || snap == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	o := &domain.SnapshotObservation{
		ObservedAt: s.now().UnixMilli(),
		Strategy:   strategy,
		Snapshot:   *snap,
	}
	if err := s.opts.SnapshotStore.Insert(ctx, o); err != nil {
		s.logger.WithError(err).Warn("archive snapshot failed")
		observability.RecordArchiveError("snapshots")
	}
}

// archiveHistory records the points of a served series.
func (s *Server) archiveHistory(ctx context.Context, tokenID string, points []domain.PriceHistoryPoint) {
	if s.opts.HistoryStore == nil || tokenID == "" || len(points) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	fetchedAt := s.now().UnixMilli()
	batch := make([]*domain.HistoryObservation, 0, len(points))
	for _, p := range points {
		batch = append(batch, &domain.HistoryObservation{
			TokenID:     tokenID,
			TimestampMs: p.Timestamp.UnixMilli(),
			Price:       p.Price,
			Volume:      p.Volume,
			FetchedAt:   fetchedAt,
		})
	}

	if err := s.opts.HistoryStore.InsertBulk(ctx, batch); err != nil {
		s.logger.WithError(err).WithField("token_id", tokenID).Warn("archive history failed")
		observability.RecordArchiveError("history")
	}
}
