package memory

import (
	"context"
	"errors"
	"testing"

	"mnm-site/internal/domain"
	"mnm-site/internal/storage"
)

func TestHistoryStore_InsertBulkAndGet(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	points := []*domain.HistoryObservation{
		{TokenID: "little-man", TimestampMs: 2000, Price: 1.1, Volume: 11, FetchedAt: 10},
		{TokenID: "little-man", TimestampMs: 1000, Price: 1.0, Volume: 10, FetchedAt: 10},
		{TokenID: "other", TimestampMs: 1500, Price: 5, FetchedAt: 10},
	}

	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByTimeRange(ctx, "little-man", 0, 5000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(result))
	}
	if result[0].TimestampMs != 1000 || result[1].TimestampMs != 2000 {
		t.Errorf("Expected ascending timestamps, got %d, %d", result[0].TimestampMs, result[1].TimestampMs)
	}

	// Inclusive bounds
	result, _ = store.GetByTimeRange(ctx, "little-man", 1000, 1000)
	if len(result) != 1 {
		t.Errorf("Expected 1 point at the boundary, got %d", len(result))
	}
}

func TestHistoryStore_RefetchReplaces(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	_ = store.InsertBulk(ctx, []*domain.HistoryObservation{
		{TokenID: "t", TimestampMs: 1000, Price: 1.0, FetchedAt: 10},
	})
	_ = store.InsertBulk(ctx, []*domain.HistoryObservation{
		{TokenID: "t", TimestampMs: 1000, Price: 2.0, FetchedAt: 20},
	})
	// Older fetch arriving late does not win.
	_ = store.InsertBulk(ctx, []*domain.HistoryObservation{
		{TokenID: "t", TimestampMs: 1000, Price: 3.0, FetchedAt: 15},
	})

	result, _ := store.GetByTimeRange(ctx, "t", 0, 2000)
	if len(result) != 1 {
		t.Fatalf("Expected 1 point, got %d", len(result))
	}
	if result[0].Price != 2.0 {
		t.Errorf("Expected price 2.0, got %v", result[0].Price)
	}
}

func TestHistoryStore_InvalidBatchWritesNothing(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.HistoryObservation{
		{TokenID: "t", TimestampMs: 1000, Price: 1.0},
		{TokenID: "", TimestampMs: 2000, Price: 1.1},
	})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}

	result, _ := store.GetByTimeRange(ctx, "t", 0, 5000)
	if len(result) != 0 {
		t.Errorf("Expected no points after rejected batch, got %d", len(result))
	}
}

func TestHistoryStore_EmptyBatch(t *testing.T) {
	if err := NewHistoryStore().InsertBulk(context.Background(), nil); err != nil {
		t.Errorf("Expected nil for empty batch, got %v", err)
	}
}
