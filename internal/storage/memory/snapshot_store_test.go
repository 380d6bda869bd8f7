package memory

import (
	"context"
	"errors"
	"testing"

	"mnm-site/internal/domain"
	"mnm-site/internal/storage"
)

func observation(observedAt int64, price float64) *domain.SnapshotObservation {
	return &domain.SnapshotObservation{
		ObservedAt: observedAt,
		Strategy:   "direct-address",
		Snapshot:   domain.PriceSnapshot{Price: domain.Float(price)},
	}
}

func TestSnapshotStore_InsertAndRecent(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		o := observation(i*1000, float64(i))
		if err := store.Insert(ctx, o); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if o.ID != i {
			t.Errorf("Expected ID %d, got %d", i, o.ID)
		}
	}

	result, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 observations, got %d", len(result))
	}
	if result[0].ObservedAt != 3000 || result[1].ObservedAt != 2000 {
		t.Errorf("Expected newest first, got %d, %d", result[0].ObservedAt, result[1].ObservedAt)
	}

	all, _ := store.Recent(ctx, 100)
	if len(all) != 3 {
		t.Errorf("Expected 3 observations, got %d", len(all))
	}
}

func TestSnapshotStore_InvalidInput(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.SnapshotObservation{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for missing strategy, got %v", err)
	}
	if _, err := store.Recent(ctx, 0); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for zero limit, got %v", err)
	}
}

func TestSnapshotStore_Capacity(t *testing.T) {
	store := NewSnapshotStoreWithCapacity(2)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		if err := store.Insert(ctx, observation(i, 1)); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	result, _ := store.Recent(ctx, 10)
	if len(result) != 2 {
		t.Fatalf("Expected 2 observations, got %d", len(result))
	}
	if result[0].ID != 5 || result[1].ID != 4 {
		t.Errorf("Expected IDs 5, 4, got %d, %d", result[0].ID, result[1].ID)
	}
}

func TestSnapshotStore_CapacityWrapsRepeatedly(t *testing.T) {
	store := NewSnapshotStoreWithCapacity(3)
	ctx := context.Background()

	for i := int64(1); i <= 10; i++ {
		if err := store.Insert(ctx, observation(i*1000, float64(i))); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	result, _ := store.Recent(ctx, 10)
	if len(result) != 3 {
		t.Fatalf("Expected 3 observations, got %d", len(result))
	}
	for i, want := range []int64{10, 9, 8} {
		if result[i].ID != want || result[i].ObservedAt != want*1000 {
			t.Errorf("result[%d]: expected ID %d at %d, got ID %d at %d",
				i, want, want*1000, result[i].ID, result[i].ObservedAt)
		}
	}

	result, _ = store.Recent(ctx, 2)
	if len(result) != 2 || result[0].ID != 10 || result[1].ID != 9 {
		t.Errorf("Expected IDs 10, 9 for limit 2, got %v", ids(result))
	}
}

func TestSnapshotStore_Unbounded(t *testing.T) {
	store := NewSnapshotStoreWithCapacity(0)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		_ = store.Insert(ctx, observation(i, 1))
	}

	result, _ := store.Recent(ctx, 10)
	if got := ids(result); len(got) != 5 || got[0] != 5 || got[4] != 1 {
		t.Errorf("Expected IDs 5..1, got %v", got)
	}
}

func ids(obs []*domain.SnapshotObservation) []int64 {
	out := make([]int64, len(obs))
	for i, o := range obs {
		out[i] = o.ID
	}
	return out
}

func TestSnapshotStore_ReturnsCopies(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	o := observation(1000, 1)
	_ = store.Insert(ctx, o)
	o.Strategy = "mutated"

	result, _ := store.Recent(ctx, 1)
	if result[0].Strategy != "direct-address" {
		t.Errorf("Store must not alias inserted values, got %q", result[0].Strategy)
	}
}
