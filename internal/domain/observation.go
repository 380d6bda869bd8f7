package domain

// SnapshotObservation is an archived snapshot as served to a client.
// Corresponds to price_snapshots table in PostgreSQL.
type SnapshotObservation struct {
	ID         int64         // assigned by the store
	ObservedAt int64         // unix ms
	Strategy   string        // strategy that produced the snapshot, "sentinel" if none
	Snapshot   PriceSnapshot // payload
}

// HistoryObservation is one archived point of a fetched series.
// Corresponds to price_history table in ClickHouse.
type HistoryObservation struct {
	TokenID     string
	TimestampMs int64
	Price       float64
	Volume      float64
	FetchedAt   int64 // unix ms
}
