package domain

import (
	"errors"
	"time"
)

// SourceExternalAggregator tags snapshots resolved from the market-data aggregator.
const SourceExternalAggregator = "external-aggregator"

// Messages returned when the aggregator has no data for the token.
const (
	SnapshotUnavailableError   = "Token not yet listed on major price tracking services"
	SnapshotUnavailableMessage = "This token may be newly launched and not yet indexed by price APIs. Real price data will appear once listed on exchanges."
)

// PriceSnapshot is the current market state of the token.
// A nil Price means no data is available; Error, Message and
// ContractAddress then explain why.
type PriceSnapshot struct {
	Price           *float64  `json:"price"`
	Change24h       *float64  `json:"change24h"`
	Volume24h       *float64  `json:"volume24h"`
	MarketCap       *float64  `json:"marketCap"`
	LastUpdated     time.Time `json:"lastUpdated"`
	Source          string    `json:"source,omitempty"`
	TokenID         string    `json:"tokenId,omitempty"`
	Error           string    `json:"error,omitempty"`
	Message         string    `json:"message,omitempty"`
	ContractAddress string    `json:"contractAddress,omitempty"`
}

// ErrIncompleteSnapshot is returned by Validate for an unavailable snapshot
// missing its explanation.
var ErrIncompleteSnapshot = errors.New("unavailable snapshot requires error, message and contract address")

// Available reports whether the snapshot carries a price.
func (s *PriceSnapshot) Available() bool {
	return s.Price != nil
}

// Validate checks the unavailable-snapshot invariant.
func (s *PriceSnapshot) Validate() error {
	if s.Price != nil {
		return nil
	}
	if s.Error == "" || s.Message == "" || s.ContractAddress == "" {
		return ErrIncompleteSnapshot
	}
	return nil
}

// UnavailableSnapshot builds the "not yet indexed" response for a contract.
func UnavailableSnapshot(contractAddress string, now time.Time) *PriceSnapshot {
	return &PriceSnapshot{
		LastUpdated:     now.UTC(),
		Error:           SnapshotUnavailableError,
		Message:         SnapshotUnavailableMessage,
		ContractAddress: contractAddress,
	}
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
