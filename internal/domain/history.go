package domain

import "time"

// Messages returned when no historical series can be resolved.
const (
	HistoryUnavailableError   = "Historical data not available"
	HistoryUnavailableMessage = "This token is not yet listed on price tracking services. Historical data will be available once the token is indexed by major exchanges."
)

// DefaultHistoryDays is the window used when the caller gives none.
const DefaultHistoryDays = 7

// PriceHistoryPoint is one sample of the historical series.
// Sequences keep the order the upstream delivered them in.
type PriceHistoryPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
}

// HistoryUnavailable is the enveloped payload served instead of a series.
type HistoryUnavailable struct {
	Error           string              `json:"error"`
	Message         string              `json:"message"`
	ContractAddress string              `json:"contractAddress"`
	Data            []PriceHistoryPoint `json:"data"`
}

// NewHistoryUnavailable builds the sentinel for a contract. Data is
// always an empty, non-nil slice so it encodes as [].
func NewHistoryUnavailable(contractAddress string) *HistoryUnavailable {
	return &HistoryUnavailable{
		Error:           HistoryUnavailableError,
		Message:         HistoryUnavailableMessage,
		ContractAddress: contractAddress,
		Data:            []PriceHistoryPoint{},
	}
}

// TokenCandidate is an aggregator search hit.
type TokenCandidate struct {
	ID     string
	Name   string
	Symbol string
}
