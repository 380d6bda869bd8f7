package stub

import (
	"context"
	"errors"
	"sync"

	"mnm-site/internal/coingecko"
	"mnm-site/internal/domain"
)

// ErrUnavailable simulates a transport failure.
var ErrUnavailable = errors.New("upstream unavailable")

// Source implements coingecko.Source for testing.
// Nil responses with nil errors mean "no data".
type Source struct {
	mu sync.Mutex

	Token    *coingecko.OnchainToken
	TokenErr error

	Candidates []domain.TokenCandidate
	SearchErr  error

	Prices   map[string]*coingecko.SimplePrice
	PriceErr error

	Charts   map[string]*coingecko.MarketChart
	ChartErr error

	// Call counters and recorded arguments.
	TokenCalls  int
	SearchCalls int
	PriceCalls  int
	ChartCalls  int
	ChartDays   []int
	Queries     []string
}

// NewSource creates an empty stub source.
func NewSource() *Source {
	return &Source{
		Prices: make(map[string]*coingecko.SimplePrice),
		Charts: make(map[string]*coingecko.MarketChart),
	}
}

// TokenByAddress returns the configured token record.
func (s *Source) TokenByAddress(_ context.Context, _, _ string) (*coingecko.OnchainToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TokenCalls++
	if s.TokenErr != nil {
		return nil, s.TokenErr
	}
	return s.Token, nil
}

// Search returns the configured candidates.
func (s *Source) Search(_ context.Context, query string) ([]domain.TokenCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.SearchCalls++
	s.Queries = append(s.Queries, query)
	if s.SearchErr != nil {
		return nil, s.SearchErr
	}
	return s.Candidates, nil
}

// SimplePrice returns the configured price for id.
func (s *Source) SimplePrice(_ context.Context, id string) (*coingecko.SimplePrice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.PriceCalls++
	if s.PriceErr != nil {
		return nil, s.PriceErr
	}
	return s.Prices[id], nil
}

// MarketChart returns the configured chart for id.
func (s *Source) MarketChart(_ context.Context, id string, days int) (*coingecko.MarketChart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ChartCalls++
	s.ChartDays = append(s.ChartDays, days)
	if s.ChartErr != nil {
		return nil, s.ChartErr
	}
	return s.Charts[id], nil
}

// Num builds a valid coingecko.Number.
func Num(v float64) coingecko.Number {
	return coingecko.Number{Value: v, Valid: true}
}

var _ coingecko.Source = (*Source)(nil)
