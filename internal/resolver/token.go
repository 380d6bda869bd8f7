package resolver

import (
	"context"
	"strings"

	"mnm-site/internal/coingecko"
	"mnm-site/internal/domain"
)

// Default token identity.
const (
	DefaultContractAddress = "0xefde5ddb743bd93e68a75e410e985980457b5e8837c7f4afa36ecc12bb91022b"
	DefaultNetwork         = "sui-network"
	DefaultSearchQuery     = "MNM sui"
	DefaultSymbol          = "mnm"
	DefaultNameFragment    = "little man"
)

// Token identifies the priced token and how to find it by search.
type Token struct {
	ContractAddress string
	Network         string
	SearchQuery     string
	Symbol          string // exact match, case-insensitive
	NameFragment    string // substring match, case-insensitive
}

// DefaultToken returns the $MNM token identity.
func DefaultToken() Token {
	return Token{
		ContractAddress: DefaultContractAddress,
		Network:         DefaultNetwork,
		SearchQuery:     DefaultSearchQuery,
		Symbol:          DefaultSymbol,
		NameFragment:    DefaultNameFragment,
	}
}

// Matches reports whether a search hit is this token.
func (t Token) Matches(c domain.TokenCandidate) bool {
	if t.Symbol != "" && strings.EqualFold(c.Symbol, t.Symbol) {
		return true
	}
	if t.NameFragment != "" && strings.Contains(strings.ToLower(c.Name), strings.ToLower(t.NameFragment)) {
		return true
	}
	return false
}

// FindCandidate returns the first matching candidate in upstream order.
func (t Token) FindCandidate(candidates []domain.TokenCandidate) (domain.TokenCandidate, bool) {
	for _, c := range candidates {
		if t.Matches(c) {
			return c, true
		}
	}
	return domain.TokenCandidate{}, false
}

// searchTokenID resolves the aggregator id of the token via free-text search.
func searchTokenID(ctx context.Context, source coingecko.Source, token Token) Outcome[string] {
	candidates, err := source.Search(ctx, token.SearchQuery)
	if err != nil {
		return Miss[string]("search failed", err)
	}
	if len(candidates) == 0 {
		return Miss[string]("search returned no coins", nil)
	}
	match, ok := token.FindCandidate(candidates)
	if !ok {
		return Miss[string]("no matching candidate", nil)
	}
	return Hit(match.ID)
}
