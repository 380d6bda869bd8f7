package domain

import "github.com/shopspring/decimal"

// DefaultDecimals is assumed when coin metadata cannot be resolved.
const DefaultDecimals = 6

// CoinObject is one owned coin object as reported by the chain.
// An owner may hold several objects of the same coin type.
type CoinObject struct {
	CoinType string
	ObjectID string
	Balance  string // raw integer amount, decimal string
	Digest   string // base58 object digest
}

// WalletTokenBalance is the aggregated holding of one token for an address.
type WalletTokenBalance struct {
	Address           string          `json:"address"`
	RawBalance        decimal.Decimal `json:"rawBalance"`
	Decimals          int             `json:"decimals"`
	NormalizedBalance decimal.Decimal `json:"normalizedBalance"`
}

// ZeroBalance is the balance reported when verification could not complete.
func ZeroBalance(address string) WalletTokenBalance {
	return WalletTokenBalance{
		Address:           address,
		RawBalance:        decimal.Zero,
		Decimals:          DefaultDecimals,
		NormalizedBalance: decimal.Zero,
	}
}
