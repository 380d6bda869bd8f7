// Package sui is a minimal Sui JSON-RPC client covering coin queries.
package sui

import "context"

// RPCClient defines the Sui RPC operations used for balance checks.
type RPCClient interface {
	// GetAllCoins lists one page of coin objects owned by an address.
	// An empty cursor starts at the first page.
	GetAllCoins(ctx context.Context, owner, cursor string, limit int) (*CoinPage, error)

	// GetCoinMetadata returns metadata for a coin type, nil if the node has none.
	GetCoinMetadata(ctx context.Context, coinType string) (*CoinMetadata, error)
}

// Coin is one owned coin object.
type Coin struct {
	CoinType            string
	CoinObjectID        string
	Version             string
	Digest              string
	Balance             string
	PreviousTransaction string
}

// CoinPage is a page of coins with its continuation cursor.
type CoinPage struct {
	Data        []Coin
	NextCursor  string
	HasNextPage bool
}

// CoinMetadata describes a coin type.
type CoinMetadata struct {
	ID          string
	Decimals    int
	Name        string
	Symbol      string
	Description string
	IconURL     string
}
