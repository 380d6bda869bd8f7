package stub

import (
	"context"
	"strconv"
	"sync"

	"mnm-site/internal/sui"
)

// RPCClient implements sui.RPCClient for testing.
// Coins are served in pages of PageSize when it is positive.
type RPCClient struct {
	mu sync.Mutex

	Coins    map[string][]sui.Coin
	Metadata map[string]*sui.CoinMetadata
	PageSize int

	// CoinsErr and MetadataErr are returned instead of data when set.
	CoinsErr    error
	MetadataErr error

	// Call counters.
	CoinCalls     int
	MetadataCalls int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Coins:    make(map[string][]sui.Coin),
		Metadata: make(map[string]*sui.CoinMetadata),
	}
}

// GetAllCoins returns the owner's coins from the stub store.
// The cursor is the decimal offset of the next page.
func (c *RPCClient) GetAllCoins(_ context.Context, owner, cursor string, _ int) (*sui.CoinPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.CoinCalls++
	if c.CoinsErr != nil {
		return nil, c.CoinsErr
	}

	coins := c.Coins[owner]
	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, err
		}
		offset = n
	}
	if offset > len(coins) {
		offset = len(coins)
	}

	end := len(coins)
	if c.PageSize > 0 && offset+c.PageSize < end {
		end = offset + c.PageSize
	}

	page := &sui.CoinPage{
		Data:        append([]sui.Coin(nil), coins[offset:end]...),
		HasNextPage: end < len(coins),
	}
	if page.HasNextPage {
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}

// GetCoinMetadata returns metadata from the stub store, nil if absent.
func (c *RPCClient) GetCoinMetadata(_ context.Context, coinType string) (*sui.CoinMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.MetadataCalls++
	if c.MetadataErr != nil {
		return nil, c.MetadataErr
	}
	return c.Metadata[coinType], nil
}

var _ sui.RPCClient = (*RPCClient)(nil)
