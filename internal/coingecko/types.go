// Package coingecko is a client for the CoinGecko market-data API.
package coingecko

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"mnm-site/internal/domain"
)

// Source defines the market-data operations the resolvers rely on.
type Source interface {
	// TokenByAddress returns the on-chain token record, nil if the body carries none.
	TokenByAddress(ctx context.Context, network, address string) (*OnchainToken, error)

	// Search returns tokens matching a free-text query, in upstream order.
	Search(ctx context.Context, query string) ([]domain.TokenCandidate, error)

	// SimplePrice returns spot data for an id, nil if the id is not priced.
	SimplePrice(ctx context.Context, id string) (*SimplePrice, error)

	// MarketChart returns price and volume series for the last days.
	MarketChart(ctx context.Context, id string, days int) (*MarketChart, error)
}

// Number decodes a JSON number, a numeric string or null.
type Number struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*n = Number{}
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse numeric string %q: %w", s, err)
		}
		*n = Number{Value: v, Valid: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Number{Value: v, Valid: true}
	return nil
}

// OrZero returns the value, or 0 if absent.
func (n Number) OrZero() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

// OnchainToken is the network-scoped token record.
type OnchainToken struct {
	PriceUSD     Number
	Change24hPct Number
	Volume24hUSD Number
	MarketCapUSD Number
	Address      string
	Symbol       string
	Name         string
}

// SimplePrice is one entry of the simple price endpoint.
type SimplePrice struct {
	USD          Number `json:"usd"`
	USD24hChange Number `json:"usd_24h_change"`
	USD24hVol    Number `json:"usd_24h_vol"`
	USDMarketCap Number `json:"usd_market_cap"`
}

// MarketChart holds [timestamp_ms, value] pairs.
type MarketChart struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

type onchainTokenResponse struct {
	Data *onchainTokenData `json:"data"`
}

// onchainTokenData accepts fields either inline or under attributes.
type onchainTokenData struct {
	onchainTokenFields
	Attributes *onchainTokenFields `json:"attributes"`
}

type onchainTokenFields struct {
	Address      string `json:"address"`
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	PriceUSD     Number `json:"price_usd"`
	Change24hPct Number `json:"price_change_percentage_24h"`
	Volume24hUSD Number `json:"volume_24h_usd"`
	MarketCapUSD Number `json:"market_cap_usd"`
}

func (d *onchainTokenData) flatten() *OnchainToken {
	f := d.onchainTokenFields
	if !f.PriceUSD.Valid && d.Attributes != nil {
		f = *d.Attributes
	}
	return &OnchainToken{
		PriceUSD:     f.PriceUSD,
		Change24hPct: f.Change24hPct,
		Volume24hUSD: f.Volume24hUSD,
		MarketCapUSD: f.MarketCapUSD,
		Address:      f.Address,
		Symbol:       f.Symbol,
		Name:         f.Name,
	}
}

type searchResponse struct {
	Coins []searchCoin `json:"coins"`
}

type searchCoin struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}
