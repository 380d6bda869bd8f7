package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"mnm-site/internal/coingecko"
	"mnm-site/internal/domain"
)

// Strategy names of the snapshot resolver.
const (
	StrategyDirectAddress = "direct-address"
	StrategySearch        = "search"
)

// SnapshotResult is a resolved snapshot with the strategy that produced it.
type SnapshotResult struct {
	Snapshot *domain.PriceSnapshot
	Strategy string
}

// SnapshotResolver produces the current price snapshot.
type SnapshotResolver struct {
	source coingecko.Source
	token  Token
	now    func() time.Time
	logger *logrus.Entry
	chain  *Chain[*domain.PriceSnapshot]
}

// Option configures resolvers.
type Option func(*options)

type options struct {
	now    func() time.Time
	logger *logrus.Entry
}

// WithClock overrides the clock used for lastUpdated.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		logger: logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewSnapshotResolver creates a resolver trying the direct address lookup
// first and the search lookup second.
func NewSnapshotResolver(source coingecko.Source, token Token, opts ...Option) *SnapshotResolver {
	o := buildOptions(opts)
	r := &SnapshotResolver{
		source: source,
		token:  token,
		now:    o.now,
		logger: o.logger,
	}
	r.chain = NewChain("snapshot", o.logger,
		Strategy[*domain.PriceSnapshot]{Name: StrategyDirectAddress, Run: r.directAddress},
		Strategy[*domain.PriceSnapshot]{Name: StrategySearch, Run: r.search},
	)
	return r
}

// Current resolves the snapshot. A token the aggregator does not know yields
// the unavailable snapshot, not an error. Errors mean the resolver itself failed.
func (r *SnapshotResolver) Current(ctx context.Context) (*SnapshotResult, error) {
	snapshot, strategy, ok := r.chain.Resolve(ctx)
	if !ok {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("resolve snapshot: %w", err)
		}
		snapshot = domain.UnavailableSnapshot(r.token.ContractAddress, r.now())
	}

	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("resolve snapshot: %w", err)
	}

	return &SnapshotResult{Snapshot: snapshot, Strategy: strategy}, nil
}

// directAddress looks the contract up on the network-scoped token endpoint.
func (r *SnapshotResolver) directAddress(ctx context.Context) Outcome[*domain.PriceSnapshot] {
	token, err := r.source.TokenByAddress(ctx, r.token.Network, r.token.ContractAddress)
	if err != nil {
		return Miss[*domain.PriceSnapshot]("token lookup failed", err)
	}
	if token == nil || !token.PriceUSD.Valid || token.PriceUSD.Value == 0 {
		return Miss[*domain.PriceSnapshot]("no price in token record", nil)
	}

	return Hit(&domain.PriceSnapshot{
		Price:       domain.Float(token.PriceUSD.Value),
		Change24h:   domain.Float(token.Change24hPct.OrZero()),
		Volume24h:   domain.Float(token.Volume24hUSD.OrZero()),
		MarketCap:   domain.Float(token.MarketCapUSD.OrZero()),
		LastUpdated: r.now().UTC(),
		Source:      domain.SourceExternalAggregator,
	})
}

// search resolves the token id by search and reads its simple price.
func (r *SnapshotResolver) search(ctx context.Context) Outcome[*domain.PriceSnapshot] {
	id := searchTokenID(ctx, r.source, r.token)
	if !id.Hit {
		return Miss[*domain.PriceSnapshot](id.Reason, id.Err)
	}

	price, err := r.source.SimplePrice(ctx, id.Value)
	if err != nil {
		return Miss[*domain.PriceSnapshot]("simple price failed", err)
	}
	if price == nil {
		return Miss[*domain.PriceSnapshot]("token id not priced", nil)
	}
	if !price.USD.Valid {
		return Miss[*domain.PriceSnapshot]("no usd quote", nil)
	}

	return Hit(&domain.PriceSnapshot{
		Price:       domain.Float(price.USD.Value),
		Change24h:   domain.Float(price.USD24hChange.OrZero()),
		Volume24h:   domain.Float(price.USD24hVol.OrZero()),
		MarketCap:   domain.Float(price.USDMarketCap.OrZero()),
		LastUpdated: r.now().UTC(),
		Source:      domain.SourceExternalAggregator,
		TokenID:     id.Value,
	})
}
