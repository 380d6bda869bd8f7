package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"mnm-site/internal/coingecko"
	"mnm-site/internal/domain"
)

// StrategySearchChart names the only history strategy.
const StrategySearchChart = "search-market-chart"

// HistoryResult holds either a series or the unavailable payload.
type HistoryResult struct {
	Points      []domain.PriceHistoryPoint // nil when Unavailable is set
	Unavailable *domain.HistoryUnavailable
	TokenID     string
	Strategy    string
}

// HistoryResolver produces the historical price series.
// The direct address endpoint has no history, so only search is tried.
type HistoryResolver struct {
	source coingecko.Source
	token  Token
	logger *logrus.Entry
}

// NewHistoryResolver creates a history resolver.
func NewHistoryResolver(source coingecko.Source, token Token, opts ...Option) *HistoryResolver {
	o := buildOptions(opts)
	return &HistoryResolver{
		source: source,
		token:  token,
		logger: o.logger,
	}
}

type resolvedSeries struct {
	tokenID string
	points  []domain.PriceHistoryPoint
}

// History resolves a series for the last days. days must be positive.
func (r *HistoryResolver) History(ctx context.Context, days int) (*HistoryResult, error) {
	if days <= 0 {
		return nil, fmt.Errorf("resolve history: days must be positive, got %d", days)
	}

	chain := NewChain("history", r.logger, Strategy[resolvedSeries]{
		Name: StrategySearchChart,
		Run: func(ctx context.Context) Outcome[resolvedSeries] {
			return r.searchChart(ctx, days)
		},
	})

	series, strategy, ok := chain.Resolve(ctx)
	if !ok {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("resolve history: %w", err)
		}
		return &HistoryResult{
			Unavailable: domain.NewHistoryUnavailable(r.token.ContractAddress),
			Strategy:    strategy,
		}, nil
	}

	return &HistoryResult{
		Points:   series.points,
		TokenID:  series.tokenID,
		Strategy: strategy,
	}, nil
}

func (r *HistoryResolver) searchChart(ctx context.Context, days int) Outcome[resolvedSeries] {
	id := searchTokenID(ctx, r.source, r.token)
	if !id.Hit {
		return Miss[resolvedSeries](id.Reason, id.Err)
	}

	chart, err := r.source.MarketChart(ctx, id.Value, days)
	if err != nil {
		return Miss[resolvedSeries]("market chart failed", err)
	}
	if chart == nil || chart.Prices == nil {
		return Miss[resolvedSeries]("market chart has no price series", nil)
	}

	return Hit(resolvedSeries{tokenID: id.Value, points: ZipSeries(chart)})
}

// ZipSeries pairs prices with volumes by index. A missing volume is 0.
// The result is never nil.
func ZipSeries(chart *coingecko.MarketChart) []domain.PriceHistoryPoint {
	points := make([]domain.PriceHistoryPoint, 0, len(chart.Prices))
	for i, p := range chart.Prices {
		volume := 0.0
		if i < len(chart.TotalVolumes) {
			volume = chart.TotalVolumes[i][1]
		}
		points = append(points, domain.PriceHistoryPoint{
			Timestamp: time.UnixMilli(int64(p[0])).UTC(),
			Price:     p[1],
			Volume:    volume,
		})
	}
	return points
}
