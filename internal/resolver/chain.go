// Package resolver turns aggregator lookups into price snapshots and series.
//
// Each resolver is an ordered list of strategies. A strategy either hits with
// a value or misses with a reason; the chain returns the first hit. Upstream
// failures are misses, never errors.
package resolver

import (
	"context"

	"github.com/sirupsen/logrus"

	"mnm-site/internal/observability"
)

// StrategySentinel names the terminal "unavailable" result.
const StrategySentinel = "sentinel"

// Outcome is the result of one strategy.
type Outcome[T any] struct {
	Value  T
	Hit    bool
	Reason string
	Err    error // upstream error behind a miss, if any
}

// Hit wraps a successful value.
func Hit[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v, Hit: true}
}

// Miss reports that the next strategy should be tried.
func Miss[T any](reason string, err error) Outcome[T] {
	return Outcome[T]{Reason: reason, Err: err}
}

// Strategy is one named lookup.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) Outcome[T]
}

// Chain evaluates strategies in order.
type Chain[T any] struct {
	resolver   string
	strategies []Strategy[T]
	logger     *logrus.Entry
}

// NewChain creates a chain for the named resolver.
func NewChain[T any](resolver string, logger *logrus.Entry, strategies ...Strategy[T]) *Chain[T] {
	return &Chain[T]{
		resolver:   resolver,
		strategies: strategies,
		logger:     logger,
	}
}

// Resolve returns the first hit and the strategy that produced it.
// ok is false when every strategy missed.
func (c *Chain[T]) Resolve(ctx context.Context) (value T, strategy string, ok bool) {
	for _, s := range c.strategies {
		out := s.Run(ctx)
		observability.RecordStrategyOutcome(c.resolver, s.Name, out.Hit)
		if out.Hit {
			return out.Value, s.Name, true
		}

		entry := c.logger.WithFields(logrus.Fields{
			"resolver": c.resolver,
			"strategy": s.Name,
			"reason":   out.Reason,
		})
		if out.Err != nil {
			entry = entry.WithError(out.Err)
		}
		entry.Info("strategy missed, trying next")
	}

	observability.RecordSentinel(c.resolver)
	var zero T
	return zero, StrategySentinel, false
}
