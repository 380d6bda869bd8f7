package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"mnm-site/internal/logger"
)

func TestChain_FirstHitWins(t *testing.T) {
	var ran []string
	mk := func(name string, out Outcome[int]) Strategy[int] {
		return Strategy[int]{Name: name, Run: func(context.Context) Outcome[int] {
			ran = append(ran, name)
			return out
		}}
	}

	chain := NewChain("test", logger.Discard(),
		mk("a", Miss[int]("nope", errors.New("boom"))),
		mk("b", Hit(2)),
		mk("c", Hit(3)),
	)

	v, name, ok := chain.Resolve(context.Background())
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, "b", name)
	assert.Equal(t, []string{"a", "b"}, ran)
}

func TestChain_AllMiss(t *testing.T) {
	chain := NewChain("test", logger.Discard(),
		Strategy[string]{Name: "a", Run: func(context.Context) Outcome[string] { return Miss[string]("x", nil) }},
	)

	v, name, ok := chain.Resolve(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "", v)
	assert.Equal(t, StrategySentinel, name)
}
