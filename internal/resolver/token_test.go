package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mnm-site/internal/domain"
)

func TestToken_Matches(t *testing.T) {
	tok := DefaultToken()

	tests := []struct {
		name string
		c    domain.TokenCandidate
		want bool
	}{
		{"symbol exact", domain.TokenCandidate{Symbol: "mnm"}, true},
		{"symbol case-insensitive", domain.TokenCandidate{Symbol: "MNM"}, true},
		{"symbol prefix only", domain.TokenCandidate{Symbol: "MNMX"}, false},
		{"name substring", domain.TokenCandidate{Name: "The Little Man Coin", Symbol: "TLM"}, true},
		{"name without fragment", domain.TokenCandidate{Name: "Little", Symbol: "LTL"}, false},
		{"empty", domain.TokenCandidate{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.Matches(tt.c))
		})
	}
}

func TestToken_FindCandidate_FirstMatchWins(t *testing.T) {
	tok := DefaultToken()

	got, ok := tok.FindCandidate([]domain.TokenCandidate{
		{ID: "other", Name: "Other", Symbol: "OTH"},
		{ID: "little-man", Name: "Little Man", Symbol: "MNM"},
		{ID: "mnm-bridged", Name: "MNM Bridged", Symbol: "mnm"},
	})
	assert.True(t, ok)
	assert.Equal(t, "little-man", got.ID)

	_, ok = tok.FindCandidate([]domain.TokenCandidate{{ID: "other", Symbol: "OTH"}})
	assert.False(t, ok)
}

func TestToken_EmptyCriteriaMatchNothing(t *testing.T) {
	tok := Token{}
	assert.False(t, tok.Matches(domain.TokenCandidate{Name: "anything", Symbol: "mnm"}))
}
