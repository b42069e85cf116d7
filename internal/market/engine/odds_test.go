package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteOutcome_WeightedPools(t *testing.T) {
	// YES=R$3000, NO=R$1000 (total R$4000)
	pools := map[string]int64{"YES": 300000, "NO": 100000}

	yes, err := QuoteOutcome(pools, "YES")
	require.NoError(t, err)
	assert.InDelta(t, 0.75, yes.Probability, 1e-9)
	// raw 4000/3000 = 1.333..; mult = 1 + 0.333..*0.65
	assert.InDelta(t, 1.2167, yes.OddsMultiplier, 1e-4)

	no, err := QuoteOutcome(pools, "NO")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, no.Probability, 1e-9)
	// raw 4; mult = 1 + 3*0.65 = 2.95
	assert.InDelta(t, 2.95, no.OddsMultiplier, 1e-9)
}

func TestQuoteOutcome_EmptyMarket(t *testing.T) {
	// mercado recém-criado: preço uniforme, odd de equilíbrio
	pools := map[string]int64{"YES": 0, "NO": 0}

	for _, side := range []string{"YES", "NO"} {
		q, err := QuoteOutcome(pools, side)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, q.Probability, 1e-9)
		assert.InDelta(t, 1.65, q.OddsMultiplier, 1e-9)
	}
}

func TestQuoteOutcome_EmptyMarketThreeOutcomes(t *testing.T) {
	pools := map[string]int64{"A": 0, "B": 0, "C": 0}

	q, err := QuoteOutcome(pools, "B")
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, q.Probability, 1e-9)
	// raw = N = 3; mult = 1 + 2*0.65
	assert.InDelta(t, 2.30, q.OddsMultiplier, 1e-9)
}

func TestQuoteOutcome_MultiplierNeverBelowOne(t *testing.T) {
	cases := []struct {
		name    string
		pools   map[string]int64
		outcome string
	}{
		{"pool concentrado no lado cotado", map[string]int64{"YES": 500000, "NO": 0}, "YES"},
		{"lado cotado sem pool", map[string]int64{"YES": 500000, "NO": 0}, "NO"},
		{"pools zerados", map[string]int64{"YES": 0, "NO": 0}, "YES"},
		{"dominância quase total", map[string]int64{"YES": 999999, "NO": 1}, "YES"},
		{"azarão extremo", map[string]int64{"YES": 999999, "NO": 1}, "NO"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := QuoteOutcome(tc.pools, tc.outcome)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, q.OddsMultiplier, 1.0)
		})
	}
}

func TestQuoteOutcome_UnknownOutcome(t *testing.T) {
	pools := map[string]int64{"YES": 100, "NO": 100}
	_, err := QuoteOutcome(pools, "MAYBE")
	assert.ErrorIs(t, err, ErrUnknownOutcome)
}

func TestPotentialPayout_RoundsToNearestCent(t *testing.T) {
	pools := map[string]int64{"YES": 300000, "NO": 100000}
	q, err := QuoteOutcome(pools, "YES")
	require.NoError(t, err)

	// R$100 a 1.2167 -> R$121,67
	assert.Equal(t, int64(12167), PotentialPayout(10000, q.OddsMultiplier))

	// odd 1.0 devolve exatamente o principal
	assert.Equal(t, int64(10000), PotentialPayout(10000, 1.0))
}
