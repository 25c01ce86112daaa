package vwap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/arbiscan/internal/domain"
)

func levels(pairs ...float64) []domain.DepthLevel {
	out := make([]domain.DepthLevel, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, domain.DepthLevel{Price: pairs[i], Amount: pairs[i+1]})
	}
	return out
}

func TestSweep_SingleLevelSufficiency(t *testing.T) {
	// asks = [(100, 1), (101, 2), (102, 3)], N = 50
	asks := levels(100, 1, 101, 2, 102, 3)
	r := Sweep(asks, 50)

	require.True(t, r.FullyFilled)
	assert.Equal(t, 1, r.LevelsUsed)
	assert.InDelta(t, 100.0, r.VWAP, 1e-9)
	assert.InDelta(t, 0.5, r.Volume, 1e-9)
}

func TestSweep_PartialFill(t *testing.T) {
	// asks = [(100, 1)], N = 200
	asks := levels(100, 1)
	r := Sweep(asks, 200)

	assert.False(t, r.FullyFilled)
	assert.Equal(t, 1, r.LevelsUsed)
	assert.InDelta(t, 1.0, r.Volume, 1e-9)
	assert.InDelta(t, 100.0, r.VWAP, 1e-9)
}

func TestSweep_BidSideSingleLevel(t *testing.T) {
	// bids = [(99, 1), (98, 2)], N = 50
	bids := levels(99, 1, 98, 2)
	r := Sweep(bids, 50)

	require.True(t, r.FullyFilled)
	assert.Equal(t, 1, r.LevelsUsed)
	assert.InDelta(t, 99.0, r.VWAP, 1e-9)
}

func TestSweep_MultiLevelSpan(t *testing.T) {
	asks := levels(100, 1, 101, 2, 102, 3)
	// first level covers 100 notional, need 250 total -> spill into level 2
	r := Sweep(asks, 250)

	require.True(t, r.FullyFilled)
	assert.Equal(t, 2, r.LevelsUsed)
	assert.GreaterOrEqual(t, r.VWAP, 100.0)
	assert.LessOrEqual(t, r.VWAP, 101.0)
}

func TestSweep_EmptyOrNonPositiveTarget(t *testing.T) {
	cases := []struct {
		name   string
		levels []domain.DepthLevel
		target float64
	}{
		{"empty side", nil, 50},
		{"zero target", levels(100, 1), 0},
		{"negative target", levels(100, 1), -10},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := Sweep(c.levels, c.target)
			assert.False(t, r.FullyFilled)
			assert.Zero(t, r.VWAP)
			assert.Zero(t, r.Volume)
			assert.Zero(t, r.LevelsUsed)
		})
	}
}

// TestSweep_FullyFilledInvariant checks invariant 1 from spec §8: for any
// asks with strictly positive prices/amounts and N > 0, if the total
// notional covers N, fully_filled is true and vwap falls within [p1, pk].
func TestSweep_FullyFilledInvariant(t *testing.T) {
	asks := levels(10, 5, 11, 5, 12, 5)
	target := 100.0

	var total float64
	for _, l := range asks {
		total += l.Price * l.Amount
	}
	require.GreaterOrEqual(t, total, target)

	r := Sweep(asks, target)
	require.True(t, r.FullyFilled)
	assert.GreaterOrEqual(t, r.VWAP, asks[0].Price)
	assert.LessOrEqual(t, r.VWAP, asks[r.LevelsUsed-1].Price)
}

func TestAfterFee(t *testing.T) {
	assert.InDelta(t, 101.0, AfterFeeBuy(100, 0.01), 1e-9)
	assert.InDelta(t, 99.0, AfterFeeSell(100, 0.01), 1e-9)
}
