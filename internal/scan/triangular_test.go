package scan

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/arbiscan/internal/cache"
	"github.com/sawpanic/arbiscan/internal/domain"
)

type fakeVenueBooks struct {
	snapshots map[domain.Symbol]domain.OrderBook
}

func (f fakeVenueBooks) FreshForVenue(venue string, now time.Time) map[domain.Symbol]domain.OrderBook {
	return f.snapshots
}

type zeroFeeSource struct{}

func (zeroFeeSource) Resolve(venue string) domain.Fees {
	return domain.Fees{Maker: 0, Taker: 0, Provenance: domain.ProvenanceDefault}
}

func triBook(t *testing.T, sym domain.Symbol, bidPx, bidAmt, askPx, askAmt float64) domain.OrderBook {
	t.Helper()
	b, err := domain.NewOrderBook("venue", sym,
		[]domain.DepthLevel{{Price: bidPx, Amount: bidAmt}},
		[]domain.DepthLevel{{Price: askPx, Amount: askAmt}},
		time.Now(), 1)
	require.NoError(t, err)
	return b
}

func cycleSnapshots(t *testing.T) map[domain.Symbol]domain.OrderBook {
	btcUsdt, _ := domain.NewSymbol("BTC", "USDT")
	ethBtc, _ := domain.NewSymbol("ETH", "BTC")
	ethUsdt, _ := domain.NewSymbol("ETH", "USDT")

	return map[domain.Symbol]domain.OrderBook{
		btcUsdt: triBook(t, btcUsdt, 49999, 1, 50000, 1),
		ethBtc:  triBook(t, ethBtc, 0.0499, 1, 0.05, 1),
		ethUsdt: triBook(t, ethUsdt, 2510, 1, 2511, 1),
	}
}

func TestTriangularScanner_EmitsExactlyOneOpportunity(t *testing.T) {
	usdt := domain.NormalizeAsset("USDT")
	s := &TriangularScanner{
		Books:       fakeVenueBooks{snapshots: cycleSnapshots(t)},
		Fees:        zeroFeeSource{},
		Venues:      []string{"venue"},
		Bases:       []domain.Asset{usdt},
		StartAmount: 100,
		MinGainBPS:  30,
	}

	opps := s.Scan(time.Now())
	require.Len(t, opps, 1)
	assert.Equal(t, usdt, opps[0].BaseAsset)
	assert.InDelta(t, 40.0, opps[0].GainBPS, 2.0)
}

func TestTriangularScanner_NoneAboveHighThreshold(t *testing.T) {
	usdt := domain.NormalizeAsset("USDT")
	s := &TriangularScanner{
		Books:       fakeVenueBooks{snapshots: cycleSnapshots(t)},
		Fees:        zeroFeeSource{},
		Venues:      []string{"venue"},
		Bases:       []domain.Asset{usdt},
		StartAmount: 100,
		MinGainBPS:  1000,
	}

	opps := s.Scan(time.Now())
	assert.Empty(t, opps)
}

func TestResolveHop_PrefersDirectMarketOverInverse(t *testing.T) {
	snapshots := cycleSnapshots(t)
	eth := domain.NormalizeAsset("ETH")
	usdt := domain.NormalizeAsset("USDT")

	sym, side, ok := resolveHop(eth, usdt, snapshots)
	require.True(t, ok)
	assert.Equal(t, "ETH/USDT", sym.String())
	assert.Equal(t, domain.SideSell, side)
}

func TestResolveHop_FallsBackToInverseMarket(t *testing.T) {
	snapshots := cycleSnapshots(t)
	usdt := domain.NormalizeAsset("USDT")
	btc := domain.NormalizeAsset("BTC")

	sym, side, ok := resolveHop(usdt, btc, snapshots)
	require.True(t, ok)
	assert.Equal(t, "BTC/USDT", sym.String())
	assert.Equal(t, domain.SideBuy, side)
}

func TestResolveHop_NeitherMarketPresent(t *testing.T) {
	snapshots := cycleSnapshots(t)
	xrp := domain.NormalizeAsset("XRP")
	ada := domain.NormalizeAsset("ADA")

	_, _, ok := resolveHop(xrp, ada, snapshots)
	assert.False(t, ok)
}

func TestTriangularScanner_PathCacheReusedWithinTTL(t *testing.T) {
	usdt := domain.NormalizeAsset("USDT")
	s := &TriangularScanner{
		Books:       fakeVenueBooks{snapshots: cycleSnapshots(t)},
		Fees:        zeroFeeSource{},
		Venues:      []string{"venue"},
		Bases:       []domain.Asset{usdt},
		StartAmount: 100,
		MinGainBPS:  30,
	}

	now := time.Now()
	first := s.cyclesFor("venue", cycleSnapshots(t), now)
	second := s.cyclesFor("venue", cycleSnapshots(t), now.Add(pathCacheTTL/2))
	assert.Equal(t, first, second)

	third := s.cyclesFor("venue", cycleSnapshots(t), now.Add(pathCacheTTL+time.Second))
	assert.Equal(t, first, third) // same underlying markets, recomputed but identical
}

func TestTriangularScanner_UsesCacheWhenSet(t *testing.T) {
	usdt := domain.NormalizeAsset("USDT")
	backing := cache.New()
	s := &TriangularScanner{
		Books:       fakeVenueBooks{snapshots: cycleSnapshots(t)},
		Fees:        zeroFeeSource{},
		Venues:      []string{"venue"},
		Bases:       []domain.Asset{usdt},
		StartAmount: 100,
		MinGainBPS:  30,
		Cache:       backing,
	}

	now := time.Now()
	first := s.cyclesFor("venue", cycleSnapshots(t), now)
	require.NotEmpty(t, first)

	raw, ok := backing.Get(context.Background(), pathCacheKey("venue"))
	require.True(t, ok)

	var decoded []cycle
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, first, decoded)

	second := s.cyclesFor("venue", cycleSnapshots(t), now)
	assert.Equal(t, first, second)
}
