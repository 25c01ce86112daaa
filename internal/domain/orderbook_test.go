package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSymbol(t *testing.T) Symbol {
	t.Helper()
	sym, err := NewSymbol("BTC", "USDT")
	require.NoError(t, err)
	return sym
}

func TestNewOrderBook_SortsAndFilters(t *testing.T) {
	sym := mustSymbol(t)
	bids := []DepthLevel{{Price: 100, Amount: 1}, {Price: 102, Amount: 1}, {Price: -1, Amount: 1}}
	asks := []DepthLevel{{Price: 110, Amount: 1}, {Price: 0, Amount: 1}, {Price: 105, Amount: 1}}

	ob, err := NewOrderBook("kraken", sym, bids, asks, time.Now(), 0)
	require.NoError(t, err)

	require.Len(t, ob.Bids, 2)
	assert.Equal(t, 102.0, ob.Bids[0].Price)
	assert.Equal(t, 100.0, ob.Bids[1].Price)

	require.Len(t, ob.Asks, 2)
	assert.Equal(t, 105.0, ob.Asks[0].Price)
	assert.Equal(t, 110.0, ob.Asks[1].Price)
}

func TestNewOrderBook_RejectsCrossedBook(t *testing.T) {
	sym := mustSymbol(t)
	bids := []DepthLevel{{Price: 110, Amount: 1}}
	asks := []DepthLevel{{Price: 105, Amount: 1}}

	_, err := NewOrderBook("kraken", sym, bids, asks, time.Now(), 0)
	assert.Error(t, err)
}

func TestOrderBook_Fresh(t *testing.T) {
	sym := mustSymbol(t)
	ts := time.Now().Add(-30 * time.Second)
	ob, err := NewOrderBook("kraken", sym, []DepthLevel{{Price: 1, Amount: 1}}, []DepthLevel{{Price: 2, Amount: 1}}, ts, 0)
	require.NoError(t, err)

	assert.True(t, ob.Fresh(ts.Add(FreshnessTTL-time.Second)))
	assert.False(t, ob.Fresh(ts.Add(FreshnessTTL+time.Second)))
}

func TestSymbol_ParseAndRender(t *testing.T) {
	sym, err := ParseSymbol("btc/usdt")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT", sym.String())

	_, err = ParseSymbol("BTCUSDT")
	assert.Error(t, err)

	_, err = NewSymbol("BTC", "BTC")
	assert.Error(t, err)
}
