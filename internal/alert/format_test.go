package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/arbiscan/internal/domain"
)

func TestFormatCross_UnderNotificationByteLimit(t *testing.T) {
	sym, _ := domain.NewSymbol("BTC", "USDT")
	o, err := domain.NewCrossOpportunity(sym, "binance", "okx", 50000, 50200, 50050, 50149.8, 100, 1, 1,
		domain.FeeRate{Maker: 0.0008, Taker: 0.001}, domain.FeeRate{Maker: 0.0008, Taker: 0.001}, time.Now(), domain.ModeStream)
	require.NoError(t, err)

	msg := formatCross(o)
	assert.LessOrEqual(t, len(msg), 512)
	assert.Contains(t, msg, "BTC/USDT")
	assert.Contains(t, msg, "binance")
	assert.Contains(t, msg, "okx")
}

func TestFormatTriangular_UnderNotificationByteLimit(t *testing.T) {
	legs := [3]domain.Leg{
		{Symbol: mustSym(t, "BTC", "USDT"), Price: 50000, Side: domain.SideBuy},
		{Symbol: mustSym(t, "ETH", "BTC"), Price: 0.05, Side: domain.SideBuy},
		{Symbol: mustSym(t, "ETH", "USDT"), Price: 2510, Side: domain.SideSell},
	}
	o, err := domain.NewTriOpportunity("kraken", "USDT", "BTC", "ETH", 100, 100.4, legs,
		domain.FeeRate{Maker: 0.0016, Taker: 0.0026}, time.Now())
	require.NoError(t, err)

	msg := formatTriangular(o)
	assert.LessOrEqual(t, len(msg), 512)
	assert.Contains(t, msg, "kraken")
	assert.Contains(t, msg, "USDT")
}

func mustSym(t *testing.T, base, quote string) domain.Symbol {
	t.Helper()
	sym, err := domain.NewSymbol(domain.Asset(base), domain.Asset(quote))
	require.NoError(t, err)
	return sym
}
