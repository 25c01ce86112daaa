package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/arbiscan/internal/domain"
)

func TestConcurrencyGateSize_FollowsFormula(t *testing.T) {
	venueRateLimitMS["__test_fast__"] = 50  // 1000/50 = 20 -> capped at 10
	venueRateLimitMS["__test_slow__"] = 1000 // 1000/1000 = 1
	defer delete(venueRateLimitMS, "__test_fast__")
	defer delete(venueRateLimitMS, "__test_slow__")

	assert.Equal(t, 10, concurrencyGateSize("__test_fast__"))
	assert.Equal(t, 1, concurrencyGateSize("__test_slow__"))
	assert.Equal(t, 10, concurrencyGateSize("binance"))
	assert.Equal(t, 5, concurrencyGateSize("coinbase"))
}

func TestSupervisor_PublishesBooksAndTracksHealth(t *testing.T) {
	var mu sync.Mutex
	var published []domain.OrderBook

	sym, err := domain.NewSymbol("BTC", "USDT")
	require.NoError(t, err)

	sup := NewSupervisor(func(ob domain.OrderBook) {
		mu.Lock()
		published = append(published, ob)
		mu.Unlock()
	}, nil, 5, time.Second, 10*time.Millisecond)

	conn := &stubConnector{name: "test3", streaming: false}
	sup.AddStream(conn, sym)

	// shorten the poll cadence for this test by poking the venue's ingestor
	// indirectly isn't exposed; instead run with a short ctx and rely on the
	// cold-interval default poll not firing, exercising only Connect/health
	// bookkeeping.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	sup.Run(ctx)

	health := sup.Health()
	require.Contains(t, health, "test3")
	assert.Contains(t, health["test3"].SubscribedSymbols, "BTC/USDT")
}
