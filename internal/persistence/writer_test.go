package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/arbiscan/internal/domain"
)

type fakeOppRepo struct {
	mu    sync.Mutex
	calls [][]OpportunityRecord
}

func (f *fakeOppRepo) InsertBatch(ctx context.Context, rows []OpportunityRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, rows)
	return nil
}

func (f *fakeOppRepo) totalRows() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += len(c)
	}
	return n
}

type fakeTriRepo struct{}

func (fakeTriRepo) InsertBatch(ctx context.Context, rows []TriOpportunityRecord) error { return nil }

type fakeHealthRepo struct{}

func (fakeHealthRepo) InsertBatch(ctx context.Context, rows []VenueHealthRecord) error { return nil }

func sampleOpp(t *testing.T, notional float64) domain.CrossOpportunity {
	t.Helper()
	sym, err := domain.NewSymbol("BTC", "USDT")
	require.NoError(t, err)
	o, err := domain.NewCrossOpportunity(sym, "binance", "okx", 50000, 50200, 50050, 50149.8, notional, 1, 1,
		domain.FeeRate{Maker: 0.0008, Taker: 0.001}, domain.FeeRate{Maker: 0.0008, Taker: 0.001}, time.Now(), domain.ModeStream)
	require.NoError(t, err)
	return o
}

func TestWriter_FlushesOnBatchSize(t *testing.T) {
	opps := &fakeOppRepo{}
	w := NewWriter(opps, fakeTriRepo{}, fakeHealthRepo{})

	for i := 0; i < batchSize; i++ {
		w.AppendOpportunity(sampleOpp(t, float64(100+i)))
	}

	assert.Equal(t, batchSize, opps.totalRows())
	assert.Equal(t, 1, len(opps.calls))
}

func TestWriter_FlushAllDrainsPartialBuffer(t *testing.T) {
	opps := &fakeOppRepo{}
	w := NewWriter(opps, fakeTriRepo{}, fakeHealthRepo{})

	w.AppendOpportunity(sampleOpp(t, 100))
	w.AppendOpportunity(sampleOpp(t, 101))
	assert.Equal(t, 0, opps.totalRows())

	w.FlushAll(context.Background())
	assert.Equal(t, 2, opps.totalRows())
}

func TestWriter_RunFlushesOnCancel(t *testing.T) {
	opps := &fakeOppRepo{}
	w := NewWriter(opps, fakeTriRepo{}, fakeHealthRepo{})
	w.AppendOpportunity(sampleOpp(t, 100))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.Equal(t, 1, opps.totalRows())
}
