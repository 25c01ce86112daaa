package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/arbiscan/internal/domain"
)

func mustBook(t *testing.T, ts time.Time) domain.OrderBook {
	t.Helper()
	sym, err := domain.NewSymbol("BTC", "USDT")
	require.NoError(t, err)
	ob, err := domain.NewOrderBook("binance", sym,
		[]domain.DepthLevel{{Price: 100, Amount: 1}},
		[]domain.DepthLevel{{Price: 101, Amount: 1}}, ts, 0)
	require.NoError(t, err)
	return ob
}

func TestQueue_DropsOldestWhenFull(t *testing.T) {
	q := NewQueue()
	t0 := mustBook(t, time.Now())
	t1 := mustBook(t, time.Now().Add(time.Second))
	t2 := mustBook(t, time.Now().Add(2*time.Second))

	q.Push(t0)
	q.Push(t1)
	q.Push(t2) // queue capacity 2: t0 dropped

	first := <-q.ch
	second := <-q.ch
	assert.Equal(t, t1.Timestamp, first.Timestamp)
	assert.Equal(t, t2.Timestamp, second.Timestamp)
	assert.Equal(t, int64(1), q.CoalescedCount())
}

func TestCoalescer_PublishesNewestWithinWindow(t *testing.T) {
	q := NewQueue()
	var published []domain.OrderBook
	c := NewCoalescer(q, 20*time.Millisecond, func(ob domain.OrderBook) {
		published = append(published, ob)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go c.Run(ctx)

	first := mustBook(t, time.Now())
	q.Push(first)
	time.Sleep(5 * time.Millisecond)
	second := mustBook(t, time.Now().Add(time.Second))
	q.Push(second)

	require.Eventually(t, func() bool { return len(published) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, second.Timestamp, published[0].Timestamp)
}

func TestCoalescer_StopsOnContextCancel(t *testing.T) {
	q := NewQueue()
	c := NewCoalescer(q, time.Second, func(domain.OrderBook) {})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("coalescer did not stop on cancel")
	}
}
