package alert

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/arbiscan/internal/domain"
)

type recordingSink struct {
	mu   sync.Mutex
	sent []time.Time
}

func (r *recordingSink) Send(ctx context.Context, text string) error {
	r.mu.Lock()
	r.sent = append(r.sent, time.Now())
	r.mu.Unlock()
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func sampleCross(t *testing.T) domain.CrossOpportunity {
	t.Helper()
	sym, _ := domain.NewSymbol("BTC", "USDT")
	o, err := domain.NewCrossOpportunity(sym, "binance", "okx", 50000, 50200, 50050, 50149.8, 100, 1, 1,
		domain.FeeRate{Maker: 0.0008, Taker: 0.001}, domain.FeeRate{Maker: 0.0008, Taker: 0.001}, time.Now(), domain.ModeStream)
	require.NoError(t, err)
	return o
}

func TestPipeline_DedupSuppressesRepeatSubmissions(t *testing.T) {
	p := NewPipeline(&recordingSink{})
	opp := sampleCross(t)
	now := time.Now()

	assert.True(t, p.SubmitCross(opp, now))
	assert.False(t, p.SubmitCross(opp, now.Add(time.Second)))
	assert.False(t, p.SubmitCross(opp, now.Add(2*time.Second)))
	assert.Equal(t, 1, p.QueueDepth())
}

func TestPipeline_ConsumerSendsQueuedMessage(t *testing.T) {
	sink := &recordingSink{}
	p := NewPipeline(sink)
	opp := sampleCross(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.SubmitCross(opp, time.Now())

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestPipeline_RateLimitsConsecutiveSends(t *testing.T) {
	sink := &recordingSink{}
	p := NewPipeline(sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	sym, _ := domain.NewSymbol("BTC", "USDT")
	for i := 0; i < 2; i++ {
		o, _ := domain.NewCrossOpportunity(sym, "binance", "okx", 50000, 50200, 50050, 50149.8, float64(100+i), 1, 1,
			domain.FeeRate{}, domain.FeeRate{}, time.Now(), domain.ModeStream)
		p.SubmitCross(o, time.Now())
	}

	require.Eventually(t, func() bool { return sink.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	sink.mu.Lock()
	gap := sink.sent[1].Sub(sink.sent[0])
	sink.mu.Unlock()
	assert.GreaterOrEqual(t, gap, 900*time.Millisecond)
}

func TestPipeline_FailingSinkDoesNotBlockConsumer(t *testing.T) {
	p := NewPipeline(failingSink{})
	opp := sampleCross(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.SubmitCross(opp, time.Now())
	require.Eventually(t, func() bool { return p.QueueDepth() == 0 }, time.Second, 5*time.Millisecond)
}

type failingSink struct{}

func (failingSink) Send(ctx context.Context, text string) error {
	return assert.AnError
}
