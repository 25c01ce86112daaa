package ingest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sawpanic/arbiscan/internal/domain"
	"github.com/sawpanic/arbiscan/internal/netutil/ratelimit"
	"github.com/sawpanic/arbiscan/internal/venue"
)

// venueRateLimitMS is each venue's declared minimum inter-request spacing,
// in milliseconds, for poll mode. Venues absent from this table get the
// conservative default.
var venueRateLimitMS = map[string]int{
	"binance":  100,
	"okx":      100,
	"coinbase": 200,
	"kraken":   1000,
}

const defaultRateLimitMS = 500

// concurrencyGateSize implements max(1, min(10, 1000/venue_rate_limit_ms)).
func concurrencyGateSize(venueName string) int {
	ms, ok := venueRateLimitMS[strings.ToLower(venueName)]
	if !ok {
		ms = defaultRateLimitMS
	}
	size := 1000 / ms
	if size > 10 {
		size = 10
	}
	if size < 1 {
		size = 1
	}
	return size
}

// Supervisor owns every (venue, symbol) Ingestor + Coalescer pair and the
// per-venue state (health snapshot, poll concurrency gate, rate limiter)
// they share.
type Supervisor struct {
	books      func(domain.OrderBook)
	hotSymbols map[domain.Symbol]bool

	maxReconnectAttempts int
	maxBackoff           time.Duration
	coalesceWindow       time.Duration

	mu      sync.Mutex
	venues  map[string]*venueState
}

type venueState struct {
	conn    venue.Connector
	gate    chan struct{}
	limiter *ratelimit.Limiter
	queues  map[domain.Symbol]*Queue

	mu     sync.Mutex
	health domain.VenueHealth
}

// NewSupervisor builds a Supervisor. publish is called by every Coalescer
// with its just-drained snapshot (normally BookStore.Put); hotSymbols
// shortens the poll cadence for the given symbols regardless of venue.
func NewSupervisor(publish func(domain.OrderBook), hotSymbols []domain.Symbol, maxReconnectAttempts int, maxBackoff, coalesceWindow time.Duration) *Supervisor {
	hot := make(map[domain.Symbol]bool, len(hotSymbols))
	for _, s := range hotSymbols {
		hot[s] = true
	}
	return &Supervisor{
		books:                 publish,
		hotSymbols:            hot,
		maxReconnectAttempts:  maxReconnectAttempts,
		maxBackoff:            maxBackoff,
		coalesceWindow:        coalesceWindow,
		venues:                make(map[string]*venueState),
	}
}

// AddStream registers a (venue, symbol) task. Call before Run.
func (s *Supervisor) AddStream(conn venue.Connector, symbol domain.Symbol) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vs, ok := s.venues[conn.Name()]
	if !ok {
		vs = &venueState{
			conn:    conn,
			gate:    make(chan struct{}, concurrencyGateSize(conn.Name())),
			limiter: ratelimit.NewLimiter(1000.0/float64(rateLimitMSFor(conn.Name())), 1),
			queues:  make(map[domain.Symbol]*Queue),
			health:  domain.VenueHealth{Venue: conn.Name()},
		}
		s.venues[conn.Name()] = vs
	}
	vs.queues[symbol] = NewQueue()
	vs.health.SubscribedSymbols = append(vs.health.SubscribedSymbols, symbol.String())
}

func rateLimitMSFor(venueName string) int {
	if ms, ok := venueRateLimitMS[strings.ToLower(venueName)]; ok {
		return ms
	}
	return defaultRateLimitMS
}

// Run connects every registered venue and launches an Ingestor+Coalescer
// goroutine pair per (venue, symbol), blocking until ctx is canceled.
func (s *Supervisor) Run(ctx context.Context) {
	s.mu.Lock()
	venues := make([]*venueState, 0, len(s.venues))
	for _, vs := range s.venues {
		venues = append(venues, vs)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, vs := range venues {
		vs := vs
		if err := vs.conn.Connect(ctx); err != nil {
			vs.mu.Lock()
			vs.health.RestOK = false
			vs.mu.Unlock()
			continue
		}

		for symbol, queue := range vs.queues {
			symbol, queue := symbol, queue
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.runStream(ctx, vs, symbol, queue)
			}()
		}
	}

	<-ctx.Done()
	wg.Wait()
	s.mu.Lock()
	for _, vs := range s.venues {
		vs.conn.Disconnect()
	}
	s.mu.Unlock()
}

func (s *Supervisor) runStream(ctx context.Context, vs *venueState, symbol domain.Symbol, queue *Queue) {
	in := &Ingestor{
		Venue:                vs.conn,
		Symbol:               symbol,
		Queue:                queue,
		HotSymbols:           s.hotSymbols,
		MaxReconnectAttempts: s.maxReconnectAttempts,
		MaxBackoff:           s.maxBackoff,
		Gate:                 vs.gate,
		RateLimiter:          vs.limiter,
		OnTransportEvent: func(streamConnected bool, reconnectDelta int) {
			vs.mu.Lock()
			vs.health.StreamConnected = streamConnected
			vs.health.ReconnectCount += reconnectDelta
			if streamConnected {
				vs.health.LastStreamMsgTS = time.Now()
			}
			vs.mu.Unlock()
		},
	}

	co := NewCoalescer(queue, s.coalesceWindow, s.books)
	co.OnPublish = func(venueName string, sym domain.Symbol, ts time.Time) {
		vs.mu.Lock()
		vs.health.LastRestTS = ts
		vs.health.RestOK = true
		vs.health.QueueDepth = len(queue.ch)
		vs.health.CoalescedCount = queue.CoalescedCount()
		vs.mu.Unlock()
	}

	var inWG sync.WaitGroup
	inWG.Add(1)
	go func() {
		defer inWG.Done()
		in.Run(ctx)
	}()

	co.Run(ctx)
	inWG.Wait()
}

// Health returns a snapshot of every venue's current VenueHealth, keyed by
// venue name.
func (s *Supervisor) Health() map[string]domain.VenueHealth {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]domain.VenueHealth, len(s.venues))
	for name, vs := range s.venues {
		vs.mu.Lock()
		out[name] = vs.health
		vs.mu.Unlock()
	}
	return out
}
