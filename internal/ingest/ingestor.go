package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/arbiscan/internal/domain"
	"github.com/sawpanic/arbiscan/internal/netutil/ratelimit"
	"github.com/sawpanic/arbiscan/internal/venue"
)

// backoffBase is the initial reconnect delay; it doubles on each failure up
// to Ingestor.MaxBackoff (60s when unset).
const backoffBase = 1 * time.Second

// hotSymbolPollInterval and coldSymbolPollInterval are the two poll-mode
// cadences; a symbol is "hot" if present in Ingestor.HotSymbols.
const (
	hotSymbolPollInterval  = 1 * time.Second
	coldSymbolPollInterval = 3 * time.Second
)

// Ingestor runs one (venue, symbol) task: it tries the stream transport
// first when the connector supports it, reconnecting with exponential
// backoff on failure, and permanently falls back to poll mode after
// MaxReconnectAttempts consecutive failures.
type Ingestor struct {
	Venue                venue.Connector
	Symbol               domain.Symbol
	Queue                *Queue
	HotSymbols           map[domain.Symbol]bool
	MaxReconnectAttempts int
	MaxBackoff           time.Duration

	// Gate bounds simultaneous in-flight poll requests for the owning venue
	// (see runPoll); nil means unbounded.
	Gate chan struct{}
	// RateLimiter enforces the venue's declared minimum inter-request
	// spacing in poll mode; nil means unthrottled.
	RateLimiter *ratelimit.Limiter
	// PollInterval overrides the hot/cold default poll cadence; zero means
	// use HotSymbols to pick between the two package defaults.
	PollInterval time.Duration

	// OnTransportEvent reports stream connect/disconnect/reconnect activity
	// for health reporting; nil is fine.
	OnTransportEvent func(streamConnected bool, reconnectDelta int)
}

// Run drives the ingestor until ctx is canceled. It never returns before
// then, falling back to poll mode rather than giving up entirely.
func (in *Ingestor) Run(ctx context.Context) {
	if in.Venue.SupportsStreaming() {
		streamFailed := in.runStreamWithBackoff(ctx)
		if !streamFailed {
			return
		}
		log.Warn().Str("venue", in.Venue.Name()).Str("symbol", in.Symbol.String()).
			Msg("stream reconnect attempts exhausted, falling back to poll mode")
	}
	in.runPoll(ctx)
}

// runStreamWithBackoff subscribes to the venue's stream, re-subscribing on
// failure with exponential backoff. Returns true if ctx is still live but
// MaxReconnectAttempts was exceeded (caller should fall back to poll), false
// if ctx was canceled first (caller should stop).
func (in *Ingestor) runStreamWithBackoff(ctx context.Context) bool {
	backoff := backoffBase
	attempts := 0

	for {
		if ctx.Err() != nil {
			return false
		}

		ch, err := in.Venue.StreamBooks(ctx, in.Symbol)
		if err != nil {
			if errors.Is(err, venue.ErrStreamingUnsupported) {
				return true
			}
			attempts++
			if in.reportAndCheckExhausted(attempts) {
				return true
			}
			if !in.sleepBackoff(ctx, &backoff) {
				return false
			}
			continue
		}

		if in.OnTransportEvent != nil {
			in.OnTransportEvent(true, 0)
		}
		attempts = 0
		backoff = backoffBase

		streamEnded := in.drainStream(ctx, ch)
		if in.OnTransportEvent != nil {
			in.OnTransportEvent(false, 0)
		}
		if !streamEnded {
			return false
		}

		attempts++
		if in.reportAndCheckExhausted(attempts) {
			return true
		}
		if !in.sleepBackoff(ctx, &backoff) {
			return false
		}
	}
}

// drainStream forwards every snapshot off ch into the queue until the
// channel closes (stream ended) or ctx is canceled. Returns true if the
// stream ended and a reconnect should be attempted, false if ctx died.
func (in *Ingestor) drainStream(ctx context.Context, ch <-chan domain.OrderBook) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case ob, ok := <-ch:
			if !ok {
				return true
			}
			in.Queue.Push(ob)
		}
	}
}

func (in *Ingestor) reportAndCheckExhausted(attempts int) bool {
	if in.OnTransportEvent != nil {
		in.OnTransportEvent(false, 1)
	}
	return attempts >= in.MaxReconnectAttempts
}

func (in *Ingestor) sleepBackoff(ctx context.Context, backoff *time.Duration) bool {
	maxBackoff := in.MaxBackoff
	if maxBackoff == 0 {
		maxBackoff = 60 * time.Second
	}

	select {
	case <-ctx.Done():
		return false
	case <-time.After(*backoff):
	}

	*backoff *= 2
	if *backoff > maxBackoff {
		*backoff = maxBackoff
	}
	return true
}

// runPoll fetches depth snapshots on a fixed cadence until ctx is canceled.
func (in *Ingestor) runPoll(ctx context.Context) {
	interval := in.PollInterval
	if interval == 0 {
		interval = coldSymbolPollInterval
		if in.HotSymbols[in.Symbol] {
			interval = hotSymbolPollInterval
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			in.pollOnce(ctx)
		}
	}
}

func (in *Ingestor) pollOnce(ctx context.Context) {
	if in.RateLimiter != nil {
		if err := in.RateLimiter.Wait(ctx, in.Venue.Name()); err != nil {
			return
		}
	}
	if in.Gate != nil {
		select {
		case in.Gate <- struct{}{}:
			defer func() { <-in.Gate }()
		case <-ctx.Done():
			return
		}
	}

	ob, err := in.Venue.PollBook(ctx, in.Symbol)
	if err != nil {
		log.Warn().Err(err).Str("venue", in.Venue.Name()).Str("symbol", in.Symbol.String()).
			Msg("poll failed")
		return
	}
	in.Queue.Push(ob)
}
