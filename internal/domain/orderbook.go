package domain

import (
	"fmt"
	"sort"
	"time"
)

// DepthLevel is a single resting price level. Both fields must be positive;
// levels failing that are rejected at ingest, never carried downstream.
type DepthLevel struct {
	Price  float64
	Amount float64
}

func (l DepthLevel) valid() bool {
	return l.Price > 0 && l.Amount > 0
}

// OrderBook is a normalized, immutable snapshot for one (venue, symbol).
// Bids are sorted descending by price, asks ascending; once constructed via
// NewOrderBook an OrderBook is never mutated in place, only replaced.
type OrderBook struct {
	Venue     string
	Symbol    Symbol
	Bids      []DepthLevel
	Asks      []DepthLevel
	Timestamp time.Time
	Nonce     int64 // optional monotonic sequence, 0 if unused
}

// NewOrderBook sorts and validates levels, dropping invalid ones, and
// rejects the snapshot outright if the book ends up crossed (best_bid >=
// best_ask with both sides non-empty).
func NewOrderBook(venue string, symbol Symbol, bids, asks []DepthLevel, ts time.Time, nonce int64) (OrderBook, error) {
	b := filterValid(bids)
	a := filterValid(asks)

	sort.Slice(b, func(i, j int) bool { return b[i].Price > b[j].Price })
	sort.Slice(a, func(i, j int) bool { return a[i].Price < a[j].Price })

	if len(b) > 0 && len(a) > 0 && b[0].Price >= a[0].Price {
		return OrderBook{}, fmt.Errorf("orderbook: crossed book for %s on %s (best_bid=%v best_ask=%v)",
			symbol, venue, b[0].Price, a[0].Price)
	}

	return OrderBook{
		Venue:     venue,
		Symbol:    symbol,
		Bids:      b,
		Asks:      a,
		Timestamp: ts,
		Nonce:     nonce,
	}, nil
}

func filterValid(levels []DepthLevel) []DepthLevel {
	out := make([]DepthLevel, 0, len(levels))
	for _, l := range levels {
		if l.valid() {
			out = append(out, l)
		}
	}
	return out
}

// BestBid returns the top bid level, or the zero DepthLevel if Bids is
// empty. Callers that care about emptiness check NonEmpty first.
func (ob OrderBook) BestBid() DepthLevel {
	if len(ob.Bids) == 0 {
		return DepthLevel{}
	}
	return ob.Bids[0]
}

// BestAsk returns the top ask level, or the zero DepthLevel if Asks is
// empty. Callers that care about emptiness check NonEmpty first.
func (ob OrderBook) BestAsk() DepthLevel {
	if len(ob.Asks) == 0 {
		return DepthLevel{}
	}
	return ob.Asks[0]
}

// NonEmpty reports whether both sides have at least one level.
func (ob OrderBook) NonEmpty() bool {
	return len(ob.Bids) > 0 && len(ob.Asks) > 0
}

// FreshnessTTL is the maximum age a reader will accept for a book snapshot.
const FreshnessTTL = 60 * time.Second

// Fresh reports whether the snapshot is within FreshnessTTL of now.
func (ob OrderBook) Fresh(now time.Time) bool {
	return now.Sub(ob.Timestamp) <= FreshnessTTL
}
