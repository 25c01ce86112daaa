// Package scan implements the two periodic scanners: cross-exchange and
// triangular. Both read a consistent view of the Book Store, combine it
// with the Fee Model, and call the VWAP primitive to decide whether an
// opportunity clears its threshold.
package scan

import (
	"time"

	"github.com/sawpanic/arbiscan/internal/domain"
	"github.com/sawpanic/arbiscan/internal/vwap"
)

// FeeSource resolves a venue's fee schedule. internal/fees.Model satisfies
// this.
type FeeSource interface {
	Resolve(venue string) domain.Fees
}

// BookSource is the subset of store.BookStore the cross scanner reads.
type BookSource interface {
	FreshForSymbol(symbol domain.Symbol, now time.Time) map[string]domain.OrderBook
}

// streamAgeThreshold is the freshness bound under which a scan result is
// tagged "stream" rather than "poll" (spec open question: this retains the
// original's age-heuristic instead of propagating the true transport tag).
const streamAgeThreshold = 5 * time.Second

// CrossScanner evaluates every unordered venue pair for each configured
// symbol and emits a CrossOpportunity when a direction clears the
// configured spread threshold.
type CrossScanner struct {
	Books        BookSource
	Fees         FeeSource
	Symbols      []domain.Symbol
	MinNotional  float64
	MinSpreadBPS float64
}

// Scan runs one pass over the configured symbol universe and returns every
// opportunity found.
func (s *CrossScanner) Scan(now time.Time) []domain.CrossOpportunity {
	var found []domain.CrossOpportunity
	for _, sym := range s.Symbols {
		found = append(found, s.scanSymbol(sym, now)...)
	}
	return found
}

func (s *CrossScanner) scanSymbol(sym domain.Symbol, now time.Time) []domain.CrossOpportunity {
	venues := s.Books.FreshForSymbol(sym, now)
	if len(venues) < 2 {
		return nil
	}

	names := make([]string, 0, len(venues))
	for v := range venues {
		names = append(names, v)
	}

	var out []domain.CrossOpportunity
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			a, b := names[i], names[j]
			if opp, ok := s.evaluateDirection(sym, a, venues[a], b, venues[b], now); ok {
				out = append(out, opp)
			}
			if opp, ok := s.evaluateDirection(sym, b, venues[b], a, venues[a], now); ok {
				out = append(out, opp)
			}
		}
	}
	return out
}

// evaluateDirection treats buyBook's asks as the buy leg and sellBook's bids
// as the sell leg.
func (s *CrossScanner) evaluateDirection(sym domain.Symbol, buyVenue string, buyBook domain.OrderBook, sellVenue string, sellBook domain.OrderBook, now time.Time) (domain.CrossOpportunity, bool) {
	buySweep := vwap.Sweep(buyBook.Asks, s.MinNotional)
	if !buySweep.FullyFilled {
		return domain.CrossOpportunity{}, false
	}
	sellSweep := vwap.Sweep(sellBook.Bids, s.MinNotional)
	if !sellSweep.FullyFilled {
		return domain.CrossOpportunity{}, false
	}

	buyFees := s.Fees.Resolve(buyVenue)
	sellFees := s.Fees.Resolve(sellVenue)
	_, buyTaker := buyFees.Lookup(sym)
	_, sellTaker := sellFees.Lookup(sym)

	buyAfter := vwap.AfterFeeBuy(buySweep.VWAP, buyTaker)
	sellAfter := vwap.AfterFeeSell(sellSweep.VWAP, sellTaker)
	if sellAfter <= buyAfter {
		return domain.CrossOpportunity{}, false
	}

	mode := domain.ModePoll
	if now.Sub(buyBook.Timestamp) <= streamAgeThreshold && now.Sub(sellBook.Timestamp) <= streamAgeThreshold {
		mode = domain.ModeStream
	}

	opp, err := domain.NewCrossOpportunity(
		sym, buyVenue, sellVenue,
		buySweep.VWAP, sellSweep.VWAP,
		buyAfter, sellAfter,
		s.MinNotional,
		buySweep.LevelsUsed, sellSweep.LevelsUsed,
		domain.FeeRate{Maker: buyFees.Maker, Taker: buyTaker},
		domain.FeeRate{Maker: sellFees.Maker, Taker: sellTaker},
		now, mode,
	)
	if err != nil {
		return domain.CrossOpportunity{}, false
	}
	if opp.SpreadBPS < s.MinSpreadBPS {
		return domain.CrossOpportunity{}, false
	}
	return opp, true
}
