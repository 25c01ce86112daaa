package scan

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/sawpanic/arbiscan/internal/cache"
	"github.com/sawpanic/arbiscan/internal/domain"
	"github.com/sawpanic/arbiscan/internal/vwap"
)

// VenueBookSource is the subset of store.BookStore the triangular scanner
// reads: every fresh, non-empty snapshot currently held for one venue.
type VenueBookSource interface {
	FreshForVenue(venue string, now time.Time) map[domain.Symbol]domain.OrderBook
}

// pathCacheTTL bounds how long an enumerated cycle set is reused before
// being recomputed from the venue's current market set.
const pathCacheTTL = 300 * time.Second

// cycle is a candidate three-hop path (base -> a2 -> a3 -> base).
type cycle struct {
	Base, A2, A3 domain.Asset
}

type pathCacheEntry struct {
	computedAt time.Time
	cycles     []cycle
}

// TriangularScanner evaluates, for each configured venue, every enumerable
// three-hop cycle and emits a TriOpportunity when the simulated round trip
// clears the configured gain threshold.
type TriangularScanner struct {
	Books         VenueBookSource
	Fees          FeeSource
	Venues        []string
	Bases         []domain.Asset
	ExcludeQuotes []domain.Asset
	StartAmount   float64
	MinGainBPS    float64

	// Cache, when set, backs cycle enumeration with internal/cache instead
	// of the scanner's local map so the path cache survives process
	// restarts when Redis is configured. Nil falls back to the local map.
	Cache cache.Cache

	pathCache map[string]pathCacheEntry
}

// Scan runs one pass over every configured venue and returns every
// opportunity found. Cycle enumeration per venue is stable order (sorted
// lexicographically by base, a2, a3) so repeated runs over unchanged inputs
// emit opportunities in the same order.
func (s *TriangularScanner) Scan(now time.Time) []domain.TriOpportunity {
	if s.pathCache == nil {
		s.pathCache = make(map[string]pathCacheEntry)
	}

	var found []domain.TriOpportunity
	for _, venue := range s.Venues {
		snapshots := s.Books.FreshForVenue(venue, now)
		cycles := s.cyclesFor(venue, snapshots, now)
		fees := s.Fees.Resolve(venue)

		for _, c := range cycles {
			if opp, ok := s.simulateCycle(venue, c, snapshots, fees, now); ok {
				found = append(found, opp)
			}
		}
	}
	return found
}

func (s *TriangularScanner) cyclesFor(venue string, snapshots map[domain.Symbol]domain.OrderBook, now time.Time) []cycle {
	if s.Cache != nil {
		if cycles, ok := s.cyclesFromCache(venue); ok {
			return cycles
		}
	} else if entry, ok := s.pathCache[venue]; ok && now.Sub(entry.computedAt) < pathCacheTTL {
		return entry.cycles
	}

	universe := assetsIn(snapshots)
	excluded := toSet(s.Bases)
	for _, a := range s.ExcludeQuotes {
		excluded[a] = struct{}{}
	}

	var cycles []cycle
	for _, base := range s.Bases {
		for a2 := range universe {
			if _, skip := excluded[a2]; skip {
				continue
			}
			for a3 := range universe {
				if a3 == a2 {
					continue
				}
				if _, skip := excluded[a3]; skip {
					continue
				}
				c := cycle{Base: base, A2: a2, A3: a3}
				if cycleResolvable(c, snapshots) {
					cycles = append(cycles, c)
				}
			}
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		if cycles[i].Base != cycles[j].Base {
			return cycles[i].Base < cycles[j].Base
		}
		if cycles[i].A2 != cycles[j].A2 {
			return cycles[i].A2 < cycles[j].A2
		}
		return cycles[i].A3 < cycles[j].A3
	})

	if s.Cache != nil {
		s.storeCyclesInCache(venue, cycles)
	} else {
		if s.pathCache == nil {
			s.pathCache = make(map[string]pathCacheEntry)
		}
		s.pathCache[venue] = pathCacheEntry{computedAt: now, cycles: cycles}
	}
	return cycles
}

func pathCacheKey(venue string) string { return "arbiscan:tri_path:" + venue }

func (s *TriangularScanner) cyclesFromCache(venue string) ([]cycle, bool) {
	raw, ok := s.Cache.Get(context.Background(), pathCacheKey(venue))
	if !ok {
		return nil, false
	}
	var cycles []cycle
	if err := json.Unmarshal(raw, &cycles); err != nil {
		return nil, false
	}
	return cycles, true
}

func (s *TriangularScanner) storeCyclesInCache(venue string, cycles []cycle) {
	raw, err := json.Marshal(cycles)
	if err != nil {
		return
	}
	s.Cache.Set(context.Background(), pathCacheKey(venue), raw, pathCacheTTL)
}

func cycleResolvable(c cycle, snapshots map[domain.Symbol]domain.OrderBook) bool {
	hops := [][2]domain.Asset{{c.Base, c.A2}, {c.A2, c.A3}, {c.A3, c.Base}}
	for _, h := range hops {
		if _, _, ok := resolveHop(h[0], h[1], snapshots); !ok {
			return false
		}
	}
	return true
}

// resolveHop picks the market and side for a from->to hop: the direct
// market from/to (sell from against bids) takes priority over the inverse
// market to/from (buy to using asks).
func resolveHop(from, to domain.Asset, snapshots map[domain.Symbol]domain.OrderBook) (domain.Symbol, domain.Side, bool) {
	if direct, err := domain.NewSymbol(from, to); err == nil {
		if book, ok := snapshots[direct]; ok && book.NonEmpty() {
			return direct, domain.SideSell, true
		}
	}
	if inverse, err := domain.NewSymbol(to, from); err == nil {
		if book, ok := snapshots[inverse]; ok && book.NonEmpty() {
			return inverse, domain.SideBuy, true
		}
	}
	return domain.Symbol{}, "", false
}

func (s *TriangularScanner) simulateCycle(venue string, c cycle, snapshots map[domain.Symbol]domain.OrderBook, fees domain.Fees, now time.Time) (domain.TriOpportunity, bool) {
	hops := [][2]domain.Asset{{c.Base, c.A2}, {c.A2, c.A3}, {c.A3, c.Base}}

	amount := s.StartAmount
	var legs [3]domain.Leg
	for i, h := range hops {
		market, side, ok := resolveHop(h[0], h[1], snapshots)
		if !ok {
			return domain.TriOpportunity{}, false
		}
		book := snapshots[market]
		_, taker := fees.Lookup(market)

		received, price, filled := simulateHop(amount, book, side, taker)
		if !filled {
			return domain.TriOpportunity{}, false
		}
		legs[i] = domain.Leg{Symbol: market, Price: price, Side: side}
		amount = received
	}

	endAmount := amount
	opp, err := domain.NewTriOpportunity(venue, c.Base, c.A2, c.A3, s.StartAmount, endAmount, legs, domain.FeeRate{Maker: fees.Maker, Taker: fees.Taker}, now)
	if err != nil {
		return domain.TriOpportunity{}, false
	}
	if opp.GainBPS < s.MinGainBPS {
		return domain.TriOpportunity{}, false
	}
	return opp, true
}

// simulateHop executes one hop of the cycle. A sell-side hop disposes of
// `amount` units of the market's base asset into its bids; a buy-side hop
// spends `amount` units of quote (the market's declared quote asset, which
// is the hop's `from` asset) against its asks.
func simulateHop(amount float64, book domain.OrderBook, side domain.Side, taker float64) (received, price float64, fullyFilled bool) {
	switch side {
	case domain.SideSell:
		targetNotional := amount * book.BestBid().Price
		res := vwap.Sweep(book.Bids, targetNotional)
		if !res.FullyFilled {
			return 0, 0, false
		}
		return res.Volume * res.VWAP * (1 - taker), res.VWAP, true
	case domain.SideBuy:
		res := vwap.Sweep(book.Asks, amount)
		if !res.FullyFilled {
			return 0, 0, false
		}
		return (amount / res.VWAP) * (1 - taker), res.VWAP, true
	default:
		return 0, 0, false
	}
}

func assetsIn(snapshots map[domain.Symbol]domain.OrderBook) map[domain.Asset]struct{} {
	out := make(map[domain.Asset]struct{})
	for sym := range snapshots {
		out[sym.Base] = struct{}{}
		out[sym.Quote] = struct{}{}
	}
	return out
}

func toSet(assets []domain.Asset) map[domain.Asset]struct{} {
	out := make(map[domain.Asset]struct{}, len(assets))
	for _, a := range assets {
		out[a] = struct{}{}
	}
	return out
}
