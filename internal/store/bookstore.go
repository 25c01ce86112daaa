// Package store holds the Book Store: the single piece of shared mutable
// state read by both scanners and written by every coalescer.
package store

import (
	"sync"
	"time"

	"github.com/sawpanic/arbiscan/internal/domain"
)

type key struct {
	venue  string
	symbol domain.Symbol
}

// BookStore maps (venue, symbol) to its latest OrderBook snapshot. Writes
// replace an entry wholesale under a mutex whose critical section is a
// single map write; readers take the same lock for a single map read, so a
// reader never observes a partially-written snapshot.
type BookStore struct {
	mu      sync.RWMutex
	entries map[key]domain.OrderBook
}

// New returns an empty BookStore. It holds no persistence; on restart it
// must be warmed again by ingestion.
func New() *BookStore {
	return &BookStore{entries: make(map[key]domain.OrderBook)}
}

// Put installs book as the latest snapshot for its (venue, symbol).
func (s *BookStore) Put(book domain.OrderBook) {
	k := key{venue: book.Venue, symbol: book.Symbol}
	s.mu.Lock()
	s.entries[k] = book
	s.mu.Unlock()
}

// Get returns the latest snapshot for (venue, symbol) if present and fresh
// as of now. A stale or absent entry returns ok = false.
func (s *BookStore) Get(venue string, symbol domain.Symbol, now time.Time) (domain.OrderBook, bool) {
	s.mu.RLock()
	book, ok := s.entries[key{venue: venue, symbol: symbol}]
	s.mu.RUnlock()
	if !ok || !book.Fresh(now) {
		return domain.OrderBook{}, false
	}
	return book, true
}

// FreshForSymbol returns every venue's fresh, non-empty snapshot for symbol,
// keyed by venue name.
func (s *BookStore) FreshForSymbol(symbol domain.Symbol, now time.Time) map[string]domain.OrderBook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.OrderBook)
	for k, book := range s.entries {
		if k.symbol != symbol {
			continue
		}
		if !book.Fresh(now) || !book.NonEmpty() {
			continue
		}
		out[k.venue] = book
	}
	return out
}

// FreshForVenue returns every fresh, non-empty snapshot on venue, keyed by
// symbol. Used by the triangular scanner to resolve hop markets.
func (s *BookStore) FreshForVenue(venue string, now time.Time) map[domain.Symbol]domain.OrderBook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.Symbol]domain.OrderBook)
	for k, book := range s.entries {
		if k.venue != venue {
			continue
		}
		if !book.Fresh(now) || !book.NonEmpty() {
			continue
		}
		out[k.symbol] = book
	}
	return out
}

// Len returns the number of (venue, symbol) entries currently stored,
// regardless of freshness. Used by telemetry.
func (s *BookStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
