package domain

import (
	"fmt"
	"strings"
)

// Symbol is an ordered (base, quote) pair, canonically rendered BASE/QUOTE.
type Symbol struct {
	Base  Asset
	Quote Asset
}

// NewSymbol builds a Symbol, rejecting empty or identical legs.
func NewSymbol(base, quote Asset) (Symbol, error) {
	if base == "" || quote == "" {
		return Symbol{}, fmt.Errorf("symbol: base and quote must be non-empty")
	}
	if base == quote {
		return Symbol{}, fmt.Errorf("symbol: base %q equals quote", base)
	}
	return Symbol{Base: base, Quote: quote}, nil
}

// String renders the canonical BASE/QUOTE form.
func (s Symbol) String() string {
	return string(s.Base) + "/" + string(s.Quote)
}

// ParseSymbol parses a canonical "BASE/QUOTE" string.
func ParseSymbol(s string) (Symbol, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return Symbol{}, fmt.Errorf("symbol: %q is not in BASE/QUOTE form", s)
	}
	return NewSymbol(NormalizeAsset(parts[0]), NormalizeAsset(parts[1]))
}
