// Package fees resolves per-venue maker/taker rates: published tables first,
// then a built-in default table, then environment-variable overrides.
package fees

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/sawpanic/arbiscan/internal/domain"
)

// conservative fallback when a venue is entirely unknown.
const (
	conservativeMaker = 0.0008
	conservativeTaker = 0.0015
)

// builtin holds commonly-known taker/maker pairs for venues without a
// reachable published fee table. Not exhaustive; unknown venues fall back
// to the conservative defaults above.
var builtin = map[string]domain.FeeRate{
	"binance":  {Maker: 0.0010, Taker: 0.0010},
	"kraken":   {Maker: 0.0016, Taker: 0.0026},
	"coinbase": {Maker: 0.0040, Taker: 0.0060},
	"okx":      {Maker: 0.0008, Taker: 0.0010},
	"bybit":    {Maker: 0.0010, Taker: 0.0010},
	"kucoin":   {Maker: 0.0010, Taker: 0.0010},
}

// PublicFeeSource fetches a venue's published fee table. Implementations
// are external collaborators (REST calls to a venue's fee-schedule
// endpoint); the model only needs to know whether one was available.
type PublicFeeSource interface {
	PublicFees(venue string) (domain.FeeRate, bool)
}

// Model resolves Fees per venue at startup and caches them read-only.
// Resolve and Lookup are both called concurrently by the cross and
// triangular scanner goroutines, so the cache is mutex-guarded rather than
// relying on startup-only writes.
type Model struct {
	source PublicFeeSource

	mu    sync.Mutex
	cache map[string]domain.Fees
}

// NewModel constructs a fee model. source may be nil, in which case every
// venue falls through to the built-in table.
func NewModel(source PublicFeeSource) *Model {
	return &Model{source: source, cache: make(map[string]domain.Fees)}
}

// Resolve computes and caches the Fees for venue, following §4.7's
// precedence: public > built-in default > conservative default, then
// applying any <VENUE>_TAKER_FEE / <VENUE>_MAKER_FEE environment override.
func (m *Model) Resolve(venue string) domain.Fees {
	key := strings.ToLower(venue)

	m.mu.Lock()
	if f, ok := m.cache[key]; ok {
		m.mu.Unlock()
		return f
	}
	m.mu.Unlock()

	var f domain.Fees
	if m.source != nil {
		if rate, ok := m.source.PublicFees(venue); ok {
			f = domain.Fees{Maker: rate.Maker, Taker: rate.Taker, Provenance: domain.ProvenancePublic}
		}
	}
	if f.Provenance == "" {
		if rate, ok := builtin[key]; ok {
			f = domain.Fees{Maker: rate.Maker, Taker: rate.Taker, Provenance: domain.ProvenanceDefault}
		} else {
			f = domain.Fees{Maker: conservativeMaker, Taker: conservativeTaker, Provenance: domain.ProvenanceDefault}
		}
	}

	if applyEnvOverride(venue, &f) {
		f.Provenance = domain.ProvenanceEnv
	}

	m.mu.Lock()
	m.cache[key] = f
	m.mu.Unlock()
	return f
}

// applyEnvOverride reads <VENUE>_TAKER_FEE and <VENUE>_MAKER_FEE, parsing
// each as a real in [0,1). Returns true if either was applied.
func applyEnvOverride(venue string, f *domain.Fees) bool {
	prefix := strings.ToUpper(venue)
	applied := false

	if v, ok := os.LookupEnv(fmt.Sprintf("%s_TAKER_FEE", prefix)); ok {
		if rate, err := parseFeeRate(v); err == nil {
			f.Taker = rate
			applied = true
		}
	}
	if v, ok := os.LookupEnv(fmt.Sprintf("%s_MAKER_FEE", prefix)); ok {
		if rate, err := parseFeeRate(v); err == nil {
			f.Maker = rate
			applied = true
		}
	}
	return applied
}

func parseFeeRate(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("fees: invalid rate %q: %w", raw, err)
	}
	if v < 0 || v >= 1 {
		return 0, fmt.Errorf("fees: rate %v out of range [0,1)", v)
	}
	return v, nil
}

// Lookup returns (maker, taker) for (venue, symbol), resolving the venue if
// not already cached and preferring a symbol-specific override.
func (m *Model) Lookup(venue string, symbol domain.Symbol) (maker, taker float64) {
	return m.Resolve(venue).Lookup(symbol)
}
