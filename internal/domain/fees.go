package domain

// Provenance records where a venue's fee figures came from.
type Provenance string

const (
	ProvenancePublic  Provenance = "public"
	ProvenanceDefault Provenance = "default"
	ProvenanceEnv     Provenance = "env"
)

// Fees holds maker/taker rates for a venue, optionally overridden per
// symbol. Immutable once populated at startup for a venue.
type Fees struct {
	Maker      float64
	Taker      float64
	Provenance Provenance
	// PerSymbol overrides the venue-level rates for specific symbols.
	PerSymbol map[Symbol]FeeRate
}

// FeeRate is a maker/taker pair.
type FeeRate struct {
	Maker float64
	Taker float64
}

// Lookup returns the (maker, taker) pair applicable to symbol, preferring a
// symbol-specific override when present.
func (f Fees) Lookup(sym Symbol) (maker, taker float64) {
	if f.PerSymbol != nil {
		if r, ok := f.PerSymbol[sym]; ok {
			return r.Maker, r.Taker
		}
	}
	return f.Maker, f.Taker
}
