package fees

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/arbiscan/internal/domain"
)

func TestResolve_BuiltinDefault(t *testing.T) {
	m := NewModel(nil)
	f := m.Resolve("binance")
	assert.Equal(t, domain.ProvenanceDefault, f.Provenance)
	assert.Equal(t, 0.0010, f.Taker)
}

func TestResolve_UnknownVenueFallsBackConservative(t *testing.T) {
	m := NewModel(nil)
	f := m.Resolve("some-new-exchange")
	assert.Equal(t, conservativeMaker, f.Maker)
	assert.Equal(t, conservativeTaker, f.Taker)
}

type fakeSource struct{ rate domain.FeeRate }

func (f fakeSource) PublicFees(venue string) (domain.FeeRate, bool) { return f.rate, true }

func TestResolve_PublicSourceTakesPriority(t *testing.T) {
	m := NewModel(fakeSource{rate: domain.FeeRate{Maker: 0.0002, Taker: 0.0003}})
	f := m.Resolve("binance")
	assert.Equal(t, domain.ProvenancePublic, f.Provenance)
	assert.Equal(t, 0.0003, f.Taker)
}

func TestResolve_EnvOverride(t *testing.T) {
	os.Setenv("BINANCE_TAKER_FEE", "0.0005")
	defer os.Unsetenv("BINANCE_TAKER_FEE")

	m := NewModel(nil)
	f := m.Resolve("binance")
	assert.Equal(t, domain.ProvenanceEnv, f.Provenance)
	assert.Equal(t, 0.0005, f.Taker)
}

func TestResolve_CachesAcrossCalls(t *testing.T) {
	os.Setenv("KRAKEN_TAKER_FEE", "0.0009")
	m := NewModel(nil)
	first := m.Resolve("kraken")
	os.Unsetenv("KRAKEN_TAKER_FEE")
	second := m.Resolve("kraken")
	assert.Equal(t, first, second)
}

func TestLookup_SymbolOverride(t *testing.T) {
	m := NewModel(nil)
	f := m.Resolve("binance")
	sym := domain.Symbol{Base: "BTC", Quote: "USDT"}
	f.PerSymbol = map[domain.Symbol]domain.FeeRate{sym: {Maker: 0.0001, Taker: 0.0002}}
	maker, taker := f.Lookup(sym)
	assert.Equal(t, 0.0001, maker)
	assert.Equal(t, 0.0002, taker)
}
