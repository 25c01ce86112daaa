// Package venue defines the connector contract that every exchange adapter
// implements, plus the symbol-normalization helpers shared across adapters.
//
// Two connector shapes live under this package: generic library-backed
// connectors (binance, okx, coinbase) that poll REST depth endpoints on a
// schedule, and native-protocol connectors (kraken) that prefer a push
// stream and fall back to polling when the stream is unavailable.
package venue

import (
	"context"
	"fmt"

	"github.com/sawpanic/arbiscan/internal/domain"
)

// Connector is implemented by every exchange adapter. A connector that does
// not support streaming still implements StreamBooks, returning
// ErrStreamingUnsupported.
type Connector interface {
	Name() string
	Connect(ctx context.Context) error
	Disconnect() error
	SupportsStreaming() bool

	// StreamBooks pushes an OrderBook onto the returned channel each time the
	// venue publishes an update for symbol. The channel is closed when ctx is
	// canceled or the stream transport fails.
	StreamBooks(ctx context.Context, symbol domain.Symbol) (<-chan domain.OrderBook, error)

	// PollBook fetches a single depth snapshot for symbol.
	PollBook(ctx context.Context, symbol domain.Symbol) (domain.OrderBook, error)

	// Fees returns the venue's default maker/taker schedule. The caller
	// merges this with internal/fees precedence rules; it is not itself
	// provenance-tagged public vs default.
	Fees() domain.FeeRate
}

// ErrStreamingUnsupported is returned by StreamBooks on poll-only connectors.
var ErrStreamingUnsupported = fmt.Errorf("venue: streaming not supported by this connector")

// Factory builds a Connector for a venue name, e.g. "binance". Registered by
// each venue subpackage's init or by cmd/arbiscan wiring.
type Factory func() Connector

var registry = map[string]Factory{}

// Register adds a venue factory under name. Called from each venue
// subpackage's init().
func Register(name string, f Factory) { registry[name] = f }

// New constructs the connector registered under name, or an error if no
// venue by that name has been registered.
func New(name string) (Connector, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("venue: no connector registered for %q", name)
	}
	return f(), nil
}

// Names returns every registered venue name.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
