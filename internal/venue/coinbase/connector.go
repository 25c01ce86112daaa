// Package coinbase implements a poll-mode Connector for Coinbase Exchange
// spot depth.
package coinbase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/arbiscan/internal/domain"
	"github.com/sawpanic/arbiscan/internal/venue"
)

func init() {
	venue.Register("coinbase", func() venue.Connector { return New("") })
}

const defaultBaseURL = "https://api.exchange.coinbase.com"

// Connector fetches depth snapshots from Coinbase Exchange's REST API. It
// does not support streaming.
type Connector struct {
	baseURL string
	client  *http.Client
}

// New returns a Connector. baseURL overrides the production endpoint when
// non-empty, for tests.
func New(baseURL string) *Connector {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Connector{baseURL: baseURL, client: &http.Client{Timeout: 10 * time.Second}}
}

func (c *Connector) Name() string                     { return "coinbase" }
func (c *Connector) Connect(ctx context.Context) error { return nil }
func (c *Connector) Disconnect() error                 { return nil }
func (c *Connector) SupportsStreaming() bool           { return false }
func (c *Connector) Fees() domain.FeeRate              { return domain.FeeRate{Maker: 0.0040, Taker: 0.0060} }

func (c *Connector) StreamBooks(ctx context.Context, symbol domain.Symbol) (<-chan domain.OrderBook, error) {
	return nil, venue.ErrStreamingUnsupported
}

type bookResponse struct {
	Sequence int64      `json:"sequence"`
	Bids     [][]string `json:"bids"`
	Asks     [][]string `json:"asks"`
}

func (c *Connector) PollBook(ctx context.Context, symbol domain.Symbol) (domain.OrderBook, error) {
	product := symbol.Base.String() + "-" + symbol.Quote.String()
	url := fmt.Sprintf("%s/products/%s/book?level=2", c.baseURL, product)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("coinbase: build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("coinbase: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.OrderBook{}, fmt.Errorf("coinbase: API error %d: %s", resp.StatusCode, string(body))
	}

	var book bookResponse
	if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
		return domain.OrderBook{}, fmt.Errorf("coinbase: decode response: %w", err)
	}

	bids, err := toLevels(book.Bids)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("coinbase: bids: %w", err)
	}
	asks, err := toLevels(book.Asks)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("coinbase: asks: %w", err)
	}

	ob, err := domain.NewOrderBook("coinbase", symbol, bids, asks, time.Now(), book.Sequence)
	if err != nil {
		return domain.OrderBook{}, err
	}

	log.Debug().Str("venue", "coinbase").Str("symbol", symbol.String()).
		Float64("best_bid", ob.BestBid().Price).Float64("best_ask", ob.BestAsk().Price).
		Msg("polled order book")

	return ob, nil
}

func toLevels(raw [][]string) ([]domain.DepthLevel, error) {
	levels := make([]domain.DepthLevel, 0, len(raw))
	for _, entry := range raw {
		if len(entry) < 2 {
			continue
		}
		price, err := strconv.ParseFloat(entry[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q: %w", entry[0], err)
		}
		amount, err := strconv.ParseFloat(entry[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", entry[1], err)
		}
		levels = append(levels, domain.DepthLevel{Price: price, Amount: amount})
	}
	return levels, nil
}
