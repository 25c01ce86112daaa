// Package binance implements a poll-mode Connector for Binance spot depth.
package binance

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
	venue.Register("binance", func() venue.Connector { return New("") })
}

const defaultBaseURL = "https://api.binance.com"

// Connector fetches depth snapshots from Binance's REST API. It does not
// support streaming.
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

func (c *Connector) Name() string                { return "binance" }
func (c *Connector) Connect(ctx context.Context) error { return nil }
func (c *Connector) Disconnect() error            { return nil }
func (c *Connector) SupportsStreaming() bool      { return false }

func (c *Connector) StreamBooks(ctx context.Context, symbol domain.Symbol) (<-chan domain.OrderBook, error) {
	return nil, venue.ErrStreamingUnsupported
}

func (c *Connector) Fees() domain.FeeRate { return domain.FeeRate{Maker: 0.0010, Taker: 0.0010} }

type depthResponse struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

func (c *Connector) PollBook(ctx context.Context, symbol domain.Symbol) (domain.OrderBook, error) {
	native := venue.DenormalizeSymbol("binance", symbol)
	url := fmt.Sprintf("%s/api/v3/depth?symbol=%s&limit=1000", c.baseURL, native)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("binance: build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("binance: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.OrderBook{}, fmt.Errorf("binance: API error %d: %s", resp.StatusCode, string(body))
	}

	var depth depthResponse
	if err := json.NewDecoder(resp.Body).Decode(&depth); err != nil {
		return domain.OrderBook{}, fmt.Errorf("binance: decode response: %w", err)
	}

	bids, err := toLevels(depth.Bids)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("binance: bids: %w", err)
	}
	asks, err := toLevels(depth.Asks)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("binance: asks: %w", err)
	}

	book, err := domain.NewOrderBook("binance", symbol, bids, asks, time.Now(), depth.LastUpdateID)
	if err != nil {
		return domain.OrderBook{}, err
	}

	log.Debug().Str("venue", "binance").Str("symbol", symbol.String()).
		Float64("best_bid", book.BestBid().Price).Float64("best_ask", book.BestAsk().Price).
		Msg("polled order book")

	return book, nil
}

func toLevels(raw [][]string) ([]domain.DepthLevel, error) {
	levels := make([]domain.DepthLevel, 0, len(raw))
	for _, pair := range raw {
		if len(pair) != 2 {
			continue
		}
		price, err := strconv.ParseFloat(pair[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q: %w", pair[0], err)
		}
		amount, err := strconv.ParseFloat(pair[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", pair[1], err)
		}
		levels = append(levels, domain.DepthLevel{Price: price, Amount: amount})
	}
	return levels, nil
}
