// Package okx implements a poll-mode Connector for OKX spot depth.
package okx

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
	venue.Register("okx", func() venue.Connector { return New("") })
}

const defaultBaseURL = "https://www.okx.com"

// Connector fetches depth snapshots from OKX's REST API. It does not
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

func (c *Connector) Name() string                      { return "okx" }
func (c *Connector) Connect(ctx context.Context) error  { return nil }
func (c *Connector) Disconnect() error                 { return nil }
func (c *Connector) SupportsStreaming() bool            { return false }
func (c *Connector) Fees() domain.FeeRate               { return domain.FeeRate{Maker: 0.0008, Taker: 0.0010} }

func (c *Connector) StreamBooks(ctx context.Context, symbol domain.Symbol) (<-chan domain.OrderBook, error) {
	return nil, venue.ErrStreamingUnsupported
}

type booksResponse struct {
	Code string     `json:"code"`
	Data []bookData `json:"data"`
}

type bookData struct {
	Asks [][]string `json:"asks"`
	Bids [][]string `json:"bids"`
	Ts   string     `json:"ts"`
}

func (c *Connector) PollBook(ctx context.Context, symbol domain.Symbol) (domain.OrderBook, error) {
	native := venue.DenormalizeSymbol("okx", symbol)
	instID := native[:len(native)-len(symbol.Quote.String())] + "-" + symbol.Quote.String()

	url := fmt.Sprintf("%s/api/v5/market/books?instId=%s&sz=400", c.baseURL, instID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("okx: build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("okx: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.OrderBook{}, fmt.Errorf("okx: API error %d: %s", resp.StatusCode, string(body))
	}

	var books booksResponse
	if err := json.NewDecoder(resp.Body).Decode(&books); err != nil {
		return domain.OrderBook{}, fmt.Errorf("okx: decode response: %w", err)
	}
	if len(books.Data) == 0 {
		return domain.OrderBook{}, fmt.Errorf("okx: empty response for %s", instID)
	}

	book := books.Data[0]
	bids, err := toLevels(book.Bids)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("okx: bids: %w", err)
	}
	asks, err := toLevels(book.Asks)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("okx: asks: %w", err)
	}

	tsMs, _ := strconv.ParseInt(book.Ts, 10, 64)

	ob, err := domain.NewOrderBook("okx", symbol, bids, asks, time.Now(), tsMs)
	if err != nil {
		return domain.OrderBook{}, err
	}

	log.Debug().Str("venue", "okx").Str("symbol", symbol.String()).
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
