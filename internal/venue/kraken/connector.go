// Package kraken implements Kraken's native WebSocket and REST protocols as
// a Connector. Kraken is the pack's example of a venue that prefers a push
// stream over polling; a circuit breaker governs the stream transport so
// that repeated failures surface as a single error rather than a silent
// reconnect loop, letting the ingest supervisor fall back to PollBook.
package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/arbiscan/internal/domain"
	"github.com/sawpanic/arbiscan/internal/netutil/circuit"
	"github.com/sawpanic/arbiscan/internal/venue"
)

func init() {
	venue.Register("kraken", func() venue.Connector { return New("", "") })
}

const (
	defaultRESTURL = "https://api.kraken.com"
	defaultWSURL   = "wss://ws.kraken.com"
)

// Connector talks to Kraken's public REST depth endpoint and its WebSocket
// book-update feed.
type Connector struct {
	restURL string
	wsURL   string
	client  *http.Client
	breaker *circuit.Breaker
}

// New returns a Connector. Empty restURL/wsURL fall back to production
// endpoints; both are overridable for tests.
func New(restURL, wsURL string) *Connector {
	if restURL == "" {
		restURL = defaultRESTURL
	}
	if wsURL == "" {
		wsURL = defaultWSURL
	}
	return &Connector{
		restURL: restURL,
		wsURL:   wsURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: circuit.NewBreaker(circuit.Config{
			FailureThreshold: 3,
			SuccessThreshold: 1,
			Timeout:          30 * time.Second,
			RequestTimeout:   15 * time.Second,
		}),
	}
}

func (c *Connector) Name() string                      { return "kraken" }
func (c *Connector) Connect(ctx context.Context) error  { return nil }
func (c *Connector) Disconnect() error                  { return nil }
func (c *Connector) SupportsStreaming() bool            { return true }
func (c *Connector) Fees() domain.FeeRate               { return domain.FeeRate{Maker: 0.0016, Taker: 0.0026} }

// StreamBooks dials Kraken's WebSocket feed and subscribes to L2 book
// updates for symbol. The returned channel is closed when ctx is canceled
// or the connection drops. While the breaker is open, StreamBooks returns
// an error without dialing; an already-open stream is not closed by it.
func (c *Connector) StreamBooks(ctx context.Context, symbol domain.Symbol) (<-chan domain.OrderBook, error) {
	if c.breaker.State() == circuit.StateOpen {
		return nil, fmt.Errorf("kraken: stream circuit open, use PollBook")
	}

	native := symbol.Base.String() + "/" + symbol.Quote.String()

	var conn *websocket.Conn
	err := c.breaker.Call(ctx, func(callCtx context.Context) error {
		dialer := websocket.DefaultDialer
		dialer.HandshakeTimeout = 15 * time.Second
		var dialErr error
		conn, _, dialErr = dialer.DialContext(callCtx, c.wsURL, nil)
		return dialErr
	})
	if err != nil {
		return nil, fmt.Errorf("kraken: stream dial failed: %w", err)
	}

	sub := map[string]any{
		"event": "subscribe",
		"pair":  []string{native},
		"subscription": map[string]any{
			"name": "book",
		},
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return nil, fmt.Errorf("kraken: subscribe failed: %w", err)
	}

	out := make(chan domain.OrderBook, 16)
	go c.readLoop(ctx, conn, symbol, out)
	return out, nil
}

func (c *Connector) readLoop(ctx context.Context, conn *websocket.Conn, symbol domain.Symbol, out chan<- domain.OrderBook) {
	defer close(out)
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	var nonce int64
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Str("venue", "kraken").Msg("stream read failed")
			return
		}

		book, ok, err := parseBookUpdate(raw, symbol)
		if err != nil {
			log.Debug().Err(err).Str("venue", "kraken").Msg("stream message parse failed")
			continue
		}
		if !ok {
			continue
		}
		nonce++
		book.Nonce = nonce

		select {
		case out <- book:
		case <-ctx.Done():
			return
		default:
			// consumer is behind; drop this tick rather than block the read loop
		}
	}
}

// bookUpdate covers both snapshot ("as"/"bs") and incremental ("a"/"b")
// messages on Kraken's "book-*" channel. A message that is neither (e.g. the
// initial subscription ack) is skipped by parseBookUpdate.
type bookUpdate struct {
	AsksSnap [][]string `json:"as"`
	BidsSnap [][]string `json:"bs"`
	Asks     [][]string `json:"a"`
	Bids     [][]string `json:"b"`
}

func parseBookUpdate(raw []byte, symbol domain.Symbol) (domain.OrderBook, bool, error) {
	var frame []json.RawMessage
	if err := json.Unmarshal(raw, &frame); err != nil || len(frame) < 2 {
		return domain.OrderBook{}, false, nil
	}

	var upd bookUpdate
	if err := json.Unmarshal(frame[1], &upd); err != nil {
		return domain.OrderBook{}, false, nil
	}

	asks := upd.Asks
	if len(asks) == 0 {
		asks = upd.AsksSnap
	}
	bids := upd.Bids
	if len(bids) == 0 {
		bids = upd.BidsSnap
	}
	if len(asks) == 0 && len(bids) == 0 {
		return domain.OrderBook{}, false, nil
	}

	bidLevels, err := toLevels(bids)
	if err != nil {
		return domain.OrderBook{}, false, err
	}
	askLevels, err := toLevels(asks)
	if err != nil {
		return domain.OrderBook{}, false, err
	}

	book, err := domain.NewOrderBook("kraken", symbol, bidLevels, askLevels, time.Now(), 0)
	if err != nil {
		return domain.OrderBook{}, false, err
	}
	return book, true, nil
}

// PollBook fetches a depth snapshot from Kraken's public REST API. Used as
// the fallback transport when the stream circuit is open.
func (c *Connector) PollBook(ctx context.Context, symbol domain.Symbol) (domain.OrderBook, error) {
	pair := venue.DenormalizeSymbol("kraken", symbol)

	params := url.Values{}
	params.Set("pair", pair)
	params.Set("count", "500")

	reqURL := fmt.Sprintf("%s/0/public/Depth?%s", c.restURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("kraken: build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("kraken: request failed: %w", err)
	}
	defer resp.Body.Close()

	var apiResp struct {
		Error  []string                   `json:"error"`
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return domain.OrderBook{}, fmt.Errorf("kraken: decode response: %w", err)
	}
	if len(apiResp.Error) > 0 {
		return domain.OrderBook{}, fmt.Errorf("kraken: API error: %v", apiResp.Error)
	}
	if len(apiResp.Result) == 0 {
		return domain.OrderBook{}, fmt.Errorf("kraken: empty depth result for %s", pair)
	}

	var raw json.RawMessage
	for _, v := range apiResp.Result {
		raw = v
		break
	}

	var book struct {
		Asks [][]string `json:"asks"`
		Bids [][]string `json:"bids"`
	}
	if err := json.Unmarshal(raw, &book); err != nil {
		return domain.OrderBook{}, fmt.Errorf("kraken: decode book: %w", err)
	}

	bids, err := toLevels(book.Bids)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("kraken: bids: %w", err)
	}
	asks, err := toLevels(book.Asks)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("kraken: asks: %w", err)
	}

	return domain.NewOrderBook("kraken", symbol, bids, asks, time.Now(), 0)
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
