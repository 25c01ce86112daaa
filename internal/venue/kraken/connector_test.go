package kraken

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/arbiscan/internal/domain"
)

func TestPollBook_ParsesDepthResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":[],"result":{"XXBTZUSD":{"asks":[["50010.0","1.0","1700000000"]],"bids":[["50000.0","2.0","1700000000"]]}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	sym, _ := domain.NewSymbol("BTC", "USD")
	book, err := c.PollBook(context.Background(), sym)
	require.NoError(t, err)
	assert.Equal(t, 50000.0, book.BestBid().Price)
	assert.Equal(t, 50010.0, book.BestAsk().Price)
	assert.True(t, c.SupportsStreaming())
}

func TestPollBook_APIErrorIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":["EQuery:Unknown asset pair"],"result":{}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	sym, _ := domain.NewSymbol("BTC", "USD")
	_, err := c.PollBook(context.Background(), sym)
	assert.Error(t, err)
}

func TestParseBookUpdate_SnapshotFrame(t *testing.T) {
	sym, _ := domain.NewSymbol("BTC", "USD")
	raw := []byte(`[336,{"as":[["50010.0","1.0","1700000000"]],"bs":[["50000.0","2.0","1700000000"]]},"book-10","XBT/USD"]`)

	book, ok, err := parseBookUpdate(raw, sym)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 50000.0, book.BestBid().Price)
}

func TestParseBookUpdate_NonBookFrameIsSkipped(t *testing.T) {
	sym, _ := domain.NewSymbol("BTC", "USD")
	raw := []byte(`{"event":"systemStatus","status":"online"}`)

	_, ok, err := parseBookUpdate(raw, sym)
	require.NoError(t, err)
	assert.False(t, ok)
}
