package coinbase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/arbiscan/internal/domain"
)

func TestPollBook_ParsesLevel2Response(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sequence":42,"bids":[["30000.1","0.5"]],"asks":[["30001.2","0.4"]]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	sym, _ := domain.NewSymbol("BTC", "USD")
	book, err := c.PollBook(context.Background(), sym)
	require.NoError(t, err)
	assert.Equal(t, 30000.1, book.BestBid().Price)
	assert.Equal(t, int64(42), book.Nonce)
}
