package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSink(t *testing.T, handler http.HandlerFunc) (*TelegramSink, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	sink := NewTelegramSink("test-token", "chat-1")
	sink.Client = srv.Client()
	sink.BaseURL = srv.URL
	return sink, srv.Close
}

func TestTelegramSink_SendSuccess(t *testing.T) {
	var received sendMessageRequest
	sink, closeSrv := newTestSink(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sendMessageResponse{OK: true})
	})
	defer closeSrv()

	err := sink.Send(context.Background(), "arbitrage opportunity detected")
	require.NoError(t, err)
	assert.Equal(t, "chat-1", received.ChatID)
	assert.Equal(t, "arbitrage opportunity detected", received.Text)
}

func TestTelegramSink_ErrorsOnAPIRejection(t *testing.T) {
	sink, closeSrv := newTestSink(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sendMessageResponse{OK: false, Description: "chat not found"})
	})
	defer closeSrv()

	err := sink.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegramSink_ErrorsOnTransportFailure(t *testing.T) {
	sink, closeSrv := newTestSink(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	closeSrv()

	err := sink.Send(context.Background(), "hello")
	require.Error(t, err)
}
