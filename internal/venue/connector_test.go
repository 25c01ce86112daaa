package venue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/arbiscan/internal/domain"
)

type stubConnector struct{}

func (stubConnector) Name() string                     { return "stub" }
func (stubConnector) Connect(ctx context.Context) error { return nil }
func (stubConnector) Disconnect() error                 { return nil }
func (stubConnector) SupportsStreaming() bool           { return false }
func (stubConnector) Fees() domain.FeeRate              { return domain.FeeRate{} }
func (stubConnector) StreamBooks(ctx context.Context, symbol domain.Symbol) (<-chan domain.OrderBook, error) {
	return nil, ErrStreamingUnsupported
}
func (stubConnector) PollBook(ctx context.Context, symbol domain.Symbol) (domain.OrderBook, error) {
	return domain.OrderBook{}, nil
}

func TestRegisterAndNew(t *testing.T) {
	Register("stub-test", func() Connector { return stubConnector{} })

	c, err := New("stub-test")
	require.NoError(t, err)
	assert.Equal(t, "stub", c.Name())
}

func TestNew_UnknownVenue(t *testing.T) {
	_, err := New("does-not-exist")
	assert.Error(t, err)
}
