package scan

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunAdaptive_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32

	done := make(chan struct{})
	go func() {
		RunAdaptive(ctx, 5*time.Millisecond, func(now time.Time) {
			atomic.AddInt32(&calls, 1)
		})
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	<-done

	assert.Greater(t, atomic.LoadInt32(&calls), int32(0))
}
