// Package notify defines the outbound notification contract. The transport
// itself (credentials, chat/channel identifiers) is an external collaborator
// configured by the process; this package only states the shape the alert
// pipeline depends on, plus a couple of simple sinks useful in tests and
// for a minimal deployment.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Sink sends a single text message and reports failure. Implementations
// must not block longer than a short, bounded timeout.
type Sink interface {
	Send(ctx context.Context, text string) error
}

// LogSink writes messages to the structured logger instead of an external
// transport. Useful when no notification credentials are configured.
type LogSink struct{}

func (LogSink) Send(ctx context.Context, text string) error {
	log.Info().Str("channel", "log").Msg(text)
	return nil
}

// NoopSink discards every message. Used in tests that only care about
// dedup/rate-limit behavior, not delivery.
type NoopSink struct{}

func (NoopSink) Send(ctx context.Context, text string) error { return nil }

// FailingSink always fails; used to exercise the pipeline's best-effort
// failure handling.
type FailingSink struct{ Err error }

func (f FailingSink) Send(ctx context.Context, text string) error {
	if f.Err != nil {
		return f.Err
	}
	return fmt.Errorf("notify: sink not configured")
}
