// Package alert implements the dedup + rate-limit pipeline that turns
// emitted opportunities into outbound notification sends.
package alert

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/sawpanic/arbiscan/internal/domain"
	"github.com/sawpanic/arbiscan/internal/notify"
)

// minSendInterval is the minimum spacing enforced between outbound sends.
const minSendInterval = 1 * time.Second

// Pipeline is a single-writer, unbounded (but depth-reported) queue in
// front of a rate-limited notification sink. Producer-side dedup runs
// inline with Submit*; the consumer goroutine is the only reader of the
// queue and the only caller of Sink.Send.
type Pipeline struct {
	Sink notify.Sink

	dedup   *dedupTable
	limiter *rate.Limiter

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []string
	closed  bool
}

// NewPipeline constructs a Pipeline. Call Run in its own goroutine to start
// the consumer.
func NewPipeline(sink notify.Sink) *Pipeline {
	p := &Pipeline{
		Sink:    sink,
		dedup:   newDedupTable(),
		limiter: rate.NewLimiter(rate.Every(minSendInterval), 1),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// SubmitCross dedups and enqueues a Cross opportunity's formatted message.
// Returns true if the message was enqueued, false if it was a duplicate.
func (p *Pipeline) SubmitCross(o domain.CrossOpportunity, now time.Time) bool {
	if p.dedup.CheckAndMark(o.DedupKey(), now) {
		return false
	}
	p.enqueue(formatCross(o))
	return true
}

// SubmitTriangular dedups and enqueues a Triangular opportunity's formatted
// message.
func (p *Pipeline) SubmitTriangular(o domain.TriOpportunity, now time.Time) bool {
	if p.dedup.CheckAndMark(o.DedupKey(), now) {
		return false
	}
	p.enqueue(formatTriangular(o))
	return true
}

func (p *Pipeline) enqueue(msg string) {
	p.mu.Lock()
	p.queue = append(p.queue, msg)
	p.mu.Unlock()
	p.cond.Signal()
}

// QueueDepth reports the number of messages waiting to be sent. No
// saturation threshold is applied to it.
func (p *Pipeline) QueueDepth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Run drains the queue and sends each message through Sink, rate-limited to
// minSendInterval between sends. It blocks until ctx is canceled or Close is
// called.
func (p *Pipeline) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		p.Close()
	}()

	for {
		msg, ok := p.dequeue()
		if !ok {
			return
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return
		}
		if err := p.Sink.Send(ctx, msg); err != nil {
			log.Warn().Err(err).Msg("alert send failed, dropping message")
		}
	}
}

func (p *Pipeline) dequeue() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return "", false
	}
	msg := p.queue[0]
	p.queue = p.queue[1:]
	return msg, true
}

// Close stops Run's consumer loop once the queue drains.
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
}
