// Package ingest runs one task per (venue, symbol) stream: an Ingestor
// pulling OrderBook snapshots off the wire (stream or poll transport) into a
// bounded queue, and a Coalescer draining that queue into the Book Store at
// a fixed cadence so scanner cost doesn't track raw update frequency.
package ingest

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sawpanic/arbiscan/internal/domain"
)

// queueCapacity is the Coalescer's inbound queue depth. Once full, the
// oldest snapshot is dropped in favor of the newest.
const queueCapacity = 2

// Queue is a drop-oldest bounded buffer of snapshots for one stream, shared
// between an Ingestor producer and a Coalescer consumer.
type Queue struct {
	ch             chan domain.OrderBook
	coalescedCount atomic.Int64
}

// NewQueue allocates a stream's bounded snapshot queue.
func NewQueue() *Queue {
	return &Queue{ch: make(chan domain.OrderBook, queueCapacity)}
}

// Push enqueues a snapshot, dropping the oldest queued entry (not the new
// one) if the queue is already full.
func (q *Queue) Push(ob domain.OrderBook) {
	for {
		select {
		case q.ch <- ob:
			return
		default:
			select {
			case <-q.ch:
				q.coalescedCount.Add(1)
			default:
			}
		}
	}
}

// CoalescedCount reports how many snapshots have been dropped for capacity
// since the queue was created.
func (q *Queue) CoalescedCount() int64 { return q.coalescedCount.Load() }

// Coalescer drains one stream's Queue into the Book Store. On each received
// snapshot it waits coalesceWindow, drains whatever else arrived during the
// wait keeping only the newest, and publishes that one snapshot.
type Coalescer struct {
	Queue          *Queue
	Window         time.Duration
	Publish        func(domain.OrderBook)
	OnPublish      func(venue string, symbol domain.Symbol, ts time.Time) // optional, for last_update_ts bookkeeping
}

// NewCoalescer builds a Coalescer reading from queue and publishing through
// publish. window is the spec's coalesce_window (default 75ms).
func NewCoalescer(queue *Queue, window time.Duration, publish func(domain.OrderBook)) *Coalescer {
	return &Coalescer{Queue: queue, Window: window, Publish: publish}
}

// Run blocks on the queue, then repeatedly waits Window and drains the
// latest snapshot, until ctx is canceled.
func (c *Coalescer) Run(ctx context.Context) {
	for {
		var latest domain.OrderBook
		select {
		case <-ctx.Done():
			return
		case latest = <-c.Queue.ch:
		}

		latest = c.drainFor(ctx, c.Window, latest)
		if ctx.Err() != nil {
			return
		}

		c.Publish(latest)
		if c.OnPublish != nil {
			c.OnPublish(latest.Venue, latest.Symbol, latest.Timestamp)
		}
	}
}

// drainFor waits for window, then consumes every snapshot already queued
// (non-blocking), returning the newest among seed and whatever was drained.
func (c *Coalescer) drainFor(ctx context.Context, window time.Duration, seed domain.OrderBook) domain.OrderBook {
	timer := time.NewTimer(window)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return seed
	case <-timer.C:
	}

	latest := seed
	for {
		select {
		case ob := <-c.Queue.ch:
			latest = ob
		default:
			return latest
		}
	}
}
