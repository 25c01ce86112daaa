package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/arbiscan/internal/domain"
)

const (
	batchSize     = 10
	flushInterval = 5 * time.Second
)

// Writer buffers appended records and flushes them to the three repos in
// batches, either once batchSize is reached or every flushInterval,
// whichever comes first. It implements Sink.
type Writer struct {
	opps   OpportunityRepo
	tri    TriOpportunityRepo
	health VenueHealthRepo

	mu        sync.Mutex
	oppBuf    []OpportunityRecord
	triBuf    []TriOpportunityRecord
	healthBuf []VenueHealthRecord
}

// NewWriter constructs a Writer over the three repos. Call Run in its own
// goroutine to start the periodic flush loop.
func NewWriter(opps OpportunityRepo, tri TriOpportunityRepo, health VenueHealthRepo) *Writer {
	return &Writer{opps: opps, tri: tri, health: health}
}

// AppendOpportunity buffers a Cross opportunity, flushing immediately if the
// buffer has reached batchSize.
func (w *Writer) AppendOpportunity(o domain.CrossOpportunity) {
	w.mu.Lock()
	w.oppBuf = append(w.oppBuf, NewOpportunityRecord(o, time.Now()))
	full := len(w.oppBuf) >= batchSize
	w.mu.Unlock()

	if full {
		w.flushOpportunities(context.Background())
	}
}

// AppendTriOpportunity buffers a Triangular opportunity.
func (w *Writer) AppendTriOpportunity(o domain.TriOpportunity) {
	w.mu.Lock()
	w.triBuf = append(w.triBuf, NewTriOpportunityRecord(o, time.Now()))
	full := len(w.triBuf) >= batchSize
	w.mu.Unlock()

	if full {
		w.flushTri(context.Background())
	}
}

// AppendVenueHealth buffers a venue health snapshot.
func (w *Writer) AppendVenueHealth(h domain.VenueHealth, ts time.Time) {
	w.mu.Lock()
	w.healthBuf = append(w.healthBuf, NewVenueHealthRecord(h, ts, time.Now()))
	full := len(w.healthBuf) >= batchSize
	w.mu.Unlock()

	if full {
		w.flushHealth(context.Background())
	}
}

// Run periodically flushes whatever is buffered, regardless of size, until
// ctx is canceled. On cancellation it performs one final flush so nothing
// buffered is lost.
func (w *Writer) Run(ctx context.Context) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.FlushAll(context.Background())
			return
		case <-ticker.C:
			w.FlushAll(ctx)
		}
	}
}

// FlushAll flushes all three buffers unconditionally.
func (w *Writer) FlushAll(ctx context.Context) {
	w.flushOpportunities(ctx)
	w.flushTri(ctx)
	w.flushHealth(ctx)
}

func (w *Writer) flushOpportunities(ctx context.Context) {
	w.mu.Lock()
	batch := w.oppBuf
	w.oppBuf = nil
	w.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	if err := w.opps.InsertBatch(ctx, batch); err != nil {
		log.Warn().Err(err).Int("rows", len(batch)).Msg("flush opportunities batch failed")
	}
}

func (w *Writer) flushTri(ctx context.Context) {
	w.mu.Lock()
	batch := w.triBuf
	w.triBuf = nil
	w.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	if err := w.tri.InsertBatch(ctx, batch); err != nil {
		log.Warn().Err(err).Int("rows", len(batch)).Msg("flush tri opportunities batch failed")
	}
}

func (w *Writer) flushHealth(ctx context.Context) {
	w.mu.Lock()
	batch := w.healthBuf
	w.healthBuf = nil
	w.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	if err := w.health.InsertBatch(ctx, batch); err != nil {
		log.Warn().Err(err).Int("rows", len(batch)).Msg("flush venue health batch failed")
	}
}
