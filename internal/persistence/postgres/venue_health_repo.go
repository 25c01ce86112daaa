package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sawpanic/arbiscan/internal/persistence"
)

// venueHealthRepo implements persistence.VenueHealthRepo for PostgreSQL.
type venueHealthRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewVenueHealthRepo creates a PostgreSQL-backed VenueHealthRepo.
func NewVenueHealthRepo(db *sqlx.DB, timeout time.Duration) persistence.VenueHealthRepo {
	return &venueHealthRepo{db: db, timeout: timeout}
}

func (r *venueHealthRepo) InsertBatch(ctx context.Context, rows []persistence.VenueHealthRecord) error {
	if len(rows) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin venue_health batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO venue_health
			(id, venue, stream_connected, rest_ok, last_stream_ts, last_rest_ts,
			 reconnect_count, error_rate, queue_depth, coalesced_count, scheduler_lag_ms,
			 subscribed_symbols, ts, insert_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare venue_health insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.ID, row.Venue, row.StreamConnected, row.RestOK, row.LastStreamTS, row.LastRestTS,
			row.ReconnectCount, row.ErrorRate, row.QueueDepth, row.CoalescedCount, row.SchedulerLagMS,
			pq.Array(row.SubscribedSymbols), row.TS, row.InsertTS)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok {
				return fmt.Errorf("insert venue health (pq code %s): %w", pqErr.Code, err)
			}
			return fmt.Errorf("insert venue health: %w", err)
		}
	}

	return tx.Commit()
}
