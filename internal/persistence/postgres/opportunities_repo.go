package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sawpanic/arbiscan/internal/persistence"
)

// opportunitiesRepo implements persistence.OpportunityRepo for PostgreSQL.
type opportunitiesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewOpportunitiesRepo creates a PostgreSQL-backed OpportunityRepo.
func NewOpportunitiesRepo(db *sqlx.DB, timeout time.Duration) persistence.OpportunityRepo {
	return &opportunitiesRepo{db: db, timeout: timeout}
}

// InsertBatch writes rows atomically inside one transaction. A duplicate
// primary key (re-insert of an already-persisted ID) is tolerated rather
// than failing the whole batch.
func (r *opportunitiesRepo) InsertBatch(ctx context.Context, rows []persistence.OpportunityRecord) error {
	if len(rows) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin opportunities batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO opportunities
			(id, symbol, buy_venue, sell_venue, buy_price_before, sell_price_before,
			 buy_price_after, sell_price_after, spread_bps, notional,
			 buy_levels, sell_levels, buy_maker_fee, buy_taker_fee,
			 sell_maker_fee, sell_taker_fee, mode, detection_ts, insert_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare opportunities insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.ID, row.Symbol, row.BuyVenue, row.SellVenue, row.BuyPriceBefore, row.SellPriceBefore,
			row.BuyPriceAfter, row.SellPriceAfter, row.SpreadBPS, row.Notional,
			row.BuyLevels, row.SellLevels, row.BuyMaker, row.BuyTaker,
			row.SellMaker, row.SellTaker, row.Mode, row.DetectionTS, row.InsertTS)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok {
				return fmt.Errorf("insert opportunity (pq code %s): %w", pqErr.Code, err)
			}
			return fmt.Errorf("insert opportunity: %w", err)
		}
	}

	return tx.Commit()
}
