package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sawpanic/arbiscan/internal/persistence"
)

// triOpportunitiesRepo implements persistence.TriOpportunityRepo for
// PostgreSQL.
type triOpportunitiesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewTriOpportunitiesRepo creates a PostgreSQL-backed TriOpportunityRepo.
func NewTriOpportunitiesRepo(db *sqlx.DB, timeout time.Duration) persistence.TriOpportunityRepo {
	return &triOpportunitiesRepo{db: db, timeout: timeout}
}

func (r *triOpportunitiesRepo) InsertBatch(ctx context.Context, rows []persistence.TriOpportunityRecord) error {
	if len(rows) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tri_opportunities batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tri_opportunities
			(id, venue, base_asset, asset_2, asset_3, start_amount, end_amount, gain_bps, notional,
			 leg1_symbol, leg1_price, leg1_side, leg2_symbol, leg2_price, leg2_side,
			 leg3_symbol, leg3_price, leg3_side, maker_fee, taker_fee, detection_ts, insert_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22)
		ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare tri_opportunities insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.ID, row.Venue, row.Base, row.A2, row.A3, row.StartAmount, row.EndAmount, row.GainBPS, row.Notional,
			row.Leg1Symbol, row.Leg1Price, row.Leg1Side, row.Leg2Symbol, row.Leg2Price, row.Leg2Side,
			row.Leg3Symbol, row.Leg3Price, row.Leg3Side, row.Maker, row.Taker, row.DetectionTS, row.InsertTS)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok {
				return fmt.Errorf("insert tri opportunity (pq code %s): %w", pqErr.Code, err)
			}
			return fmt.Errorf("insert tri opportunity: %w", err)
		}
	}

	return tx.Commit()
}
