package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sawpanic/arbiscan/internal/persistence"
)

// Config holds the connection-pool settings for the Postgres backend.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
}

// DefaultConfig returns the pool defaults used when env vars are absent.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		QueryTimeout:    10 * time.Second,
	}
}

// Manager owns the pooled connection and the three repos backed by it.
type Manager struct {
	db   *sqlx.DB
	Opps persistence.OpportunityRepo
	Tri  persistence.TriOpportunityRepo
	Health persistence.VenueHealthRepo
}

// Connect opens the pool, pings it, and wires up the repos. Callers should
// Close the returned Manager on shutdown.
func Connect(ctx context.Context, cfg Config) (*Manager, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres: DSN is required")
	}

	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &Manager{
		db:     db,
		Opps:   NewOpportunitiesRepo(db, cfg.QueryTimeout),
		Tri:    NewTriOpportunitiesRepo(db, cfg.QueryTimeout),
		Health: NewVenueHealthRepo(db, cfg.QueryTimeout),
	}, nil
}

// Close releases the pool.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}
