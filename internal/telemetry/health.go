package telemetry

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/arbiscan/internal/domain"
)

// HealthSource supplies the current per-venue health snapshot, normally
// internal/ingest.Supervisor.Health.
type HealthSource func() map[string]domain.VenueHealth

// StoreSize supplies the current Book Store entry count.
type StoreSize func() int

// HealthRecorder persists a venue health snapshot, normally
// internal/persistence.Sink.AppendVenueHealth.
type HealthRecorder func(h domain.VenueHealth, ts time.Time)

// Collector periodically samples venue health and store size into the
// Registry, and optionally persists each venue snapshot.
type Collector struct {
	Registry *Registry
	Health   HealthSource
	Store    StoreSize
	Record   HealthRecorder
	Interval time.Duration
}

// NewCollector builds a Collector. record may be nil to skip persistence.
func NewCollector(reg *Registry, health HealthSource, store StoreSize, record HealthRecorder, interval time.Duration) *Collector {
	return &Collector{Registry: reg, Health: health, Store: store, Record: record, Interval: interval}
}

// Run samples on Interval until ctx is canceled.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.collectOnce()
		}
	}
}

func (c *Collector) collectOnce() {
	now := time.Now()

	for venue, h := range c.Health() {
		c.Registry.QueueDepth.WithLabelValues(venue).Set(float64(h.QueueDepth))
		c.Registry.CoalescedTotal.WithLabelValues(venue).Set(float64(h.CoalescedCount))
		c.Registry.ReconnectTotal.WithLabelValues(venue).Set(float64(h.ReconnectCount))
		connected := 0.0
		if h.StreamConnected {
			connected = 1.0
		}
		c.Registry.StreamConnected.WithLabelValues(venue).Set(connected)

		if c.Record != nil {
			c.Record(h, now)
		}
	}

	if c.Store != nil {
		c.Registry.BookStoreSize.Set(float64(c.Store()))
	}

	log.Debug().Time("ts", now).Msg("health snapshot collected")
}
