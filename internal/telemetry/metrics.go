// Package telemetry exposes the Prometheus registry and the periodic health
// collector that samples it from the venue supervisor and store.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry holds every metric arbiscan exposes on /metrics, registered
// against its own prometheus.Registry rather than the global default so
// multiple instances (e.g. one per test) never collide.
type Registry struct {
	reg *prometheus.Registry

	OpportunitiesDetected *prometheus.CounterVec
	ScanDuration          *prometheus.HistogramVec
	ScanOverruns          *prometheus.CounterVec

	QueueDepth       *prometheus.GaugeVec
	CoalescedTotal   *prometheus.GaugeVec
	ReconnectTotal   *prometheus.GaugeVec
	StreamConnected  *prometheus.GaugeVec

	AlertQueueDepth prometheus.Gauge
	AlertsSent      prometheus.Counter
	AlertsDropped   *prometheus.CounterVec

	BookStoreSize prometheus.Gauge
}

// NewRegistry builds and registers every metric against a dedicated
// prometheus.Registry (not the global default, so tests can build
// independent instances without collision).
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		OpportunitiesDetected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbiscan_opportunities_detected_total",
				Help: "Total opportunities detected by type",
			},
			[]string{"type"},
		),
		ScanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arbiscan_scan_duration_seconds",
				Help:    "Duration of a single scan pass",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"scanner"},
		),
		ScanOverruns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbiscan_scan_overruns_total",
				Help: "Scan passes that exceeded their configured interval",
			},
			[]string{"scanner"},
		),
		QueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arbiscan_ingest_queue_depth",
				Help: "Current coalescer queue depth per venue",
			},
			[]string{"venue"},
		),
		CoalescedTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arbiscan_coalesced_snapshots_total",
				Help: "Cumulative snapshots dropped by queue-capacity coalescing, per venue",
			},
			[]string{"venue"},
		),
		ReconnectTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arbiscan_stream_reconnects_total",
				Help: "Cumulative stream reconnect attempts per venue",
			},
			[]string{"venue"},
		),
		StreamConnected: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arbiscan_stream_connected",
				Help: "1 if the venue's stream transport is currently connected",
			},
			[]string{"venue"},
		),
		AlertQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "arbiscan_alert_queue_depth",
				Help: "Pending messages in the alert pipeline queue",
			},
		),
		AlertsSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "arbiscan_alerts_sent_total",
				Help: "Total alert messages sent",
			},
		),
		AlertsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbiscan_alerts_dropped_total",
				Help: "Alert messages suppressed, by reason",
			},
			[]string{"reason"},
		),
		BookStoreSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "arbiscan_book_store_size",
				Help: "Number of (venue, symbol) entries currently in the Book Store",
			},
		),
	}

	r.reg.MustRegister(
		r.OpportunitiesDetected, r.ScanDuration, r.ScanOverruns,
		r.QueueDepth, r.CoalescedTotal, r.ReconnectTotal, r.StreamConnected,
		r.AlertQueueDepth, r.AlertsSent, r.AlertsDropped, r.BookStoreSize,
	)

	return r
}

// Handler returns the promhttp handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// RecordScan observes a scan pass's duration and counts an overrun if it
// exceeded interval.
func (r *Registry) RecordScan(scanner string, duration, interval time.Duration) {
	r.ScanDuration.WithLabelValues(scanner).Observe(duration.Seconds())
	if duration > interval {
		r.ScanOverruns.WithLabelValues(scanner).Inc()
		log.Debug().Str("scanner", scanner).Dur("duration", duration).Dur("interval", interval).
			Msg("scan pass exceeded its interval")
	}
}
