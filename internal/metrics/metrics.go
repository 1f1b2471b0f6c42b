// Package metrics exposes feed and reconciliation health to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors the poller and reconciler update.
type Metrics struct {
	FeedFetches     *prometheus.CounterVec
	FeedLastSuccess *prometheus.GaugeVec
	FeedRecords     *prometheus.GaugeVec
	PollSkipped     *prometheus.CounterVec
	Buildings       prometheus.Gauge
	Ambiguities     prometheus.Counter
	Generations     prometheus.Counter
	ActiveSessions  prometheus.Gauge
	SessionsReset   prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rawat_inap_feed_fetch_total",
			Help: "Feed fetch attempts by feed and result.",
		}, []string{"feed", "result"}),
		FeedLastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rawat_inap_feed_last_success_timestamp_seconds",
			Help: "Unix time of the last successful fetch per feed.",
		}, []string{"feed"}),
		FeedRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rawat_inap_feed_records",
			Help: "Records in the current snapshot per feed.",
		}, []string{"feed"}),
		PollSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rawat_inap_poll_skipped_total",
			Help: "Ticks skipped because the previous run was still in flight.",
		}, []string{"group"}),
		Buildings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rawat_inap_buildings",
			Help: "Buildings in the current generation.",
		}),
		Ambiguities: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rawat_inap_availability_ambiguities_total",
			Help: "Distinct new cases of a catalog class matching more than one availability record.",
		}),
		Generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rawat_inap_generations_total",
			Help: "Reconciled generations published.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rawat_inap_sessions_active",
			Help: "Selection sessions currently held.",
		}),
		SessionsReset: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rawat_inap_sessions_reset_total",
			Help: "Sessions reset because their selection vanished after a refresh.",
		}),
	}

	reg.MustRegister(
		m.FeedFetches,
		m.FeedLastSuccess,
		m.FeedRecords,
		m.PollSkipped,
		m.Buildings,
		m.Ambiguities,
		m.Generations,
		m.ActiveSessions,
		m.SessionsReset,
	)
	return m
}

// NewUnregistered returns collectors bound to a private registry, for tests
// and for components built without a metrics endpoint.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
