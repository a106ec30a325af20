package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics for the eligibility flow and its collaborators.
var (
	OutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whitelist_outcomes_total",
			Help: "Outcomes published by eligibility controllers, by status",
		},
		[]string{"status"},
	)

	StaleOutcomesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "whitelist_stale_outcomes_total",
			Help: "Outcomes dropped because a newer visitor action superseded them",
		},
	)

	LookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whitelist_lookup_duration_seconds",
			Help:    "Duration of record store lookups, by column",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"field"},
	)

	StoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whitelist_store_errors_total",
			Help: "Record store failures absorbed into not-found or failed updates",
		},
		[]string{"op"},
	)

	WalletUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whitelist_wallet_updates_total",
			Help: "Wallet address submissions, by result",
		},
		[]string{"result"},
	)

	OracleReadingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whitelist_oracle_readings_total",
			Help: "Oracle readings served, by source (generated, cached, fallback)",
		},
		[]string{"source"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "whitelist_active_sessions",
			Help: "Eligibility controllers currently held in memory",
		},
	)
)

func init() {
	prometheus.MustRegister(
		OutcomesTotal,
		StaleOutcomesTotal,
		LookupDuration,
		StoreErrorsTotal,
		WalletUpdatesTotal,
		OracleReadingsTotal,
		ActiveSessions,
	)
}

// ObserveLookup records how long a lookup on field took since start.
func ObserveLookup(field string, start time.Time) {
	LookupDuration.WithLabelValues(field).Observe(time.Since(start).Seconds())
}
