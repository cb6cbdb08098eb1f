// Package metrics provides Prometheus metrics definitions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "subgarden"

var (
	// HTTPRequestDuration tracks request latency per route. The upper
	// buckets are sized for the manual check trigger, which dispatches
	// to external providers inline and may run for several seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5, 15, 30, 60},
		},
		[]string{"method", "route", "status_code"},
	)

	// DBPoolConnections reports pgx pool utilization by state
	// (in_use, idle, max).
	DBPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "pool_connections",
			Help:      "Database connections in the pgx pool by state",
		},
		[]string{"state"},
	)
)
