package renewals

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "subgarden"

var (
	checkPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "renewals",
			Name:      "check_passes_total",
			Help:      "Total evaluation passes by outcome",
		},
		[]string{"status"},
	)

	rollovers = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "renewals",
			Name:      "rollovers_total",
			Help:      "Total passes that rolled at least one subscription forward",
		},
	)

	dueTargets = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "renewals",
			Name:      "due_targets_total",
			Help:      "Total subscriptions enqueued for notification",
		},
	)
)

func recordPass(status string) {
	checkPasses.WithLabelValues(status).Inc()
}

func recordRollovers() {
	rollovers.Inc()
}

func recordDueTargets(n int) {
	dueTargets.Add(float64(n))
}
