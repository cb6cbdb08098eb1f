package notifications

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "subgarden"

var (
	notificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "sent_total",
			Help:      "Total channel delivery attempts by outcome",
		},
		[]string{"channel", "status"},
	)

	notificationSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "send_duration_seconds",
			Help:      "Time to deliver a notification to a channel",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"channel"},
	)
)

func recordSent(channel, status string) {
	notificationsSent.WithLabelValues(channel, status).Inc()
}

func recordSendDuration(channel string, d time.Duration) {
	notificationSendDuration.WithLabelValues(channel).Observe(d.Seconds())
}
