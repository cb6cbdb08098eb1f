package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// RecordDBPoolMetrics snapshots pool utilization into the
// DBPoolConnections gauge, one sample per state.
func RecordDBPoolMetrics(pool *pgxpool.Pool) {
	stat := pool.Stat()

	for state, value := range map[string]float64{
		"in_use": float64(stat.AcquiredConns()),
		"idle":   float64(stat.IdleConns()),
		"max":    float64(stat.MaxConns()),
	} {
		DBPoolConnections.WithLabelValues(state).Set(value)
	}
}
