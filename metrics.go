package main

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blueharbor/maritime-risk-engine/internal/metrics"
)

// Pull-side metrics for the batch runner. Domain instruments flow through the
// OTel registry; these cover the process itself.

var (
	rebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mre",
			Subsystem: "runner",
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of the startup identity graph rebuild",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
	)

	rebuildChains = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mre",
			Subsystem: "runner",
			Name:      "rebuild_chains",
			Help:      "Chain counts from the last rebuild",
		},
		[]string{"state"},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mre",
			Subsystem: "runner",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of the post-rebuild score sweep",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	sweepVessels = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mre",
			Subsystem: "runner",
			Name:      "sweep_vessels",
			Help:      "Vessels touched by the last score sweep",
		},
		[]string{"result"},
	)

	dbConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pgxpool",
			Name:      "connections",
			Help:      "Current number of connections in the pool",
		},
		[]string{"state"},
	)

	dbMaxConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pgxpool",
			Name:      "max_conns",
			Help:      "Maximum number of connections in the pool",
		},
	)
)

// MetricsHandler returns the Prometheus metrics handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// observeRebuild records the startup rebuild outcome
func observeRebuild(duration time.Duration, built, unchanged, superseded int) {
	rebuildDuration.Observe(duration.Seconds())
	rebuildChains.WithLabelValues("built").Set(float64(built))
	rebuildChains.WithLabelValues("unchanged").Set(float64(unchanged))
	rebuildChains.WithLabelValues("superseded").Set(float64(superseded))
}

// observeSweep records the score sweep outcome
func observeSweep(duration time.Duration, scored, failed int) {
	sweepDuration.Observe(duration.Seconds())
	sweepVessels.WithLabelValues("scored").Set(float64(scored))
	sweepVessels.WithLabelValues("failed").Set(float64(failed))
}

// collectPoolStats refreshes the connection pool gauges until the context
// ends
func collectPoolStats(ctx context.Context, pool *pgxpool.Pool, registry *metrics.Registry, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		stat := pool.Stat()
		dbConnections.WithLabelValues("total").Set(float64(stat.TotalConns()))
		dbConnections.WithLabelValues("idle").Set(float64(stat.IdleConns()))
		dbConnections.WithLabelValues("acquired").Set(float64(stat.AcquiredConns()))
		dbConnections.WithLabelValues("constructing").Set(float64(stat.ConstructingConns()))
		dbMaxConnections.Set(float64(stat.MaxConns()))
		registry.SetDBPoolSize(int64(stat.TotalConns()))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
