package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds all domain-specific metrics for the application
type Registry struct {
	meter metric.Meter

	// Resolution Domain Metrics
	ChainResolveDuration metric.Float64Histogram
	CurrentChains        metric.Int64ObservableGauge
	CandidateCounter     metric.Int64Counter
	RebuildCounter       metric.Int64Counter

	// Clustering Domain Metrics
	ClusterUpdateDuration metric.Float64Histogram
	CurrentClusters       metric.Int64ObservableGauge
	SanctionedClusters    metric.Int64ObservableGauge
	OwnerUpsertCounter    metric.Int64Counter

	// Scoring Domain Metrics
	AggregateDuration   metric.Float64Histogram
	ScoreCounter        metric.Int64Counter
	ScoreFailureCounter metric.Int64Counter
	CacheHitCounter     metric.Int64Counter
	CacheMissCounter    metric.Int64Counter
	CacheHitRate        metric.Float64ObservableGauge

	// Evidence Domain Metrics
	ExportDuration       metric.Float64Histogram
	ExportCounter        metric.Int64Counter
	ExportFailureCounter metric.Int64Counter

	// System Metrics
	DatabaseConnectionPool metric.Int64ObservableGauge

	// State for observable metrics
	mu                 sync.RWMutex
	currentChains      int64
	currentClusters    int64
	sanctionedClusters int64
	dbPoolSize         int64
	cacheHits          int64
	cacheMisses        int64
}

// NewRegistry creates a new metrics registry with all domain metrics
func NewRegistry(meterName string) (*Registry, error) {
	meter := otel.Meter(meterName)
	r := &Registry{meter: meter}

	if err := r.initResolutionMetrics(); err != nil {
		return nil, err
	}

	if err := r.initClusteringMetrics(); err != nil {
		return nil, err
	}

	if err := r.initScoringMetrics(); err != nil {
		return nil, err
	}

	if err := r.initEvidenceMetrics(); err != nil {
		return nil, err
	}

	if err := r.initSystemMetrics(); err != nil {
		return nil, err
	}

	return r, nil
}

// initResolutionMetrics initializes identity resolution metrics
func (r *Registry) initResolutionMetrics() error {
	var err error

	// Chain resolution duration histogram
	r.ChainResolveDuration, err = r.meter.Float64Histogram(
		"mre.resolution.resolve_duration",
		metric.WithDescription("Duration of merge-chain recomputes in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000),
	)
	if err != nil {
		return err
	}

	// Current chain count gauge
	r.CurrentChains, err = r.meter.Int64ObservableGauge(
		"mre.resolution.current_chains",
		metric.WithDescription("Number of current merge chains"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.Observe(r.currentChains)
			return nil
		}),
	)
	if err != nil {
		return err
	}

	// Candidate intake counter
	r.CandidateCounter, err = r.meter.Int64Counter(
		"mre.resolution.candidate_total",
		metric.WithDescription("Total number of merge candidates resolved"),
	)
	if err != nil {
		return err
	}

	// Full rebuild counter
	r.RebuildCounter, err = r.meter.Int64Counter(
		"mre.resolution.rebuild_total",
		metric.WithDescription("Total number of full graph rebuilds"),
	)

	return err
}

// initClusteringMetrics initializes owner clustering metrics
func (r *Registry) initClusteringMetrics() error {
	var err error

	// Cluster update duration histogram
	r.ClusterUpdateDuration, err = r.meter.Float64Histogram(
		"mre.clustering.update_duration",
		metric.WithDescription("Duration of owner cluster updates in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 10, 50, 100, 500),
	)
	if err != nil {
		return err
	}

	// Current cluster count gauge
	r.CurrentClusters, err = r.meter.Int64ObservableGauge(
		"mre.clustering.current_clusters",
		metric.WithDescription("Number of owner clusters"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.Observe(r.currentClusters)
			return nil
		}),
	)
	if err != nil {
		return err
	}

	// Sanctioned cluster count gauge
	r.SanctionedClusters, err = r.meter.Int64ObservableGauge(
		"mre.clustering.sanctioned_clusters",
		metric.WithDescription("Number of clusters carrying sanctions exposure"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.Observe(r.sanctionedClusters)
			return nil
		}),
	)
	if err != nil {
		return err
	}

	// Owner upsert counter
	r.OwnerUpsertCounter, err = r.meter.Int64Counter(
		"mre.clustering.owner_upsert_total",
		metric.WithDescription("Total number of owner records clustered"),
	)

	return err
}

// initScoringMetrics initializes risk scoring metrics
func (r *Registry) initScoringMetrics() error {
	var err error

	// Aggregation duration histogram
	r.AggregateDuration, err = r.meter.Float64Histogram(
		"mre.scoring.aggregate_duration",
		metric.WithDescription("Duration of composite score aggregation in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 10, 50, 100, 500),
	)
	if err != nil {
		return err
	}

	// Score counters
	r.ScoreCounter, err = r.meter.Int64Counter(
		"mre.scoring.score_total",
		metric.WithDescription("Total number of composite scores computed"),
	)
	if err != nil {
		return err
	}

	r.ScoreFailureCounter, err = r.meter.Int64Counter(
		"mre.scoring.failure_total",
		metric.WithDescription("Total number of failed aggregations"),
	)
	if err != nil {
		return err
	}

	// Cache counters
	r.CacheHitCounter, err = r.meter.Int64Counter(
		"mre.scoring.cache_hit_total",
		metric.WithDescription("Total score cache hits"),
	)
	if err != nil {
		return err
	}

	r.CacheMissCounter, err = r.meter.Int64Counter(
		"mre.scoring.cache_miss_total",
		metric.WithDescription("Total score cache misses"),
	)
	if err != nil {
		return err
	}

	// Cache hit rate gauge
	r.CacheHitRate, err = r.meter.Float64ObservableGauge(
		"mre.scoring.cache_hit_rate",
		metric.WithDescription("Score cache hit rate since start"),
		metric.WithFloat64Callback(func(ctx context.Context, o metric.Float64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()

			total := r.cacheHits + r.cacheMisses
			if total > 0 {
				o.Observe(float64(r.cacheHits) / float64(total))
			}
			return nil
		}),
	)

	return err
}

// initEvidenceMetrics initializes evidence export metrics
func (r *Registry) initEvidenceMetrics() error {
	var err error

	// Export duration histogram
	r.ExportDuration, err = r.meter.Float64Histogram(
		"mre.evidence.export_duration",
		metric.WithDescription("Duration of evidence card exports in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 50, 100, 500, 1000),
	)
	if err != nil {
		return err
	}

	// Export counters
	r.ExportCounter, err = r.meter.Int64Counter(
		"mre.evidence.export_total",
		metric.WithDescription("Total number of evidence cards exported"),
	)
	if err != nil {
		return err
	}

	r.ExportFailureCounter, err = r.meter.Int64Counter(
		"mre.evidence.export_failure_total",
		metric.WithDescription("Total number of failed card exports"),
	)

	return err
}

// initSystemMetrics initializes system-level metrics
func (r *Registry) initSystemMetrics() error {
	var err error

	// Database connection pool
	r.DatabaseConnectionPool, err = r.meter.Int64ObservableGauge(
		"mre.system.db_connection_pool_size",
		metric.WithDescription("Current database connection pool size"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.Observe(r.dbPoolSize)
			return nil
		}),
	)

	return err
}

// Helper methods for updating observable metric values

// SetCurrentChains sets the current merge chain count
func (r *Registry) SetCurrentChains(count int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentChains = count
}

// SetCurrentClusters sets the cluster count gauges
func (r *Registry) SetCurrentClusters(total, sanctioned int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentClusters = total
	r.sanctionedClusters = sanctioned
}

// SetDBPoolSize sets the database connection pool size
func (r *Registry) SetDBPoolSize(size int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dbPoolSize = size
}

// Helper methods for recording metrics with common attribute patterns

// RecordCandidate records one candidate resolution
func (r *Registry) RecordCandidate(ctx context.Context, durationMS float64, band string, unchanged bool) {
	attrs := []attribute.KeyValue{
		attribute.String("band", band),
		attribute.Bool("unchanged", unchanged),
	}

	r.ChainResolveDuration.Record(ctx, durationMS, metric.WithAttributes(attrs...))
	r.CandidateCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRebuild records a full graph rebuild
func (r *Registry) RecordRebuild(ctx context.Context, durationMS float64, chainsBuilt int) {
	r.ChainResolveDuration.Record(ctx, durationMS,
		metric.WithAttributes(attribute.Bool("rebuild", true)))
	r.RebuildCounter.Add(ctx, 1)
	r.SetCurrentChains(int64(chainsBuilt))
}

// RecordClusterUpdate records one owner clustering pass
func (r *Registry) RecordClusterUpdate(ctx context.Context, durationMS float64, joined bool) {
	attrs := []attribute.KeyValue{
		attribute.Bool("joined", joined),
	}

	r.ClusterUpdateDuration.Record(ctx, durationMS, metric.WithAttributes(attrs...))
	r.OwnerUpsertCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAggregation records one composite score computation
func (r *Registry) RecordAggregation(ctx context.Context, durationMS float64, tier string, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("tier", tier),
		attribute.Bool("success", success),
	}

	r.AggregateDuration.Record(ctx, durationMS, metric.WithAttributes(attrs...))

	if success {
		r.ScoreCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	} else {
		r.ScoreFailureCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordCacheLookup records a score cache hit or miss
func (r *Registry) RecordCacheLookup(ctx context.Context, hit bool) {
	if hit {
		r.CacheHitCounter.Add(ctx, 1)
	} else {
		r.CacheMissCounter.Add(ctx, 1)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.cacheHits++
	} else {
		r.cacheMisses++
	}
}

// RecordCardExport records one evidence card export
func (r *Registry) RecordCardExport(ctx context.Context, durationMS float64, format string, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("format", format),
		attribute.Bool("success", success),
	}

	r.ExportDuration.Record(ctx, durationMS, metric.WithAttributes(attrs...))

	if success {
		r.ExportCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	} else {
		r.ExportFailureCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
