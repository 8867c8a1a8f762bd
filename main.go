package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/ownership"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
	"github.com/blueharbor/maritime-risk-engine/internal/infrastructure/cache"
	"github.com/blueharbor/maritime-risk-engine/internal/infrastructure/config"
	"github.com/blueharbor/maritime-risk-engine/internal/infrastructure/database"
	"github.com/blueharbor/maritime-risk-engine/internal/infrastructure/instrumentation"
	"github.com/blueharbor/maritime-risk-engine/internal/infrastructure/repository"
	"github.com/blueharbor/maritime-risk-engine/internal/infrastructure/telemetry"
	"github.com/blueharbor/maritime-risk-engine/internal/ingest"
	"github.com/blueharbor/maritime-risk-engine/internal/metrics"
	"github.com/blueharbor/maritime-risk-engine/internal/service/identitygraph"
	"github.com/blueharbor/maritime-risk-engine/internal/service/ownercluster"
	"github.com/blueharbor/maritime-risk-engine/internal/service/riskscoring"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		slog.Error("failed to setup logger", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logger)

	if err := run(ctx, cfg); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting maritime risk engine",
		"version", cfg.Version,
		"environment", cfg.Environment,
		"port", cfg.Server.Port)

	telConfig := &telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SamplingRate:   cfg.Telemetry.SampleRate,
		ExportTimeout:  cfg.Telemetry.ExportTimeout,
		BatchTimeout:   cfg.Telemetry.BatchTimeout,
	}

	provider, err := telemetry.InitializeOpenTelemetry(ctx, telConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create zap logger: %w", err)
	}
	defer zapLogger.Sync()

	pool, err := database.NewConnectionPool(&cfg.Database, zapLogger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	registry, err := metrics.NewRegistry(cfg.Telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to create metrics registry: %w", err)
	}

	chainRepo := repository.NewChainRepository(pool.Pool())
	ownerRepo := repository.NewOwnerRepository(pool.Pool())
	eventRepo := repository.NewEventRepository(pool.Pool())
	vesselRepo := repository.NewVesselRepository(pool.Pool())

	var scoreCache riskscoring.ScoreCache
	if cfg.Scoring.CacheEnabled {
		client, err := cache.NewRedisClient(&cfg.Redis, zapLogger)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()
		scoreCache = cache.NewScoreCache(client, cfg.Scoring.CacheTTL, zapLogger)
	}

	tracer := telemetry.NewOpenTelemetryTracer(cfg.Telemetry.ServiceName)
	graph := instrumentation.NewIdentityGraphTracedService(
		identitygraph.NewService(chainRepo), tracer, registry)
	owners := instrumentation.NewOwnerClusterTracedService(
		ownercluster.NewService(ownerRepo, ownership.MatchPolicy{
			JoinThreshold: cfg.Clustering.JoinThreshold,
			CountryBonus:  cfg.Clustering.CountryBonus,
		}), tracer, registry)
	scoring := instrumentation.NewRiskScoringTracedService(
		riskscoring.NewService(eventRepo, graph, owners, scoreCache), tracer, registry)

	// Full recompute first so every downstream read sees fresh chains.
	rebuildStart := time.Now()
	summary, err := graph.RebuildAll(ctx)
	if err != nil {
		return fmt.Errorf("identity graph rebuild failed: %w", err)
	}
	observeRebuild(time.Since(rebuildStart), summary.ChainsBuilt, summary.ChainsUnchanged, summary.ChainsSuperseded)
	slog.Info("identity graph rebuilt",
		"chains_built", summary.ChainsBuilt,
		"chains_unchanged", summary.ChainsUnchanged,
		"chains_superseded", summary.ChainsSuperseded,
		"duration", time.Since(rebuildStart))

	if cfg.Scoring.SweepWindow > 0 {
		if err := sweepScores(ctx, cfg.Scoring.SweepWindow, eventRepo, scoring); err != nil {
			return fmt.Errorf("score sweep failed: %w", err)
		}
	}

	go collectPoolStats(ctx, pool.Pool(), registry, 15*time.Second)

	errCh := make(chan error, 2)

	srv := opsServer(cfg.Server, pool)
	go func() {
		slog.Info("ops server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("ops server failed: %w", err)
		}
	}()

	if cfg.Ingest.Enabled {
		source, err := ingest.NewFileSource(cfg.Ingest.Source, slog.Default())
		if err != nil {
			return fmt.Errorf("failed to open ingest source: %w", err)
		}
		poller := ingest.NewPoller(ingest.PollerConfig{
			Interval:  cfg.Ingest.Interval,
			BatchSize: cfg.Ingest.BatchSize,
			RateLimit: cfg.Ingest.RateLimit,
			Burst:     cfg.Ingest.Burst,
		}, source, graph, owners, vesselRepo, eventRepo, slog.Default())
		go func() {
			if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("ingest poller failed: %w", err)
			}
		}()
		slog.Info("ingest poller started",
			"source", cfg.Ingest.Source,
			"interval", cfg.Ingest.Interval)
	}

	select {
	case <-ctx.Done():
		slog.Info("shutting down gracefully")
	case err := <-errCh:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ops server shutdown failed: %w", err)
	}

	return nil
}

// sweepScores recomputes composite scores for every vessel with recent event
// activity, warming the cache while the chains are fresh.
func sweepScores(ctx context.Context, window time.Duration, repo *repository.EventRepository, scoring riskscoring.Service) error {
	now := time.Now().UTC()
	sweepWindow, err := values.NewTimeWindow(now.Add(-window), now)
	if err != nil {
		return err
	}

	vessels, err := repo.ListActiveVessels(ctx, sweepWindow)
	if err != nil {
		return err
	}

	start := time.Now()
	failed := 0
	for _, id := range vessels {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := scoring.AggregateVessel(ctx, id, sweepWindow); err != nil {
			failed++
			slog.Warn("score sweep skipped vessel", "vessel_id", id, "error", err)
		}
	}

	observeSweep(time.Since(start), len(vessels)-failed, failed)
	slog.Info("score sweep complete",
		"vessels", len(vessels),
		"failed", failed,
		"window", window)
	return nil
}

func opsServer(cfg config.ServerConfig, pool *database.ConnectionPool) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.HealthCheck(checkCtx); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}
