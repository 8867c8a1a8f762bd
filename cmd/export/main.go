package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/ownership"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
	"github.com/blueharbor/maritime-risk-engine/internal/infrastructure/archive"
	"github.com/blueharbor/maritime-risk-engine/internal/infrastructure/config"
	"github.com/blueharbor/maritime-risk-engine/internal/infrastructure/database"
	"github.com/blueharbor/maritime-risk-engine/internal/infrastructure/instrumentation"
	"github.com/blueharbor/maritime-risk-engine/internal/infrastructure/repository"
	"github.com/blueharbor/maritime-risk-engine/internal/infrastructure/telemetry"
	"github.com/blueharbor/maritime-risk-engine/internal/metrics"
	"github.com/blueharbor/maritime-risk-engine/internal/service/evidence"
	"github.com/blueharbor/maritime-risk-engine/internal/service/identitygraph"
	"github.com/blueharbor/maritime-risk-engine/internal/service/ownercluster"
	"github.com/blueharbor/maritime-risk-engine/internal/service/riskscoring"
)

var (
	eventID   = flag.String("event", "", "Source event ID to export (required)")
	format    = flag.String("format", "json", "Export format: json or csv")
	outputDir = flag.String("out", "", "Override for the export output directory")
)

func main() {
	flag.Parse()

	if *eventID == "" {
		fmt.Fprintln(os.Stderr, "usage: export -event <event-id> [-format json|csv] [-out dir]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		slog.Error("failed to set up logger", "error", err)
		os.Exit(1)
	}

	id, err := uuid.Parse(*eventID)
	if err != nil {
		logger.Error("invalid event id", "event", *eventID, "error", err)
		os.Exit(2)
	}

	exportFormat, err := values.NewExportFormat(*format)
	if err != nil {
		logger.Error("invalid export format", "format", *format, "error", err)
		os.Exit(2)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		logger.Error("failed to set up infrastructure logger", "error", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	ctx := context.Background()

	pool, err := database.NewConnectionPool(&cfg.Database, zapLogger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	dir := cfg.Export.OutputDir
	if *outputDir != "" {
		dir = *outputDir
	}
	store, err := archive.NewFilesystemStore(dir, zapLogger)
	if err != nil {
		logger.Error("failed to open card store", "dir", dir, "error", err)
		os.Exit(1)
	}

	registry, err := metrics.NewRegistry("maritime-risk-engine")
	if err != nil {
		logger.Error("failed to build metrics registry", "error", err)
		os.Exit(1)
	}

	chainRepo := repository.NewChainRepository(pool.Pool())
	ownerRepo := repository.NewOwnerRepository(pool.Pool())
	eventRepo := repository.NewEventRepository(pool.Pool())
	cardRepo := repository.NewCardRepository(pool.Pool())

	graph := identitygraph.NewService(chainRepo)
	owners := ownercluster.NewService(ownerRepo, ownership.MatchPolicy{
		JoinThreshold: cfg.Clustering.JoinThreshold,
		CountryBonus:  cfg.Clustering.CountryBonus,
	})
	// One-shot run, nothing to warm: score straight from storage.
	scoring := riskscoring.NewService(eventRepo, graph, owners, nil)

	tracer := telemetry.NewOpenTelemetryTracer("evidence")
	exporter := instrumentation.NewEvidenceTracedService(
		evidence.NewService(cardRepo, eventRepo, scoring, graph, owners, store),
		tracer, registry)

	card, err := exporter.Export(ctx, evidence.ExportInput{EventID: id, Format: exportFormat})
	if err != nil {
		logger.Error("export failed", "event", id.String(), "error", err)
		os.Exit(1)
	}

	fmt.Printf("card %s version %d written to %s\n", card.ID, card.Version, card.StoragePath)
}
