package instrumentation

import (
	"context"
	"time"

	"github.com/google/uuid"

	domainerrors "github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	domainevidence "github.com/blueharbor/maritime-risk-engine/internal/domain/evidence"
	"github.com/blueharbor/maritime-risk-engine/internal/infrastructure/telemetry"
	"github.com/blueharbor/maritime-risk-engine/internal/metrics"
	"github.com/blueharbor/maritime-risk-engine/internal/service/evidence"
)

// EvidenceTracedService wraps the evidence exporter with OpenTelemetry
// instrumentation
type EvidenceTracedService struct {
	service evidence.Service
	tracer  telemetry.TracerInterface
	metrics *metrics.Registry
}

// NewEvidenceTracedService creates a new instrumented exporter
func NewEvidenceTracedService(service evidence.Service, tracer telemetry.TracerInterface, metrics *metrics.Registry) *EvidenceTracedService {
	return &EvidenceTracedService{
		service: service,
		tracer:  tracer,
		metrics: metrics,
	}
}

// Export instruments the card export operation
func (s *EvidenceTracedService) Export(ctx context.Context, input evidence.ExportInput) (*domainevidence.Card, error) {
	ctx, span := s.tracer.StartSpanWithAttributes(ctx, "evidence.Export", map[string]interface{}{
		"event.id":  input.EventID.String(),
		"format":    input.Format.String(),
		"component": "evidence",
	})
	defer span.End()

	startTime := time.Now()

	card, err := s.service.Export(ctx, input)

	durationMS := float64(time.Since(startTime).Microseconds()) / 1000

	if err != nil {
		s.tracer.RecordError(span, err, "Card export failed")
		s.metrics.RecordCardExport(ctx, durationMS, input.Format.String(), false)
		return nil, err
	}

	s.metrics.RecordCardExport(ctx, durationMS, card.Format.String(), true)

	s.tracer.SetAttributes(span, map[string]interface{}{
		"card.id":      card.ID.String(),
		"card.version": card.Version,
		"card.path":    card.StoragePath,
	})

	return card, nil
}

// GetCard instruments card retrieval
func (s *EvidenceTracedService) GetCard(ctx context.Context, cardID uuid.UUID) (*domainevidence.Card, error) {
	ctx, span := s.tracer.StartSpanWithAttributes(ctx, "evidence.GetCard", map[string]interface{}{
		"card.id": cardID.String(),
	})
	defer span.End()

	card, err := s.service.GetCard(ctx, cardID)
	if err != nil {
		if !domainerrors.IsNotFound(err) {
			s.tracer.RecordError(span, err, "Card lookup failed")
		}
		return nil, err
	}
	return card, nil
}

// ListVersions instruments version listing
func (s *EvidenceTracedService) ListVersions(ctx context.Context, eventID uuid.UUID) ([]*domainevidence.Card, error) {
	ctx, span := s.tracer.StartSpanWithAttributes(ctx, "evidence.ListVersions", map[string]interface{}{
		"event.id": eventID.String(),
	})
	defer span.End()

	cards, err := s.service.ListVersions(ctx, eventID)
	if err != nil {
		s.tracer.RecordError(span, err, "Version listing failed")
		return nil, err
	}

	s.tracer.SetAttributes(span, map[string]interface{}{
		"versions.count": len(cards),
	})

	return cards, nil
}
