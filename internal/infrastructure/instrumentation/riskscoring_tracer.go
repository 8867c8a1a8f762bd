package instrumentation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	domainerrors "github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/risk"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
	"github.com/blueharbor/maritime-risk-engine/internal/infrastructure/telemetry"
	"github.com/blueharbor/maritime-risk-engine/internal/metrics"
	"github.com/blueharbor/maritime-risk-engine/internal/service/riskscoring"
)

// RiskScoringTracedService wraps the risk scoring service with OpenTelemetry
// instrumentation
type RiskScoringTracedService struct {
	service riskscoring.Service
	tracer  telemetry.TracerInterface
	metrics *metrics.Registry
}

// NewRiskScoringTracedService creates a new instrumented scoring service
func NewRiskScoringTracedService(service riskscoring.Service, tracer telemetry.TracerInterface, metrics *metrics.Registry) *RiskScoringTracedService {
	return &RiskScoringTracedService{
		service: service,
		tracer:  tracer,
		metrics: metrics,
	}
}

// AggregateVessel instruments the vessel aggregation operation
func (s *RiskScoringTracedService) AggregateVessel(ctx context.Context, vesselID vessel.VesselID, window values.TimeWindow) (*risk.CompositeScore, error) {
	ctx, span := s.tracer.StartSpanWithAttributes(ctx, "riskscoring.AggregateVessel", map[string]interface{}{
		"vessel.id": int64(vesselID),
		"window":    window.String(),
		"component": "riskscoring",
	})
	defer span.End()

	startTime := time.Now()

	score, err := s.service.AggregateVessel(ctx, vesselID, window)

	durationMS := float64(time.Since(startTime).Microseconds()) / 1000

	if err != nil {
		s.tracer.RecordError(span, err, "Vessel aggregation failed")
		s.tracer.AddEvent(span, "aggregation_failed", map[string]interface{}{
			"error.type": errorType(err),
			"vessel.id":  int64(vesselID),
		})

		s.metrics.RecordAggregation(ctx, durationMS, "unknown", false)
		return nil, err
	}

	s.metrics.RecordAggregation(ctx, durationMS, string(score.Tier), true)

	s.tracer.SetAttributes(span, map[string]interface{}{
		"score.value":        score.Score.String(),
		"score.tier":         string(score.Tier),
		"score.sanctions":    score.SanctionsExposed,
		"score.duration_ms":  durationMS,
		"score.chain_linked": score.ChainID != nil,
	})

	return score, nil
}

// AggregateIncident instruments the incident aggregation operation
func (s *RiskScoringTracedService) AggregateIncident(ctx context.Context, eventID uuid.UUID) (*risk.CompositeScore, error) {
	ctx, span := s.tracer.StartSpanWithAttributes(ctx, "riskscoring.AggregateIncident", map[string]interface{}{
		"event.id":  eventID.String(),
		"component": "riskscoring",
	})
	defer span.End()

	startTime := time.Now()

	score, err := s.service.AggregateIncident(ctx, eventID)

	durationMS := float64(time.Since(startTime).Microseconds()) / 1000

	if err != nil {
		s.tracer.RecordError(span, err, "Incident aggregation failed")
		s.metrics.RecordAggregation(ctx, durationMS, "unknown", false)
		return nil, err
	}

	s.metrics.RecordAggregation(ctx, durationMS, string(score.Tier), true)

	s.tracer.SetAttributes(span, map[string]interface{}{
		"vessel.id":   int64(score.VesselID),
		"score.value": score.Score.String(),
		"score.tier":  string(score.Tier),
	})

	return score, nil
}

// errorType maps an error to its taxonomy label for span events
func errorType(err error) string {
	if err == nil {
		return ""
	}

	var appErr *domainerrors.AppError
	if errors.As(err, &appErr) {
		return string(appErr.Type)
	}
	return "unknown"
}
