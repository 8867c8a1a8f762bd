package instrumentation

import (
	"context"
	"time"

	domainerrors "github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/identity"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
	"github.com/blueharbor/maritime-risk-engine/internal/infrastructure/telemetry"
	"github.com/blueharbor/maritime-risk-engine/internal/metrics"
	"github.com/blueharbor/maritime-risk-engine/internal/service/identitygraph"
)

// IdentityGraphTracedService wraps the identity graph service with
// OpenTelemetry instrumentation
type IdentityGraphTracedService struct {
	service identitygraph.Service
	tracer  telemetry.TracerInterface
	metrics *metrics.Registry
}

// NewIdentityGraphTracedService creates a new instrumented graph service
func NewIdentityGraphTracedService(service identitygraph.Service, tracer telemetry.TracerInterface, metrics *metrics.Registry) *IdentityGraphTracedService {
	return &IdentityGraphTracedService{
		service: service,
		tracer:  tracer,
		metrics: metrics,
	}
}

// AddCandidate instruments candidate ingestion
func (s *IdentityGraphTracedService) AddCandidate(ctx context.Context, input identitygraph.NewCandidateInput) (*identitygraph.ChainUpdate, error) {
	ctx, span := s.tracer.StartSpanWithAttributes(ctx, "identitygraph.AddCandidate", map[string]interface{}{
		"vessel.a":        int64(input.VesselA),
		"vessel.b":        int64(input.VesselB),
		"candidate.score": input.Score,
		"component":       "identitygraph",
	})
	defer span.End()

	startTime := time.Now()

	update, err := s.service.AddCandidate(ctx, input)

	durationMS := float64(time.Since(startTime).Microseconds()) / 1000

	if err != nil {
		s.tracer.RecordError(span, err, "Candidate resolution failed")
		s.metrics.RecordCandidate(ctx, durationMS, "unknown", false)
		return nil, err
	}

	s.metrics.RecordCandidate(ctx, durationMS, update.Chain.Band.String(), update.Unchanged)

	s.tracer.SetAttributes(span, map[string]interface{}{
		"chain.id":         update.Chain.ID.String(),
		"chain.band":       update.Chain.Band.String(),
		"chain.confidence": update.Chain.Confidence,
		"chain.vessels":    len(update.Chain.Vessels),
		"chain.superseded": len(update.Superseded),
		"chain.unchanged":  update.Unchanged,
	})

	return update, nil
}

// RebuildAll instruments the full graph rebuild
func (s *IdentityGraphTracedService) RebuildAll(ctx context.Context) (*identitygraph.RebuildSummary, error) {
	ctx, span := s.tracer.StartSpan(ctx, "identitygraph.RebuildAll")
	defer span.End()

	startTime := time.Now()

	summary, err := s.service.RebuildAll(ctx)

	durationMS := float64(time.Since(startTime).Microseconds()) / 1000

	if err != nil {
		s.tracer.RecordError(span, err, "Graph rebuild failed")
		return nil, err
	}

	s.metrics.RecordRebuild(ctx, durationMS, summary.ChainsBuilt+summary.ChainsUnchanged)

	s.tracer.SetAttributes(span, map[string]interface{}{
		"rebuild.chains_built":      summary.ChainsBuilt,
		"rebuild.chains_unchanged":  summary.ChainsUnchanged,
		"rebuild.chains_superseded": summary.ChainsSuperseded,
		"rebuild.duration_ms":       durationMS,
	})

	return summary, nil
}

// CurrentChainFor instruments chain lookups
func (s *IdentityGraphTracedService) CurrentChainFor(ctx context.Context, vesselID vessel.VesselID) (*identity.MergeChain, error) {
	ctx, span := s.tracer.StartSpanWithAttributes(ctx, "identitygraph.CurrentChainFor", map[string]interface{}{
		"vessel.id": int64(vesselID),
	})
	defer span.End()

	chain, err := s.service.CurrentChainFor(ctx, vesselID)
	if err != nil {
		// A vessel without a chain is an expected outcome, not a fault.
		if !domainerrors.IsNotFound(err) {
			s.tracer.RecordError(span, err, "Chain lookup failed")
		}
		return nil, err
	}

	s.tracer.SetAttributes(span, map[string]interface{}{
		"chain.id":      chain.ID.String(),
		"chain.vessels": len(chain.Vessels),
	})

	return chain, nil
}
