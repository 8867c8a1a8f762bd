package instrumentation

import (
	"context"
	"time"

	domainerrors "github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/ownership"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
	"github.com/blueharbor/maritime-risk-engine/internal/infrastructure/telemetry"
	"github.com/blueharbor/maritime-risk-engine/internal/metrics"
	"github.com/blueharbor/maritime-risk-engine/internal/service/ownercluster"
)

// OwnerClusterTracedService wraps the owner clustering service with
// OpenTelemetry instrumentation
type OwnerClusterTracedService struct {
	service ownercluster.Service
	tracer  telemetry.TracerInterface
	metrics *metrics.Registry
}

// NewOwnerClusterTracedService creates a new instrumented clustering service
func NewOwnerClusterTracedService(service ownercluster.Service, tracer telemetry.TracerInterface, metrics *metrics.Registry) *OwnerClusterTracedService {
	return &OwnerClusterTracedService{
		service: service,
		tracer:  tracer,
		metrics: metrics,
	}
}

// UpsertOwner instruments owner placement
func (s *OwnerClusterTracedService) UpsertOwner(ctx context.Context, input ownercluster.OwnerInput) (*ownercluster.ClusterUpdate, error) {
	ctx, span := s.tracer.StartSpanWithAttributes(ctx, "ownercluster.UpsertOwner", map[string]interface{}{
		"owner.id":  input.OwnerID,
		"vessel.id": int64(input.VesselID),
		"component": "ownercluster",
	})
	defer span.End()

	startTime := time.Now()

	update, err := s.service.UpsertOwner(ctx, input)

	durationMS := float64(time.Since(startTime).Microseconds()) / 1000

	if err != nil {
		s.tracer.RecordError(span, err, "Owner placement failed")
		return nil, err
	}

	s.metrics.RecordClusterUpdate(ctx, durationMS, update.Joined)

	s.tracer.SetAttributes(span, map[string]interface{}{
		"cluster.id":         update.Cluster.ID.String(),
		"cluster.canonical":  update.Cluster.CanonicalName,
		"cluster.joined":     update.Joined,
		"cluster.similarity": update.Similarity,
		"cluster.sanctioned": update.Cluster.Sanctioned,
	})

	return update, nil
}

// MarkOwnerSanctioned instruments the sanctions flag transition
func (s *OwnerClusterTracedService) MarkOwnerSanctioned(ctx context.Context, ownerID int64) (*ownercluster.ClusterUpdate, error) {
	ctx, span := s.tracer.StartSpanWithAttributes(ctx, "ownercluster.MarkOwnerSanctioned", map[string]interface{}{
		"owner.id": ownerID,
	})
	defer span.End()

	startTime := time.Now()

	update, err := s.service.MarkOwnerSanctioned(ctx, ownerID)

	durationMS := float64(time.Since(startTime).Microseconds()) / 1000

	if err != nil {
		s.tracer.RecordError(span, err, "Sanctions update failed")
		return nil, err
	}

	s.metrics.RecordClusterUpdate(ctx, durationMS, false)

	s.tracer.AddEvent(span, "owner_sanctioned", map[string]interface{}{
		"cluster.id": update.Cluster.ID.String(),
	})

	return update, nil
}

// ClusterForOwner instruments cluster lookups by owner
func (s *OwnerClusterTracedService) ClusterForOwner(ctx context.Context, ownerID int64) (*ownership.OwnerCluster, error) {
	ctx, span := s.tracer.StartSpanWithAttributes(ctx, "ownercluster.ClusterForOwner", map[string]interface{}{
		"owner.id": ownerID,
	})
	defer span.End()

	cluster, err := s.service.ClusterForOwner(ctx, ownerID)
	if err != nil {
		if !domainerrors.IsNotFound(err) {
			s.tracer.RecordError(span, err, "Cluster lookup failed")
		}
		return nil, err
	}
	return cluster, nil
}

// ClustersForVessel instruments cluster lookups by vessel
func (s *OwnerClusterTracedService) ClustersForVessel(ctx context.Context, vesselID vessel.VesselID) ([]*ownership.OwnerCluster, error) {
	ctx, span := s.tracer.StartSpanWithAttributes(ctx, "ownercluster.ClustersForVessel", map[string]interface{}{
		"vessel.id": int64(vesselID),
	})
	defer span.End()

	clusters, err := s.service.ClustersForVessel(ctx, vesselID)
	if err != nil {
		s.tracer.RecordError(span, err, "Cluster lookup failed")
		return nil, err
	}

	s.tracer.SetAttributes(span, map[string]interface{}{
		"clusters.count": len(clusters),
	})

	return clusters, nil
}

// SanctionsExposure instruments the sanctions exposure check
func (s *OwnerClusterTracedService) SanctionsExposure(ctx context.Context, vesselID vessel.VesselID) (bool, error) {
	ctx, span := s.tracer.StartSpanWithAttributes(ctx, "ownercluster.SanctionsExposure", map[string]interface{}{
		"vessel.id": int64(vesselID),
	})
	defer span.End()

	exposed, err := s.service.SanctionsExposure(ctx, vesselID)
	if err != nil {
		s.tracer.RecordError(span, err, "Sanctions check failed")
		return false, err
	}

	s.tracer.SetAttributes(span, map[string]interface{}{
		"sanctions.exposed": exposed,
	})

	return exposed, nil
}
