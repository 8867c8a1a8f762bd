package riskscoring

import (
	"context"

	"github.com/google/uuid"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/identity"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/risk"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

// Service computes composite risk scores. Scoring is a pure read: the same
// events, chain, and sanctions state always produce the same score, so
// callers may invoke it concurrently and repeatedly.
type Service interface {
	// AggregateVessel scores one vessel over a window, folding in events
	// inherited across its merge chain discounted by chain confidence.
	AggregateVessel(ctx context.Context, vesselID vessel.VesselID, window values.TimeWindow) (*risk.CompositeScore, error)

	// AggregateIncident scores the subject vessel of a detection event over
	// the event's own window.
	AggregateIncident(ctx context.Context, eventID uuid.UUID) (*risk.CompositeScore, error)
}

// Repository is the storage boundary for detection events.
type Repository interface {
	// GetEvent returns the stored event or a not-found error.
	GetEvent(ctx context.Context, eventID uuid.UUID) (*risk.Event, error)

	// ListEventsForVessel returns every event involving the vessel whose
	// window overlaps the given one.
	ListEventsForVessel(ctx context.Context, vesselID vessel.VesselID, window values.TimeWindow) ([]*risk.Event, error)

	// ListActiveVessels returns every vessel named by an event overlapping
	// the window, ascending. The batch runner sweeps these after a rebuild.
	ListActiveVessels(ctx context.Context, window values.TimeWindow) ([]vessel.VesselID, error)
}

// ChainResolver supplies the current merge chain for a vessel. The identity
// graph service satisfies this.
type ChainResolver interface {
	CurrentChainFor(ctx context.Context, vesselID vessel.VesselID) (*identity.MergeChain, error)
}

// SanctionsResolver answers whether a vessel's ownership carries sanctions
// exposure. The owner clustering service satisfies this.
type SanctionsResolver interface {
	SanctionsExposure(ctx context.Context, vesselID vessel.VesselID) (bool, error)
}

// ScoreCache is an optional read-through cache for computed scores. A miss
// is reported as a not-found error.
type ScoreCache interface {
	GetScore(ctx context.Context, vesselID vessel.VesselID, window values.TimeWindow) (*risk.CompositeScore, error)
	SetScore(ctx context.Context, score *risk.CompositeScore) error
}
