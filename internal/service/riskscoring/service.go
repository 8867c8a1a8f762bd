package riskscoring

import (
	"context"

	"github.com/google/uuid"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/identity"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/risk"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

type service struct {
	repo      Repository
	chains    ChainResolver
	sanctions SanctionsResolver
	cache     ScoreCache
}

// NewService creates a risk scoring service. cache may be nil to score
// without one.
func NewService(repo Repository, chains ChainResolver, sanctions SanctionsResolver, cache ScoreCache) Service {
	return &service{repo: repo, chains: chains, sanctions: sanctions, cache: cache}
}

func (s *service) AggregateVessel(ctx context.Context, vesselID vessel.VesselID, window values.TimeWindow) (*risk.CompositeScore, error) {
	if vesselID <= 0 {
		return nil, errors.NewValidationError("INVALID_VESSEL_ID", "vessel id must be positive")
	}
	if window.IsZero() {
		return nil, errors.NewValidationError("MISSING_WINDOW", "scoring window is required")
	}

	// The cache is advisory; any read failure falls through to a fresh
	// computation.
	if s.cache != nil {
		if cached, err := s.cache.GetScore(ctx, vesselID, window); err == nil {
			return cached, nil
		}
	}

	input := risk.AggregateInput{VesselID: vesselID, Window: window}

	chain, err := s.resolveChain(ctx, vesselID)
	if err != nil {
		return nil, err
	}
	if chain != nil {
		input.Chain = &risk.ChainRef{ID: chain.ID, Confidence: chain.Confidence}
	}

	own, err := s.repo.ListEventsForVessel(ctx, vesselID, window)
	if err != nil {
		return nil, errors.Wrap(err, "list events")
	}
	input.Own = own

	if chain != nil {
		inherited, err := s.inheritedEvents(ctx, vesselID, chain, window, own)
		if err != nil {
			return nil, err
		}
		input.Inherited = inherited
	}

	exposed, err := s.sanctions.SanctionsExposure(ctx, vesselID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve sanctions exposure")
	}
	input.Sanctions = exposed

	score, err := risk.Aggregate(input)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		// A failed cache write never fails scoring.
		_ = s.cache.SetScore(ctx, score)
	}
	return score, nil
}

func (s *service) AggregateIncident(ctx context.Context, eventID uuid.UUID) (*risk.CompositeScore, error) {
	if eventID == uuid.Nil {
		return nil, errors.NewValidationError("MISSING_EVENT_ID", "event id is required")
	}

	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.AggregateVessel(ctx, event.Subject(), event.Window)
}

// resolveChain returns the subject's current chain, or nil when the vessel is
// unresolved and scores alone at full confidence.
func (s *service) resolveChain(ctx context.Context, vesselID vessel.VesselID) (*identity.MergeChain, error) {
	chain, err := s.chains.CurrentChainFor(ctx, vesselID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "resolve chain")
	}
	return chain, nil
}

// inheritedEvents collects events from the other vessels on the chain. An
// event already listed for the subject, or directly involving it, is never
// inherited; pair events count once.
func (s *service) inheritedEvents(ctx context.Context, subject vessel.VesselID, chain *identity.MergeChain, window values.TimeWindow, own []*risk.Event) ([]*risk.Event, error) {
	seen := make(map[uuid.UUID]bool, len(own))
	for _, e := range own {
		seen[e.ID] = true
	}

	var inherited []*risk.Event
	for _, linked := range chain.Vessels {
		if linked == subject {
			continue
		}
		events, err := s.repo.ListEventsForVessel(ctx, linked, window)
		if err != nil {
			return nil, errors.Wrap(err, "list linked vessel events")
		}
		for _, e := range events {
			if seen[e.ID] || e.Involves(subject) {
				continue
			}
			seen[e.ID] = true
			inherited = append(inherited, e)
		}
	}
	return inherited, nil
}
