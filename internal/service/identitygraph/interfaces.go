package identitygraph

import (
	"context"

	"github.com/google/uuid"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/identity"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

// Service defines the identity resolution graph interface
type Service interface {
	// AddCandidate ingests one merge candidate and recomputes the affected
	// component, superseding any chains the new edge touched or bridged
	AddCandidate(ctx context.Context, input NewCandidateInput) (*ChainUpdate, error)
	// RebuildAll recomputes every chain from the full candidate set
	RebuildAll(ctx context.Context) (*RebuildSummary, error)
	// CurrentChainFor returns the current chain covering a vessel; a vessel
	// with no chain is a NotFound, which callers treat as a singleton
	CurrentChainFor(ctx context.Context, vesselID vessel.VesselID) (*identity.MergeChain, error)
}

// Repository defines the candidate and chain storage interface
type Repository interface {
	// ListCandidates returns every stored merge candidate
	ListCandidates(ctx context.Context) ([]*identity.MergeCandidate, error)
	// ListCandidatesForVessels returns candidates touching any given vessel
	ListCandidatesForVessels(ctx context.Context, vessels []vessel.VesselID) ([]*identity.MergeCandidate, error)
	// ListCurrentChains returns all chains not yet superseded
	ListCurrentChains(ctx context.Context) ([]*identity.MergeChain, error)
	// CurrentChainForVessel returns the current chain covering one vessel
	CurrentChainForVessel(ctx context.Context, vesselID vessel.VesselID) (*identity.MergeChain, error)
	// ApplyChainMutation persists a candidate plus its chain replacement in
	// one transaction; either everything lands or nothing does
	ApplyChainMutation(ctx context.Context, mutation ChainMutation) error
}

// NewCandidateInput carries one externally matched candidate edge
type NewCandidateInput struct {
	VesselA  vessel.VesselID
	VesselB  vessel.VesselID
	Score    float64
	Evidence map[string]interface{}
}

// ChainMutation is the atomic write produced by a recompute
type ChainMutation struct {
	// Candidate is the newly ingested edge, nil for batch rebuilds
	Candidate *identity.MergeCandidate
	// NewChains are the freshly built current chains
	NewChains []*identity.MergeChain
	// Superseded are prior chains, already marked with their successor
	Superseded []*identity.MergeChain
}

// ChainUpdate reports what one AddCandidate changed
type ChainUpdate struct {
	Candidate  *identity.MergeCandidate
	Chain      *identity.MergeChain
	Superseded []uuid.UUID
	// Unchanged is set when the candidate joined vessels already linked and
	// the walk came out identical, so no new version was written
	Unchanged bool
}

// RebuildSummary reports the outcome of a full recompute
type RebuildSummary struct {
	ChainsBuilt      int
	ChainsUnchanged  int
	ChainsSuperseded int
}
