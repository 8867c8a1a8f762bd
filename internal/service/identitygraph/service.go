package identitygraph

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/identity"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

// service implements the Service interface
type service struct {
	repo Repository

	// mu serializes graph mutations. Reads go straight to the repository and
	// are never blocked by a recompute in flight.
	mu sync.Mutex
}

// NewService creates a new identity resolution graph service
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// AddCandidate ingests one candidate edge and recomputes the component it
// touches. The working set is bounded: only the chains covering the two
// endpoints and the candidates among their vessels are loaded, never the
// whole graph.
func (s *service) AddCandidate(ctx context.Context, input NewCandidateInput) (*ChainUpdate, error) {
	candidate, err := identity.NewMergeCandidate(input.VesselA, input.VesselB, input.Score, input.Evidence)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	touched, err := s.touchedChains(ctx, candidate)
	if err != nil {
		return nil, err
	}

	working := workingVessels(candidate, touched)
	candidates, err := s.repo.ListCandidatesForVessels(ctx, working)
	if err != nil {
		return nil, errors.Wrap(err, "loading working candidate set")
	}
	candidates = append(candidates, candidate)

	newChains, superseded, _ := reconcile(candidates, touched)

	mutation := ChainMutation{
		Candidate:  candidate,
		NewChains:  newChains,
		Superseded: superseded,
	}
	if err := s.repo.ApplyChainMutation(ctx, mutation); err != nil {
		return nil, errors.Wrap(err, "applying chain mutation")
	}

	update := &ChainUpdate{Candidate: candidate}
	for _, chain := range newChains {
		if chain.ContainsVessel(candidate.VesselA) {
			update.Chain = chain
			break
		}
	}
	if update.Chain == nil {
		// The edge joined vessels already linked and the walk came out
		// identical; report the surviving chain.
		update.Unchanged = true
		for _, chain := range touched {
			if chain.ContainsVessel(candidate.VesselA) {
				update.Chain = chain
				break
			}
		}
	}
	for _, chain := range superseded {
		update.Superseded = append(update.Superseded, chain.ID)
	}

	return update, nil
}

// RebuildAll recomputes every chain from the complete candidate set.
// Components whose walk is unchanged keep their current chain and version;
// everything else is superseded by a fresh version in one transaction.
func (s *service) RebuildAll(ctx context.Context) (*RebuildSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates, err := s.repo.ListCandidates(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading candidates")
	}

	current, err := s.repo.ListCurrentChains(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading current chains")
	}

	newChains, superseded, unchanged := reconcile(candidates, current)

	if len(newChains) > 0 || len(superseded) > 0 {
		mutation := ChainMutation{NewChains: newChains, Superseded: superseded}
		if err := s.repo.ApplyChainMutation(ctx, mutation); err != nil {
			return nil, errors.Wrap(err, "applying chain mutation")
		}
	}

	return &RebuildSummary{
		ChainsBuilt:      len(newChains),
		ChainsUnchanged:  unchanged,
		ChainsSuperseded: len(superseded),
	}, nil
}

// CurrentChainFor returns the current chain covering the vessel.
func (s *service) CurrentChainFor(ctx context.Context, vesselID vessel.VesselID) (*identity.MergeChain, error) {
	if vesselID <= 0 {
		return nil, errors.NewValidationError("INVALID_VESSEL_ID",
			"vessel ID must be positive")
	}
	return s.repo.CurrentChainForVessel(ctx, vesselID)
}

// touchedChains loads the current chains covering the candidate's endpoints.
// A vessel without a chain has never appeared in a candidate, so NotFound is
// simply absence.
func (s *service) touchedChains(ctx context.Context, candidate *identity.MergeCandidate) ([]*identity.MergeChain, error) {
	var touched []*identity.MergeChain
	seen := make(map[uuid.UUID]bool)

	for _, v := range []vessel.VesselID{candidate.VesselA, candidate.VesselB} {
		chain, err := s.repo.CurrentChainForVessel(ctx, v)
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return nil, errors.Wrap(err, "loading touched chain")
		}
		if !seen[chain.ID] {
			seen[chain.ID] = true
			touched = append(touched, chain)
		}
	}

	return touched, nil
}

// workingVessels is the union of the touched chains' vessels and the new
// edge's endpoints. Chains mirror the candidate components exactly, so no
// candidate can reach outside this set without having merged the components
// already.
func workingVessels(candidate *identity.MergeCandidate, touched []*identity.MergeChain) []vessel.VesselID {
	set := map[vessel.VesselID]bool{
		candidate.VesselA: true,
		candidate.VesselB: true,
	}
	for _, chain := range touched {
		for _, v := range chain.Vessels {
			set[v] = true
		}
	}

	vessels := make([]vessel.VesselID, 0, len(set))
	for v := range set {
		vessels = append(vessels, v)
	}
	sort.Slice(vessels, func(i, j int) bool { return vessels[i] < vessels[j] })
	return vessels
}

// reconcile rebuilds chains from the candidate set and works out the delta
// against the current chains: identical walks survive untouched, changed or
// merged components get a successor at 1 + the highest superseded version,
// carrying the predecessors' evidence forward.
func reconcile(candidates []*identity.MergeCandidate, current []*identity.MergeChain) (newChains, superseded []*identity.MergeChain, unchanged int) {
	built := identity.BuildChains(candidates)

	currentByVessel := make(map[vessel.VesselID]*identity.MergeChain)
	for _, chain := range current {
		for _, v := range chain.Vessels {
			currentByVessel[v] = chain
		}
	}

	for _, chain := range built {
		preds := predecessorsOf(chain, currentByVessel)

		if len(preds) == 1 && sameWalk(preds[0], chain) {
			unchanged++
			continue
		}

		version := 1
		for _, pred := range preds {
			if pred.Version+1 > version {
				version = pred.Version + 1
			}
			carryEvidence(chain, pred)
			pred.Supersede(chain.ID)
			superseded = append(superseded, pred)
		}
		chain.Version = version
		newChains = append(newChains, chain)
	}

	return newChains, superseded, unchanged
}

// predecessorsOf collects the distinct current chains overlapping the built
// chain's vessels, in walk order for deterministic evidence carry.
func predecessorsOf(chain *identity.MergeChain, currentByVessel map[vessel.VesselID]*identity.MergeChain) []*identity.MergeChain {
	var preds []*identity.MergeChain
	seen := make(map[uuid.UUID]bool)

	for _, v := range chain.Vessels {
		pred, ok := currentByVessel[v]
		if !ok || seen[pred.ID] {
			continue
		}
		seen[pred.ID] = true
		preds = append(preds, pred)
	}
	return preds
}

// sameWalk reports whether two chains describe the identical traversal.
func sameWalk(a, b *identity.MergeChain) bool {
	if len(a.Vessels) != len(b.Vessels) || len(a.Links) != len(b.Links) || a.Confidence != b.Confidence {
		return false
	}
	for i := range a.Vessels {
		if a.Vessels[i] != b.Vessels[i] {
			return false
		}
	}
	for i := range a.Links {
		if a.Links[i] != b.Links[i] {
			return false
		}
	}
	return true
}

// carryEvidence unions a predecessor's evidence into the successor without
// overwriting what the new walk's own links recorded.
func carryEvidence(chain *identity.MergeChain, pred *identity.MergeChain) {
	if chain.Evidence == nil {
		chain.Evidence = make(map[string]interface{})
	}
	for k, v := range pred.Evidence {
		if _, exists := chain.Evidence[k]; !exists {
			chain.Evidence[k] = v
		}
	}
}
