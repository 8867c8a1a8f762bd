package identity

import (
	"sort"

	"github.com/google/uuid"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

// BuildChains computes the merge chains implied by a candidate set. Vessel
// identities are vertices, candidates undirected weighted edges; every
// connected component becomes one chain.
//
// The walk is reproducible for any input order: the component is entered at
// its lowest vessel ID, then grown greedily by attaching the unvisited vessel
// reachable over the highest-score candidate from any visited vessel. Ties
// prefer the lower neighbor vessel ID, then the lexicographically smaller
// candidate ID, which totals the order even when the same pair was scored
// twice. Cycles terminate because visited vessels are never re-attached.
//
// Returned chains carry version 1 and evidence unioned from the links the
// walk actually used; callers layer superseded-chain history on top.
func BuildChains(candidates []*MergeCandidate) []*MergeChain {
	adjacency := make(map[vessel.VesselID][]*MergeCandidate)
	for _, cand := range candidates {
		adjacency[cand.VesselA] = append(adjacency[cand.VesselA], cand)
		adjacency[cand.VesselB] = append(adjacency[cand.VesselB], cand)
	}

	vessels := make([]vessel.VesselID, 0, len(adjacency))
	for v := range adjacency {
		vessels = append(vessels, v)
	}
	sort.Slice(vessels, func(i, j int) bool { return vessels[i] < vessels[j] })

	visited := make(map[vessel.VesselID]bool, len(vessels))
	var chains []*MergeChain

	for _, start := range vessels {
		if visited[start] {
			continue
		}

		component := collectComponent(start, adjacency)
		for v := range component {
			visited[v] = true
		}

		chains = append(chains, walkComponent(start, component, adjacency))
	}

	return chains
}

// collectComponent gathers the vertex set reachable from start.
func collectComponent(start vessel.VesselID, adjacency map[vessel.VesselID][]*MergeCandidate) map[vessel.VesselID]bool {
	component := map[vessel.VesselID]bool{start: true}
	queue := []vessel.VesselID{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, cand := range adjacency[current] {
			next := cand.Other(current)
			if !component[next] {
				component[next] = true
				queue = append(queue, next)
			}
		}
	}

	return component
}

// walkComponent emits the chain for one component, starting at its lowest
// vessel ID (the caller iterates starts in ascending order, so start is
// already the component minimum).
func walkComponent(start vessel.VesselID, component map[vessel.VesselID]bool, adjacency map[vessel.VesselID][]*MergeCandidate) *MergeChain {
	order := []vessel.VesselID{start}
	links := make([]uuid.UUID, 0, len(component)-1)
	evidence := make(map[string]interface{})

	attached := map[vessel.VesselID]bool{start: true}
	confidence := 1.0

	for len(order) < len(component) {
		best, bestNext := pickNextLink(order, attached, adjacency)
		if best == nil {
			// Unreachable for a connected component; guards against a
			// corrupted adjacency rather than looping forever.
			break
		}

		order = append(order, bestNext)
		links = append(links, best.ID)
		attached[bestNext] = true

		if best.Score < confidence {
			confidence = best.Score
		}
		mergeEvidence(evidence, best.Evidence)
	}

	return &MergeChain{
		ID:         uuid.New(),
		Vessels:    order,
		Links:      links,
		Confidence: confidence,
		Band:       BandForConfidence(confidence),
		Evidence:   evidence,
		Version:    1,
		Current:    true,
		ComputedAt: clock.Now().UTC(),
	}
}

// pickNextLink scans the frontier for the next attachment: the unvisited
// vessel reachable over the highest-score candidate, ties broken by lower
// neighbor ID, then smaller candidate ID.
func pickNextLink(order []vessel.VesselID, attached map[vessel.VesselID]bool, adjacency map[vessel.VesselID][]*MergeCandidate) (*MergeCandidate, vessel.VesselID) {
	var best *MergeCandidate
	var bestNext vessel.VesselID

	for _, from := range order {
		for _, cand := range adjacency[from] {
			next := cand.Other(from)
			if attached[next] {
				continue
			}

			if best == nil || betterLink(cand, next, best, bestNext) {
				best = cand
				bestNext = next
			}
		}
	}

	return best, bestNext
}

// betterLink reports whether (cand, next) should win over the incumbent.
func betterLink(cand *MergeCandidate, next vessel.VesselID, incumbent *MergeCandidate, incumbentNext vessel.VesselID) bool {
	if cand.Score != incumbent.Score {
		return cand.Score > incumbent.Score
	}
	if next != incumbentNext {
		return next < incumbentNext
	}
	return cand.ID.String() < incumbent.ID.String()
}

// mergeEvidence unions src into dst without overwriting: the earlier link's
// value wins on key conflicts so the union stays order-stable.
func mergeEvidence(dst map[string]interface{}, src map[string]interface{}) {
	for k, v := range src {
		if _, exists := dst[k]; !exists {
			dst[k] = v
		}
	}
}
