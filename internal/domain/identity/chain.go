package identity

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

// ConfidenceBand buckets a chain's weakest-link confidence for consumers
// that act on coarse trust levels rather than raw scores.
type ConfidenceBand int

const (
	BandLow ConfidenceBand = iota
	BandMedium
	BandHigh
)

func (b ConfidenceBand) String() string {
	switch b {
	case BandHigh:
		return "HIGH"
	case BandMedium:
		return "MEDIUM"
	case BandLow:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}

// bandCutoff is one row of the confidence ladder, walked top-down.
type bandCutoff struct {
	threshold float64
	band      ConfidenceBand
}

var bandCutoffs = []bandCutoff{
	{threshold: 0.85, band: BandHigh},
	{threshold: 0.60, band: BandMedium},
}

// BandForConfidence maps a weakest-link confidence to its band.
func BandForConfidence(confidence float64) ConfidenceBand {
	for _, cutoff := range bandCutoffs {
		if confidence >= cutoff.threshold {
			return cutoff.band
		}
	}
	return BandLow
}

// MergeChain materializes one connected component of merge candidates as an
// ordered walk over its vessels. Chains are never mutated in place: a changed
// component produces a new version and the prior row is marked superseded.
//
// Links[i] is the candidate that attached Vessels[i+1] to the walk, so a
// chain over n vessels carries exactly n-1 links and its confidence is the
// minimum score across them.
type MergeChain struct {
	ID           uuid.UUID              `json:"id"`
	Vessels      []vessel.VesselID      `json:"vessels"`
	Links        []uuid.UUID            `json:"links"`
	Confidence   float64                `json:"confidence"`
	Band         ConfidenceBand         `json:"confidence_band"`
	Evidence     map[string]interface{} `json:"evidence,omitempty"`
	Version      int                    `json:"version"`
	SupersededBy *uuid.UUID             `json:"superseded_by,omitempty"`
	Current      bool                   `json:"current"`
	ComputedAt   time.Time              `json:"computed_at"`
}

// Length returns the number of vessel identities in the chain.
func (mc *MergeChain) Length() int {
	return len(mc.Vessels)
}

// ContainsVessel reports whether the chain covers the given identity.
func (mc *MergeChain) ContainsVessel(id vessel.VesselID) bool {
	for _, v := range mc.Vessels {
		if v == id {
			return true
		}
	}
	return false
}

// Supersede marks the chain as replaced by a newer version.
func (mc *MergeChain) Supersede(by uuid.UUID) {
	mc.Current = false
	mc.SupersededBy = &by
}

// Validate checks the structural invariants every stored chain must hold.
// A violation means the store and the builder disagree, which no retry can
// repair, so it surfaces as a consistency error.
func (mc *MergeChain) Validate() error {
	if len(mc.Vessels) < 2 {
		return errors.NewConsistencyError("CHAIN_TOO_SHORT",
			fmt.Sprintf("chain %s has %d vessels, need at least 2", mc.ID, len(mc.Vessels)))
	}

	if len(mc.Links) != len(mc.Vessels)-1 {
		return errors.NewConsistencyError("CHAIN_LINK_MISMATCH",
			fmt.Sprintf("chain %s has %d links for %d vessels", mc.ID, len(mc.Links), len(mc.Vessels)))
	}

	seen := make(map[vessel.VesselID]bool, len(mc.Vessels))
	for _, v := range mc.Vessels {
		if seen[v] {
			return errors.NewConsistencyError("CHAIN_DUPLICATE_VESSEL",
				fmt.Sprintf("chain %s lists vessel %d twice", mc.ID, v))
		}
		seen[v] = true
	}

	if mc.Version < 1 {
		return errors.NewConsistencyError("CHAIN_BAD_VERSION",
			fmt.Sprintf("chain %s has version %d", mc.ID, mc.Version))
	}

	return nil
}
