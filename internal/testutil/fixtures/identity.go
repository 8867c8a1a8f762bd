package fixtures

import (
	"testing"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
	"github.com/blueharbor/maritime-risk-engine/internal/service/identitygraph"
)

// CandidateBuilder builds merge candidate inputs for the identity graph
type CandidateBuilder struct {
	t        *testing.T
	vesselA  vessel.VesselID
	vesselB  vessel.VesselID
	score    float64
	evidence map[string]interface{}
}

// NewCandidateBuilder creates a new CandidateBuilder with defaults
func NewCandidateBuilder(t *testing.T) *CandidateBuilder {
	t.Helper()
	return &CandidateBuilder{
		t:       t,
		vesselA: 1,
		vesselB: 2,
		score:   0.9,
	}
}

// WithVessels sets the candidate edge endpoints
func (b *CandidateBuilder) WithVessels(a, vesselB vessel.VesselID) *CandidateBuilder {
	b.vesselA = a
	b.vesselB = vesselB
	return b
}

// WithScore sets the match score
func (b *CandidateBuilder) WithScore(score float64) *CandidateBuilder {
	b.score = score
	return b
}

// WithEvidence sets the matcher evidence payload
func (b *CandidateBuilder) WithEvidence(evidence map[string]interface{}) *CandidateBuilder {
	b.evidence = evidence
	return b
}

// Build returns the candidate input
func (b *CandidateBuilder) Build() identitygraph.NewCandidateInput {
	return identitygraph.NewCandidateInput{
		VesselA:  b.vesselA,
		VesselB:  b.vesselB,
		Score:    b.score,
		Evidence: b.evidence,
	}
}
