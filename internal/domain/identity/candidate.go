package identity

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

// MergeCandidate is a scored undirected edge asserting that two vessel
// identities likely denote the same physical vessel. Candidates arrive from
// an external matcher and are immutable once created; the graph only ever
// reads them.
type MergeCandidate struct {
	ID        uuid.UUID              `json:"id"`
	VesselA   vessel.VesselID        `json:"vessel_a"`
	VesselB   vessel.VesselID        `json:"vessel_b"`
	Score     float64                `json:"score"`
	Evidence  map[string]interface{} `json:"evidence,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewMergeCandidate creates a merge candidate with validation
func NewMergeCandidate(a, b vessel.VesselID, score float64, evidence map[string]interface{}) (*MergeCandidate, error) {
	if a <= 0 || b <= 0 {
		return nil, errors.NewValidationError("INVALID_VESSEL_ID",
			"candidate endpoints must be positive vessel IDs")
	}

	if a == b {
		return nil, errors.NewValidationError("SELF_MERGE",
			fmt.Sprintf("candidate cannot link vessel %d to itself", a))
	}

	if err := values.ValidateMatchScore(score); err != nil {
		return nil, err
	}

	return &MergeCandidate{
		ID:        uuid.New(),
		VesselA:   a,
		VesselB:   b,
		Score:     score,
		Evidence:  evidence,
		CreatedAt: clock.Now().UTC(),
	}, nil
}

// Involves reports whether the candidate touches the given vessel.
func (c *MergeCandidate) Involves(id vessel.VesselID) bool {
	return c.VesselA == id || c.VesselB == id
}

// Other returns the opposite endpoint. The caller must pass one of the two
// endpoints; anything else is a programming error surfaced as a zero ID.
func (c *MergeCandidate) Other(id vessel.VesselID) vessel.VesselID {
	switch id {
	case c.VesselA:
		return c.VesselB
	case c.VesselB:
		return c.VesselA
	}
	return 0
}
