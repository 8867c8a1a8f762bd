package vessel

import (
	"strings"
	"time"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
)

// VesselID is an opaque identifier for a tracked vessel identity. Distinct
// identities may later prove to be the same physical vessel; the identity
// graph records that linkage without ever rewriting the IDs themselves.
type VesselID int64

// StaticData holds the slow-changing registry attributes of one vessel
// identity. Deadweight tonnage is nullable because many AIS feeds omit it.
type StaticData struct {
	VesselID          VesselID  `json:"vessel_id"`
	Name              string    `json:"name"`
	Flag              string    `json:"flag"`
	DeadweightTonnage *int64    `json:"deadweight_tonnage,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewStaticData creates a vessel static-data record with validation
func NewStaticData(id VesselID, name, flag string, dwt *int64) (*StaticData, error) {
	if id <= 0 {
		return nil, errors.NewValidationError("INVALID_VESSEL_ID",
			"vessel ID must be positive")
	}

	if dwt != nil && *dwt < 0 {
		return nil, errors.NewValidationError("NEGATIVE_DWT",
			"deadweight tonnage cannot be negative")
	}

	return &StaticData{
		VesselID:          id,
		Name:              strings.TrimSpace(name),
		Flag:              strings.ToUpper(strings.TrimSpace(flag)),
		DeadweightTonnage: dwt,
		UpdatedAt:         time.Now().UTC(),
	}, nil
}

// Envelope returns the speed envelope for this vessel's tonnage class.
func (s *StaticData) Envelope() SpeedEnvelope {
	return ClassifySpeed(s.DeadweightTonnage)
}
