package ownership

import (
	"strings"
	"time"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

// VesselOwner is one externally ingested ownership record: a named party
// tied to a single vessel identity. Several records with name variants may
// describe the same real-world entity; clustering resolves that, the record
// itself stays as received.
type VesselOwner struct {
	OwnerID    int64           `json:"owner_id"`
	VesselID   vessel.VesselID `json:"vessel_id"`
	Name       string          `json:"name"`
	Country    string          `json:"country"`
	Sanctioned bool            `json:"sanctioned"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewVesselOwner creates an ownership record with validation
func NewVesselOwner(ownerID int64, vesselID vessel.VesselID, name, country string, sanctioned bool) (*VesselOwner, error) {
	if ownerID <= 0 {
		return nil, errors.NewValidationError("INVALID_OWNER_ID",
			"owner ID must be positive")
	}

	if vesselID <= 0 {
		return nil, errors.NewValidationError("INVALID_VESSEL_ID",
			"owner record must reference a positive vessel ID")
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" || NormalizeName(trimmed) == "" {
		return nil, errors.NewValidationError("BLANK_OWNER_NAME",
			"owner name cannot be blank")
	}

	return &VesselOwner{
		OwnerID:    ownerID,
		VesselID:   vesselID,
		Name:       trimmed,
		Country:    strings.ToUpper(strings.TrimSpace(country)),
		Sanctioned: sanctioned,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// NormalizedName returns the record's name in canonical comparison form.
func (o *VesselOwner) NormalizedName() string {
	return NormalizeName(o.Name)
}
