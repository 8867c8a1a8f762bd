package ingest

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/risk"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
	"github.com/blueharbor/maritime-risk-engine/internal/service/identitygraph"
	"github.com/blueharbor/maritime-risk-engine/internal/service/ownercluster"
)

// StaticRecord is one registry static-data observation for a vessel.
type StaticRecord struct {
	VesselID int64  `json:"vessel_id" validate:"required,gt=0"`
	Name     string `json:"name"`
	Flag     string `json:"flag" validate:"omitempty,len=2"`
	DWT      *int64 `json:"dwt,omitempty" validate:"omitempty,gte=0"`
}

// Static converts the record into a domain static-data record.
func (r StaticRecord) Static() (*vessel.StaticData, error) {
	return vessel.NewStaticData(vessel.VesselID(r.VesselID), r.Name, r.Flag, r.DWT)
}

// CandidateRecord is one identity-match observation from an upstream feed.
type CandidateRecord struct {
	VesselA  int64                  `json:"vessel_a" validate:"required,gt=0"`
	VesselB  int64                  `json:"vessel_b" validate:"required,gt=0,nefield=VesselA"`
	Score    float64                `json:"score" validate:"gte=0,lte=1"`
	Evidence map[string]interface{} `json:"evidence,omitempty"`
}

// Input converts the record into the identity graph's intake shape.
func (r CandidateRecord) Input() identitygraph.NewCandidateInput {
	return identitygraph.NewCandidateInput{
		VesselA:  vessel.VesselID(r.VesselA),
		VesselB:  vessel.VesselID(r.VesselB),
		Score:    r.Score,
		Evidence: r.Evidence,
	}
}

// OwnerRecord is one ownership observation from a registry feed.
type OwnerRecord struct {
	OwnerID    int64  `json:"owner_id" validate:"required,gt=0"`
	VesselID   int64  `json:"vessel_id" validate:"required,gt=0"`
	Name       string `json:"name" validate:"required"`
	Country    string `json:"country" validate:"omitempty,len=2"`
	Sanctioned bool   `json:"sanctioned"`
}

// Input converts the record into the clustering engine's intake shape.
func (r OwnerRecord) Input() ownercluster.OwnerInput {
	return ownercluster.OwnerInput{
		OwnerID:    r.OwnerID,
		VesselID:   vessel.VesselID(r.VesselID),
		Name:       r.Name,
		Country:    r.Country,
		Sanctioned: r.Sanctioned,
	}
}

// EventRecord is one detection event from an upstream detector.
type EventRecord struct {
	Kind        string                 `json:"kind" validate:"required,event_kind"`
	Vessels     []int64                `json:"vessels" validate:"required,min=1,max=2,dive,gt=0"`
	WindowStart time.Time              `json:"window_start" validate:"required"`
	WindowEnd   time.Time              `json:"window_end" validate:"required,gtefield=WindowStart"`
	Component   int                    `json:"component" validate:"gte=0,lte=100"`
	Evidence    map[string]interface{} `json:"evidence,omitempty"`
}

// Event converts the record into a domain event.
func (r EventRecord) Event() (*risk.Event, error) {
	window, err := values.NewTimeWindow(r.WindowStart, r.WindowEnd)
	if err != nil {
		return nil, err
	}
	vessels := make([]vessel.VesselID, len(r.Vessels))
	for i, v := range r.Vessels {
		vessels[i] = vessel.VesselID(v)
	}
	return risk.NewEvent(risk.EventKind(r.Kind), vessels, window, r.Component, r.Evidence)
}

// Batch is one fetch worth of feed records.
type Batch struct {
	Statics    []StaticRecord    `json:"statics,omitempty"`
	Candidates []CandidateRecord `json:"candidates,omitempty"`
	Owners     []OwnerRecord     `json:"owners,omitempty"`
	Events     []EventRecord     `json:"events,omitempty"`
}

// Empty reports whether the batch carries no records.
func (b *Batch) Empty() bool {
	return b == nil || len(b.Statics)+len(b.Candidates)+len(b.Owners)+len(b.Events) == 0
}

// Validator checks feed records before they reach the domain constructors, so
// malformed feed entries are rejected with field-level detail instead of a
// bare domain error.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a record validator with the custom rules registered.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterValidation("event_kind", validateEventKind)
	return &Validator{validate: v}
}

func validateEventKind(fl validator.FieldLevel) bool {
	return risk.EventKind(fl.Field().String()).IsValid()
}

// ValidateRecord checks one record's struct tags.
func (v *Validator) ValidateRecord(record interface{}) error {
	if err := v.validate.Struct(record); err != nil {
		return errors.NewValidationError("INVALID_RECORD", err.Error())
	}
	return nil
}
