package risk

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

// EventKind identifies which detector produced a risk event.
type EventKind string

const (
	EventKindGap         EventKind = "gap"
	EventKindSpoofing    EventKind = "spoofing"
	EventKindSTSTransfer EventKind = "sts_transfer"
	EventKindLoitering   EventKind = "loitering"
	EventKindConvoy      EventKind = "convoy"
)

// validKinds doubles as the registry of everything the aggregator knows how
// to weigh.
var validKinds = map[EventKind]bool{
	EventKindGap:         true,
	EventKindSpoofing:    true,
	EventKindSTSTransfer: true,
	EventKindLoitering:   true,
	EventKindConvoy:      true,
}

// pairKinds may reference a second vessel (the transfer or convoy partner).
var pairKinds = map[EventKind]bool{
	EventKindSTSTransfer: true,
	EventKindConvoy:      true,
}

// IsValid reports whether the kind is known to the aggregator.
func (k EventKind) IsValid() bool {
	return validKinds[k]
}

// AllowsPair reports whether the kind may carry a second vessel.
func (k EventKind) AllowsPair() bool {
	return pairKinds[k]
}

// AllEventKinds returns the known kinds in weighting order.
func AllEventKinds() []EventKind {
	return []EventKind{EventKindGap, EventKindSpoofing, EventKindSTSTransfer, EventKindConvoy, EventKindLoitering}
}

// Event is one detector observation: a scored anomaly bound to a vessel
// identity (or a pair, for transfers and convoys) over a time window. Events
// arrive from external detectors and are read-only inputs here.
type Event struct {
	ID         uuid.UUID              `json:"id"`
	Kind       EventKind              `json:"kind"`
	Vessels    []vessel.VesselID      `json:"vessels"`
	Window     values.TimeWindow      `json:"window"`
	Component  int                    `json:"risk_score_component"`
	Evidence   map[string]interface{} `json:"evidence,omitempty"`
	DetectedAt time.Time              `json:"detected_at"`
}

// NewEvent creates a risk event with validation
func NewEvent(kind EventKind, vessels []vessel.VesselID, window values.TimeWindow, component int, evidence map[string]interface{}) (*Event, error) {
	if !kind.IsValid() {
		return nil, errors.NewValidationError("UNKNOWN_EVENT_KIND",
			fmt.Sprintf("event kind '%s' is not recognized", kind))
	}

	switch {
	case len(vessels) == 0:
		return nil, errors.NewValidationError("MISSING_VESSEL",
			"event must reference at least one vessel")
	case len(vessels) == 2 && !kind.AllowsPair():
		return nil, errors.NewValidationError("UNEXPECTED_PAIR",
			fmt.Sprintf("event kind '%s' cannot reference two vessels", kind))
	case len(vessels) > 2:
		return nil, errors.NewValidationError("TOO_MANY_VESSELS",
			"event cannot reference more than two vessels")
	}

	for _, v := range vessels {
		if v <= 0 {
			return nil, errors.NewValidationError("INVALID_VESSEL_ID",
				"event vessel IDs must be positive")
		}
	}
	if len(vessels) == 2 && vessels[0] == vessels[1] {
		return nil, errors.NewValidationError("DUPLICATE_PAIR_VESSEL",
			"paired event cannot reference the same vessel twice")
	}

	if window.IsZero() {
		return nil, errors.NewValidationError("MISSING_WINDOW",
			"event must carry an observation window")
	}

	if component < 0 || component > 100 {
		return nil, errors.NewValidationError("COMPONENT_OUT_OF_RANGE",
			fmt.Sprintf("risk score component %d must be in [0, 100]", component))
	}

	return &Event{
		ID:         uuid.New(),
		Kind:       kind,
		Vessels:    vessels,
		Window:     window,
		Component:  component,
		Evidence:   evidence,
		DetectedAt: time.Now().UTC(),
	}, nil
}

// Subject returns the primary vessel the event is attributed to.
func (e *Event) Subject() vessel.VesselID {
	return e.Vessels[0]
}

// Involves reports whether the event references the given vessel.
func (e *Event) Involves(id vessel.VesselID) bool {
	for _, v := range e.Vessels {
		if v == id {
			return true
		}
	}
	return false
}
