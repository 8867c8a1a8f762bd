package fixtures

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/risk"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

// EventBuilder builds test detection events
type EventBuilder struct {
	t         *testing.T
	kind      risk.EventKind
	vessels   []vessel.VesselID
	start     time.Time
	duration  time.Duration
	component int
	evidence  map[string]interface{}
}

// NewEventBuilder creates a new EventBuilder with defaults
func NewEventBuilder(t *testing.T) *EventBuilder {
	t.Helper()
	return &EventBuilder{
		t:         t,
		kind:      risk.EventKindGap,
		vessels:   []vessel.VesselID{1},
		start:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		duration:  6 * time.Hour,
		component: 40,
	}
}

// WithKind sets the detector kind
func (b *EventBuilder) WithKind(kind risk.EventKind) *EventBuilder {
	b.kind = kind
	return b
}

// WithVessels sets the referenced vessel identities
func (b *EventBuilder) WithVessels(ids ...vessel.VesselID) *EventBuilder {
	b.vessels = ids
	return b
}

// WithWindow sets the observation window start and length
func (b *EventBuilder) WithWindow(start time.Time, duration time.Duration) *EventBuilder {
	b.start = start
	b.duration = duration
	return b
}

// WithComponent sets the raw risk score component
func (b *EventBuilder) WithComponent(component int) *EventBuilder {
	b.component = component
	return b
}

// WithEvidence sets the detector evidence payload
func (b *EventBuilder) WithEvidence(evidence map[string]interface{}) *EventBuilder {
	b.evidence = evidence
	return b
}

// Build validates and returns the event
func (b *EventBuilder) Build() *risk.Event {
	b.t.Helper()
	window, err := values.NewTimeWindow(b.start, b.start.Add(b.duration))
	require.NoError(b.t, err)
	event, err := risk.NewEvent(b.kind, b.vessels, window, b.component, b.evidence)
	require.NoError(b.t, err)
	return event
}
