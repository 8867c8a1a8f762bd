package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

func testWindow() values.TimeWindow {
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	return values.MustNewTimeWindow(start, start.Add(72*time.Hour))
}

func TestNewEvent(t *testing.T) {
	tests := []struct {
		name      string
		kind      EventKind
		vessels   []vessel.VesselID
		component int
		wantErr   bool
		errCode   string
	}{
		{
			name:      "gap event",
			kind:      EventKindGap,
			vessels:   []vessel.VesselID{1},
			component: 80,
		},
		{
			name:      "sts transfer pair",
			kind:      EventKindSTSTransfer,
			vessels:   []vessel.VesselID{1, 2},
			component: 60,
		},
		{
			name:      "sts transfer with unknown partner",
			kind:      EventKindSTSTransfer,
			vessels:   []vessel.VesselID{1},
			component: 60,
		},
		{
			name:      "unknown kind",
			kind:      EventKind("drift"),
			vessels:   []vessel.VesselID{1},
			component: 10,
			wantErr:   true,
			errCode:   "UNKNOWN_EVENT_KIND",
		},
		{
			name:      "gap cannot pair",
			kind:      EventKindGap,
			vessels:   []vessel.VesselID{1, 2},
			component: 10,
			wantErr:   true,
			errCode:   "UNEXPECTED_PAIR",
		},
		{
			name:      "no vessels",
			kind:      EventKindGap,
			vessels:   nil,
			component: 10,
			wantErr:   true,
			errCode:   "MISSING_VESSEL",
		},
		{
			name:      "three vessels",
			kind:      EventKindConvoy,
			vessels:   []vessel.VesselID{1, 2, 3},
			component: 10,
			wantErr:   true,
			errCode:   "TOO_MANY_VESSELS",
		},
		{
			name:      "pair references itself",
			kind:      EventKindConvoy,
			vessels:   []vessel.VesselID{4, 4},
			component: 10,
			wantErr:   true,
			errCode:   "DUPLICATE_PAIR_VESSEL",
		},
		{
			name:      "negative vessel",
			kind:      EventKindGap,
			vessels:   []vessel.VesselID{-1},
			component: 10,
			wantErr:   true,
			errCode:   "INVALID_VESSEL_ID",
		},
		{
			name:      "component above range",
			kind:      EventKindGap,
			vessels:   []vessel.VesselID{1},
			component: 101,
			wantErr:   true,
			errCode:   "COMPONENT_OUT_OF_RANGE",
		},
		{
			name:      "component below range",
			kind:      EventKindGap,
			vessels:   []vessel.VesselID{1},
			component: -1,
			wantErr:   true,
			errCode:   "COMPONENT_OUT_OF_RANGE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := NewEvent(tt.kind, tt.vessels, testWindow(), tt.component, nil)

			if tt.wantErr {
				require.Error(t, err)
				var appErr *domainerrors.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, tt.errCode, appErr.Code)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.kind, event.Kind)
			assert.Equal(t, tt.component, event.Component)
			assert.False(t, event.DetectedAt.IsZero())
		})
	}
}

func TestNewEventRequiresWindow(t *testing.T) {
	_, err := NewEvent(EventKindGap, []vessel.VesselID{1}, values.TimeWindow{}, 50, nil)
	require.Error(t, err)
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "MISSING_WINDOW", appErr.Code)
}

func TestEventSubjectAndInvolves(t *testing.T) {
	event, err := NewEvent(EventKindConvoy, []vessel.VesselID{7, 9}, testWindow(), 40, nil)
	require.NoError(t, err)

	assert.Equal(t, vessel.VesselID(7), event.Subject())
	assert.True(t, event.Involves(7))
	assert.True(t, event.Involves(9))
	assert.False(t, event.Involves(8))
}

func TestEventKindRegistry(t *testing.T) {
	for _, kind := range AllEventKinds() {
		assert.True(t, kind.IsValid(), "kind %s", kind)
	}
	assert.False(t, EventKind("drift").IsValid())

	assert.True(t, EventKindSTSTransfer.AllowsPair())
	assert.True(t, EventKindConvoy.AllowsPair())
	assert.False(t, EventKindGap.AllowsPair())
	assert.False(t, EventKindSpoofing.AllowsPair())
	assert.False(t, EventKindLoitering.AllowsPair())
}
