package values

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
)

// TimeWindow represents a closed observation interval [start, end]
type TimeWindow struct {
	start time.Time
	end   time.Time
}

// NewTimeWindow creates a new TimeWindow value object with validation
func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if start.IsZero() || end.IsZero() {
		return TimeWindow{}, errors.NewValidationError("EMPTY_WINDOW_BOUND",
			"time window bounds cannot be zero")
	}

	if end.Before(start) {
		return TimeWindow{}, errors.NewValidationError("INVERTED_WINDOW",
			fmt.Sprintf("window end %s precedes start %s", end.Format(time.RFC3339), start.Format(time.RFC3339)))
	}

	return TimeWindow{start: start.UTC(), end: end.UTC()}, nil
}

// MustNewTimeWindow creates TimeWindow and panics on error (for constants/tests)
func MustNewTimeWindow(start, end time.Time) TimeWindow {
	tw, err := NewTimeWindow(start, end)
	if err != nil {
		panic(err)
	}
	return tw
}

// WindowEnding returns the window of the given duration ending at end
func WindowEnding(end time.Time, d time.Duration) (TimeWindow, error) {
	if d < 0 {
		return TimeWindow{}, errors.NewValidationError("NEGATIVE_DURATION",
			"window duration cannot be negative")
	}
	return NewTimeWindow(end.Add(-d), end)
}

// Start returns the window start (UTC)
func (tw TimeWindow) Start() time.Time {
	return tw.start
}

// End returns the window end (UTC)
func (tw TimeWindow) End() time.Time {
	return tw.end
}

// Duration returns the window length
func (tw TimeWindow) Duration() time.Duration {
	return tw.end.Sub(tw.start)
}

// IsZero checks if the window is unset
func (tw TimeWindow) IsZero() bool {
	return tw.start.IsZero() && tw.end.IsZero()
}

// Equal checks if two TimeWindow values are equal
func (tw TimeWindow) Equal(other TimeWindow) bool {
	return tw.start.Equal(other.start) && tw.end.Equal(other.end)
}

// Contains checks if the instant falls inside the window (inclusive)
func (tw TimeWindow) Contains(t time.Time) bool {
	return !t.Before(tw.start) && !t.After(tw.end)
}

// Overlaps checks if two windows share any instant
func (tw TimeWindow) Overlaps(other TimeWindow) bool {
	return !tw.end.Before(other.start) && !other.end.Before(tw.start)
}

// String returns a compact representation for logs and cache keys
func (tw TimeWindow) String() string {
	return fmt.Sprintf("%s/%s", tw.start.Format(time.RFC3339), tw.end.Format(time.RFC3339))
}

type timeWindowJSON struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MarshalJSON implements JSON marshaling
func (tw TimeWindow) MarshalJSON() ([]byte, error) {
	return json.Marshal(timeWindowJSON{Start: tw.start, End: tw.end})
}

// UnmarshalJSON implements JSON unmarshaling
func (tw *TimeWindow) UnmarshalJSON(data []byte) error {
	var raw timeWindowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	window, err := NewTimeWindow(raw.Start, raw.End)
	if err != nil {
		return err
	}

	*tw = window
	return nil
}
