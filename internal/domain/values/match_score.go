package values

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
)

// MatchScore represents a similarity or confidence value in [0, 1]
type MatchScore struct {
	value float64
}

const (
	// MinMatchScore is the lowest valid score
	MinMatchScore = 0.0
	// MaxMatchScore is the highest valid score
	MaxMatchScore = 1.0
)

// NewMatchScore creates a new MatchScore value object with validation
func NewMatchScore(value float64) (MatchScore, error) {
	if value < MinMatchScore || value > MaxMatchScore {
		return MatchScore{}, errors.NewValidationError("SCORE_OUT_OF_RANGE",
			fmt.Sprintf("match score %v must be in [%v, %v]", value, MinMatchScore, MaxMatchScore))
	}

	return MatchScore{value: value}, nil
}

// MustNewMatchScore creates MatchScore and panics on error (for constants/tests)
func MustNewMatchScore(value float64) MatchScore {
	ms, err := NewMatchScore(value)
	if err != nil {
		panic(err)
	}
	return ms
}

// PerfectMatchScore returns the maximum score (1.0)
func PerfectMatchScore() MatchScore {
	return MatchScore{value: MaxMatchScore}
}

// Value returns the underlying score
func (ms MatchScore) Value() float64 {
	return ms.value
}

// String returns the string representation of the score
func (ms MatchScore) String() string {
	return strconv.FormatFloat(ms.value, 'f', -1, 64)
}

// Equal checks if two MatchScore values are equal
func (ms MatchScore) Equal(other MatchScore) bool {
	return ms.value == other.value
}

// LessThan checks if this score is strictly lower than other
func (ms MatchScore) LessThan(other MatchScore) bool {
	return ms.value < other.value
}

// AtLeast checks if this score meets the given threshold
func (ms MatchScore) AtLeast(threshold float64) bool {
	return ms.value >= threshold
}

// Min returns the lower of two scores
func (ms MatchScore) Min(other MatchScore) MatchScore {
	if other.value < ms.value {
		return other
	}
	return ms
}

// MarshalJSON implements JSON marshaling
func (ms MatchScore) MarshalJSON() ([]byte, error) {
	return json.Marshal(ms.value)
}

// UnmarshalJSON implements JSON unmarshaling
func (ms *MatchScore) UnmarshalJSON(data []byte) error {
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	score, err := NewMatchScore(value)
	if err != nil {
		return err
	}

	*ms = score
	return nil
}

// DatabaseValue implements driver.Valuer for database storage
func (ms MatchScore) DatabaseValue() (driver.Value, error) {
	return ms.value, nil
}

// Scan implements sql.Scanner for database retrieval
func (ms *MatchScore) Scan(value interface{}) error {
	if value == nil {
		*ms = MatchScore{}
		return nil
	}

	var val float64
	switch v := value.(type) {
	case float64:
		val = v
	case float32:
		val = float64(v)
	case int64:
		val = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("cannot parse match score string '%s': %w", v, err)
		}
		val = parsed
	default:
		return fmt.Errorf("cannot scan %T into MatchScore", value)
	}

	score, err := NewMatchScore(val)
	if err != nil {
		return err
	}

	*ms = score
	return nil
}

// ValidateMatchScore validates that a float64 could be a valid match score
func ValidateMatchScore(value float64) error {
	_, err := NewMatchScore(value)
	return err
}
