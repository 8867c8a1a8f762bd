package vessel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func dwt(v int64) *int64 {
	return &v
}

func TestClassifySpeed(t *testing.T) {
	tests := []struct {
		name       string
		dwt        *int64
		wantCruise float64
		wantSpoof  float64
	}{
		{
			name:       "vlcc class",
			dwt:        dwt(250_000),
			wantCruise: 18.0,
			wantSpoof:  22.0,
		},
		{
			name:       "exactly 200k",
			dwt:        dwt(200_000),
			wantCruise: 18.0,
			wantSpoof:  22.0,
		},
		{
			name:       "just below 200k",
			dwt:        dwt(199_999),
			wantCruise: 19.0,
			wantSpoof:  23.0,
		},
		{
			name:       "exactly 120k",
			dwt:        dwt(120_000),
			wantCruise: 19.0,
			wantSpoof:  23.0,
		},
		{
			name:       "just below 120k",
			dwt:        dwt(119_999),
			wantCruise: 20.0,
			wantSpoof:  24.0,
		},
		{
			name:       "exactly 80k",
			dwt:        dwt(80_000),
			wantCruise: 20.0,
			wantSpoof:  24.0,
		},
		{
			name:       "just below 80k",
			dwt:        dwt(79_999),
			wantCruise: 20.0,
			wantSpoof:  24.0,
		},
		{
			name:       "exactly 60k",
			dwt:        dwt(60_000),
			wantCruise: 20.0,
			wantSpoof:  24.0,
		},
		{
			name:       "just below 60k",
			dwt:        dwt(59_999),
			wantCruise: 17.0,
			wantSpoof:  22.0,
		},
		{
			name:       "small vessel",
			dwt:        dwt(5_000),
			wantCruise: 17.0,
			wantSpoof:  22.0,
		},
		{
			name:       "unknown tonnage",
			dwt:        nil,
			wantCruise: 17.0,
			wantSpoof:  22.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envelope := ClassifySpeed(tt.dwt)

			assert.Equal(t, tt.wantCruise, envelope.MaxCruiseKn)
			assert.Equal(t, tt.wantSpoof, envelope.SpoofImplausibleKn)
		})
	}
}

func TestClassifySpeedSharedWithStaticData(t *testing.T) {
	sd, err := NewStaticData(101, "AURORA SPIRIT", "pa", dwt(150_000))
	assert.NoError(t, err)

	// Envelope must agree with the classifier for the same tonnage.
	assert.Equal(t, ClassifySpeed(sd.DeadweightTonnage), sd.Envelope())
	assert.Equal(t, "PA", sd.Flag)
}

func TestNewStaticDataValidation(t *testing.T) {
	_, err := NewStaticData(0, "AURORA", "PA", nil)
	assert.Error(t, err)

	_, err = NewStaticData(-5, "AURORA", "PA", nil)
	assert.Error(t, err)

	neg := int64(-1)
	_, err = NewStaticData(7, "AURORA", "PA", &neg)
	assert.Error(t, err)

	sd, err := NewStaticData(7, "  AURORA  ", "pa", nil)
	assert.NoError(t, err)
	assert.Equal(t, "AURORA", sd.Name)
	assert.Nil(t, sd.DeadweightTonnage)
}
