package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

func TestBandForConfidence(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		want       ConfidenceBand
	}{
		{name: "perfect", confidence: 1.0, want: BandHigh},
		{name: "exactly high cutoff", confidence: 0.85, want: BandHigh},
		{name: "just below high cutoff", confidence: 0.8499, want: BandMedium},
		{name: "exactly medium cutoff", confidence: 0.60, want: BandMedium},
		{name: "just below medium cutoff", confidence: 0.5999, want: BandLow},
		{name: "weak link", confidence: 0.5, want: BandLow},
		{name: "zero", confidence: 0.0, want: BandLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BandForConfidence(tt.confidence))
		})
	}
}

func TestConfidenceBandString(t *testing.T) {
	assert.Equal(t, "HIGH", BandHigh.String())
	assert.Equal(t, "MEDIUM", BandMedium.String())
	assert.Equal(t, "LOW", BandLow.String())
	assert.Equal(t, "UNKNOWN", ConfidenceBand(99).String())
}

func validChain() *MergeChain {
	return &MergeChain{
		ID:         uuid.New(),
		Vessels:    []vessel.VesselID{1, 2, 3},
		Links:      []uuid.UUID{uuid.New(), uuid.New()},
		Confidence: 0.7,
		Band:       BandMedium,
		Version:    1,
		Current:    true,
		ComputedAt: time.Now().UTC(),
	}
}

func TestMergeChainValidate(t *testing.T) {
	t.Run("valid chain", func(t *testing.T) {
		assert.NoError(t, validChain().Validate())
	})

	t.Run("too short", func(t *testing.T) {
		chain := validChain()
		chain.Vessels = chain.Vessels[:1]
		chain.Links = nil

		err := chain.Validate()
		require.Error(t, err)
		assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeConsistency))
	})

	t.Run("link count mismatch", func(t *testing.T) {
		chain := validChain()
		chain.Links = chain.Links[:1]

		err := chain.Validate()
		require.Error(t, err)
		var appErr *domainerrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "CHAIN_LINK_MISMATCH", appErr.Code)
	})

	t.Run("duplicate vessel", func(t *testing.T) {
		chain := validChain()
		chain.Vessels = []vessel.VesselID{1, 2, 1}

		err := chain.Validate()
		require.Error(t, err)
		var appErr *domainerrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "CHAIN_DUPLICATE_VESSEL", appErr.Code)
	})

	t.Run("bad version", func(t *testing.T) {
		chain := validChain()
		chain.Version = 0

		err := chain.Validate()
		require.Error(t, err)
		assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeConsistency))
	})
}

func TestMergeChainHelpers(t *testing.T) {
	chain := validChain()

	assert.Equal(t, 3, chain.Length())
	assert.True(t, chain.ContainsVessel(2))
	assert.False(t, chain.ContainsVessel(9))

	successor := uuid.New()
	chain.Supersede(successor)
	assert.False(t, chain.Current)
	require.NotNil(t, chain.SupersededBy)
	assert.Equal(t, successor, *chain.SupersededBy)
}
