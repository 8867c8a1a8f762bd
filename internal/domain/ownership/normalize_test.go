package ownership

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "punctuation stripped",
			input: "Acme Shipping, Ltd.",
			want:  "acme shipping ltd",
		},
		{
			name:  "case folded and whitespace collapsed",
			input: "  ACME   SHIPPING LTD ",
			want:  "acme shipping ltd",
		},
		{
			name:  "apostrophes and brackets",
			input: "O'Brien & Sons (Holdings)",
			want:  "o brien sons holdings",
		},
		{
			name:  "hyphenated",
			input: "Blue-Harbor Maritime",
			want:  "blue harbor maritime",
		},
		{
			name:  "unicode letters survive",
			input: "Müller GmbH",
			want:  "müller gmbh",
		},
		{
			name:  "digits survive",
			input: "Shipping 2000 A/S",
			want:  "shipping 2000 a s",
		},
		{
			name:  "pure punctuation normalizes empty",
			input: "###",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.input))
		})
	}
}

func TestSimilarity(t *testing.T) {
	policy := DefaultMatchPolicy

	t.Run("identical variants score full", func(t *testing.T) {
		score := Similarity("Acme Shipping Ltd", "", "ACME SHIPPING LTD.", "", policy)
		assert.Equal(t, 1.0, score)
	})

	t.Run("token overlap ratio", func(t *testing.T) {
		// {acme, shipping, ltd} vs {acme, shipping, limited}: 2 of 4.
		score := Similarity("Acme Shipping Ltd", "", "Acme Shipping Limited", "", policy)
		assert.Equal(t, 0.5, score)
	})

	t.Run("country agreement adds bonus", func(t *testing.T) {
		without := Similarity("Acme Shipping Ltd", "PA", "Acme Shipping Limited", "LR", policy)
		with := Similarity("Acme Shipping Ltd", "PA", "Acme Shipping Limited", "pa", policy)

		assert.Equal(t, 0.5, without)
		assert.InDelta(t, 0.6, with, 1e-9)
	})

	t.Run("bonus capped at one", func(t *testing.T) {
		score := Similarity("Acme Shipping Ltd", "PA", "Acme Shipping Ltd", "PA", policy)
		assert.Equal(t, 1.0, score)
	})

	t.Run("empty countries earn no bonus", func(t *testing.T) {
		score := Similarity("Acme Shipping Ltd", "", "Acme Shipping Limited", "", policy)
		assert.Equal(t, 0.5, score)
	})

	t.Run("disjoint names score zero", func(t *testing.T) {
		score := Similarity("Acme Shipping Ltd", "PA", "Nordwind Chartering", "PA", policy)
		assert.InDelta(t, 0.1, score, 1e-9) // country bonus only
	})

	t.Run("blank name scores zero", func(t *testing.T) {
		score := Similarity("###", "PA", "Acme Shipping Ltd", "PA", policy)
		assert.Equal(t, 0.0, score)
	})
}

func TestDefaultMatchPolicy(t *testing.T) {
	assert.Equal(t, 0.85, DefaultMatchPolicy.JoinThreshold)
	assert.Equal(t, 0.10, DefaultMatchPolicy.CountryBonus)
}
