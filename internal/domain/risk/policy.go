package risk

import "github.com/shopspring/decimal"

// Scoring policy constants. Weights are fixed by policy, not derived from
// data; changing one is a reviewed decision, which is why they sit in one
// table here rather than in configuration.
var (
	kindWeights = map[EventKind]decimal.Decimal{
		EventKindGap:         decimal.RequireFromString("0.30"),
		EventKindSpoofing:    decimal.RequireFromString("0.25"),
		EventKindSTSTransfer: decimal.RequireFromString("0.20"),
		EventKindConvoy:      decimal.RequireFromString("0.15"),
		EventKindLoitering:   decimal.RequireFromString("0.10"),
	}

	// SanctionsBonus is the fixed contribution added when the vessel's owner
	// cluster carries sanctions exposure.
	SanctionsBonus = decimal.RequireFromString("15.0")

	// Composite scores are clamped to this range.
	scoreFloor   = decimal.Zero
	scoreCeiling = decimal.NewFromInt(100)
)

// WeightFor returns the policy weight for an event kind. Unknown kinds weigh
// zero so a stale event row can never move a score.
func WeightFor(kind EventKind) decimal.Decimal {
	if w, ok := kindWeights[kind]; ok {
		return w
	}
	return decimal.Zero
}

// clampScore bounds a composite score to [0, 100].
func clampScore(score decimal.Decimal) decimal.Decimal {
	if score.LessThan(scoreFloor) {
		return scoreFloor
	}
	if score.GreaterThan(scoreCeiling) {
		return scoreCeiling
	}
	return score
}
