package risk

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

// SeverityTier buckets a composite score for consumers that act on coarse
// levels (alerting, triage queues) rather than raw numbers.
type SeverityTier string

const (
	TierMinimal  SeverityTier = "minimal"
	TierLow      SeverityTier = "low"
	TierMedium   SeverityTier = "medium"
	TierHigh     SeverityTier = "high"
	TierCritical SeverityTier = "critical"
)

// tierCutoff is one row of the severity ladder, walked top-down.
type tierCutoff struct {
	threshold decimal.Decimal
	tier      SeverityTier
}

var tierCutoffs = []tierCutoff{
	{threshold: decimal.NewFromInt(80), tier: TierCritical},
	{threshold: decimal.NewFromInt(60), tier: TierHigh},
	{threshold: decimal.NewFromInt(40), tier: TierMedium},
	{threshold: decimal.NewFromInt(20), tier: TierLow},
}

// TierForScore maps a composite score to its severity tier.
func TierForScore(score decimal.Decimal) SeverityTier {
	for _, cutoff := range tierCutoffs {
		if score.GreaterThanOrEqual(cutoff.threshold) {
			return cutoff.tier
		}
	}
	return TierMinimal
}

// ScoreComponent is one event's contribution to a composite score, retained
// so a reviewer can decompose the number. Weighted already includes the
// chain-confidence discount for inherited components.
type ScoreComponent struct {
	EventID      uuid.UUID       `json:"event_id"`
	Kind         EventKind       `json:"kind"`
	SourceVessel vessel.VesselID `json:"source_vessel"`
	Raw          int             `json:"raw"`
	Weighted     decimal.Decimal `json:"weighted"`
	Inherited    bool            `json:"inherited"`
}

// CompositeScore is the aggregator's output for one vessel and window: the
// weighted combination of every applicable event component, cross-identity
// history through the current merge chain, and owner sanctions exposure.
type CompositeScore struct {
	VesselID         vessel.VesselID   `json:"vessel_id"`
	Window           values.TimeWindow `json:"window"`
	Score            decimal.Decimal   `json:"score"`
	Tier             SeverityTier      `json:"tier"`
	Components       []ScoreComponent  `json:"components"`
	ChainID          *uuid.UUID        `json:"chain_id,omitempty"`
	ChainConfidence  float64           `json:"chain_confidence"`
	SanctionsExposed bool              `json:"sanctions_exposed"`
	ComputedAt       time.Time         `json:"computed_at"`
}

// Equal compares the score-relevant fields, ignoring ComputedAt. Two runs
// over the same inputs must compare equal; the aggregation tests lean on
// this.
func (cs *CompositeScore) Equal(other *CompositeScore) bool {
	if cs.VesselID != other.VesselID ||
		!cs.Window.Equal(other.Window) ||
		!cs.Score.Equal(other.Score) ||
		cs.Tier != other.Tier ||
		cs.ChainConfidence != other.ChainConfidence ||
		cs.SanctionsExposed != other.SanctionsExposed ||
		len(cs.Components) != len(other.Components) {
		return false
	}

	for i := range cs.Components {
		a, b := cs.Components[i], other.Components[i]
		if a.EventID != b.EventID || a.Kind != b.Kind || a.SourceVessel != b.SourceVessel ||
			a.Raw != b.Raw || !a.Weighted.Equal(b.Weighted) || a.Inherited != b.Inherited {
			return false
		}
	}
	return true
}
