package risk

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

// ChainRef carries the two chain facts aggregation needs, decoupled from the
// identity package: which chain linked the history in, and how much to trust
// it.
type ChainRef struct {
	ID         uuid.UUID
	Confidence float64
}

// AggregateInput is one scoring request: the subject's own events, events
// inherited from chain-linked prior identities, the chain that linked them,
// and the owner-cluster sanctions verdict. The caller resolves all of it
// through the data-access boundary; aggregation itself performs no I/O.
type AggregateInput struct {
	VesselID  vessel.VesselID
	Window    values.TimeWindow
	Own       []*Event
	Inherited []*Event
	Chain     *ChainRef
	Sanctions bool
}

// Aggregate combines event components into one composite score.
//
// Every event contributes its kind weight times its raw component; inherited
// components are additionally discounted by the chain confidence, so a
// LOW-confidence merge cannot let a prior identity's history dominate at
// full weight. Sanctions exposure adds a fixed bonus. Kinds with no events
// simply contribute nothing. The result is clamped to [0, 100] and mapped to
// a severity tier.
//
// The function is pure and decimal-exact: identical inputs produce identical
// scores regardless of event order, which makes recomputation idempotent.
func Aggregate(input AggregateInput) (*CompositeScore, error) {
	if input.VesselID <= 0 {
		return nil, errors.NewValidationError("INVALID_VESSEL_ID",
			"aggregation subject must be a positive vessel ID")
	}
	if input.Window.IsZero() {
		return nil, errors.NewValidationError("MISSING_WINDOW",
			"aggregation requires a time window")
	}

	for _, event := range input.Own {
		if !event.Involves(input.VesselID) {
			return nil, errors.NewConsistencyError("EVENT_VESSEL_MISMATCH",
				fmt.Sprintf("event %s does not reference requested vessel %d", event.ID, input.VesselID))
		}
	}

	// No chain means the identity is its own singleton with full confidence,
	// and there is nowhere inherited history could have come from.
	confidence := 1.0
	var chainID *uuid.UUID
	if input.Chain != nil {
		confidence = input.Chain.Confidence
		id := input.Chain.ID
		chainID = &id
	} else if len(input.Inherited) > 0 {
		return nil, errors.NewConsistencyError("INHERITED_WITHOUT_CHAIN",
			fmt.Sprintf("vessel %d has inherited events but no merge chain", input.VesselID))
	}

	for _, event := range input.Inherited {
		if event.Involves(input.VesselID) {
			return nil, errors.NewConsistencyError("INHERITED_FROM_SELF",
				fmt.Sprintf("event %s is attributed to vessel %d itself, not a prior identity", event.ID, input.VesselID))
		}
	}

	discount := decimal.NewFromFloat(confidence)
	components := make([]ScoreComponent, 0, len(input.Own)+len(input.Inherited))
	total := decimal.Zero

	for _, event := range input.Own {
		weighted := WeightFor(event.Kind).Mul(decimal.NewFromInt(int64(event.Component)))
		total = total.Add(weighted)
		components = append(components, ScoreComponent{
			EventID:      event.ID,
			Kind:         event.Kind,
			SourceVessel: input.VesselID,
			Raw:          event.Component,
			Weighted:     weighted,
			Inherited:    false,
		})
	}

	for _, event := range input.Inherited {
		weighted := WeightFor(event.Kind).
			Mul(decimal.NewFromInt(int64(event.Component))).
			Mul(discount)
		total = total.Add(weighted)
		components = append(components, ScoreComponent{
			EventID:      event.ID,
			Kind:         event.Kind,
			SourceVessel: event.Subject(),
			Raw:          event.Component,
			Weighted:     weighted,
			Inherited:    true,
		})
	}

	if input.Sanctions {
		total = total.Add(SanctionsBonus)
	}

	total = clampScore(total)
	sortComponents(components)

	return &CompositeScore{
		VesselID:         input.VesselID,
		Window:           input.Window,
		Score:            total,
		Tier:             TierForScore(total),
		Components:       components,
		ChainID:          chainID,
		ChainConfidence:  confidence,
		SanctionsExposed: input.Sanctions,
		ComputedAt:       time.Now().UTC(),
	}, nil
}

// sortComponents fixes the decomposition order (kind, then event ID) so two
// aggregations over the same inputs are comparable field by field.
func sortComponents(components []ScoreComponent) {
	sort.Slice(components, func(i, j int) bool {
		if components[i].Kind != components[j].Kind {
			return components[i].Kind < components[j].Kind
		}
		return components[i].EventID.String() < components[j].EventID.String()
	})
}
