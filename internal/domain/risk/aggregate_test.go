package risk

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

func mustEvent(t *testing.T, kind EventKind, vessels []vessel.VesselID, component int) *Event {
	t.Helper()
	event, err := NewEvent(kind, vessels, testWindow(), component, nil)
	require.NoError(t, err)
	return event
}

func TestAggregateSingleEvent(t *testing.T) {
	gap := mustEvent(t, EventKindGap, []vessel.VesselID{1}, 80)

	score, err := Aggregate(AggregateInput{
		VesselID: 1,
		Window:   testWindow(),
		Own:      []*Event{gap},
	})
	require.NoError(t, err)

	// 0.30 * 80 = 24.
	assert.True(t, score.Score.Equal(decimal.NewFromInt(24)), "got %s", score.Score)
	assert.Equal(t, TierLow, score.Tier)
	assert.Equal(t, 1.0, score.ChainConfidence)
	assert.Nil(t, score.ChainID)
	assert.False(t, score.SanctionsExposed)

	require.Len(t, score.Components, 1)
	assert.Equal(t, gap.ID, score.Components[0].EventID)
	assert.False(t, score.Components[0].Inherited)
}

func TestAggregateAbsentKindsContributeZero(t *testing.T) {
	loitering := mustEvent(t, EventKindLoitering, []vessel.VesselID{1}, 50)

	score, err := Aggregate(AggregateInput{
		VesselID: 1,
		Window:   testWindow(),
		Own:      []*Event{loitering},
	})
	require.NoError(t, err)

	// Only 0.10 * 50 = 5; the four absent kinds add nothing.
	assert.True(t, score.Score.Equal(decimal.NewFromInt(5)), "got %s", score.Score)
	assert.Equal(t, TierMinimal, score.Tier)
	assert.Len(t, score.Components, 1)
}

func TestAggregateAllKinds(t *testing.T) {
	own := []*Event{
		mustEvent(t, EventKindGap, []vessel.VesselID{1}, 80),
		mustEvent(t, EventKindSpoofing, []vessel.VesselID{1}, 60),
		mustEvent(t, EventKindSTSTransfer, []vessel.VesselID{1, 2}, 50),
		mustEvent(t, EventKindConvoy, []vessel.VesselID{1, 3}, 40),
		mustEvent(t, EventKindLoitering, []vessel.VesselID{1}, 30),
	}

	score, err := Aggregate(AggregateInput{
		VesselID: 1,
		Window:   testWindow(),
		Own:      own,
	})
	require.NoError(t, err)

	// 24 + 15 + 10 + 6 + 3 = 58.
	assert.True(t, score.Score.Equal(decimal.NewFromInt(58)), "got %s", score.Score)
	assert.Equal(t, TierMedium, score.Tier)
	assert.Len(t, score.Components, 5)
}

func TestAggregateSanctionsBonus(t *testing.T) {
	gap := mustEvent(t, EventKindGap, []vessel.VesselID{1}, 80)

	base, err := Aggregate(AggregateInput{VesselID: 1, Window: testWindow(), Own: []*Event{gap}})
	require.NoError(t, err)

	exposed, err := Aggregate(AggregateInput{VesselID: 1, Window: testWindow(), Own: []*Event{gap}, Sanctions: true})
	require.NoError(t, err)

	assert.True(t, exposed.Score.Sub(base.Score).Equal(SanctionsBonus))
	assert.True(t, exposed.SanctionsExposed)

	// Sanctions alone, with no events at all, still surface as the bonus.
	only, err := Aggregate(AggregateInput{VesselID: 1, Window: testWindow(), Sanctions: true})
	require.NoError(t, err)
	assert.True(t, only.Score.Equal(SanctionsBonus))
	assert.Empty(t, only.Components)
}

func TestAggregateClampsAtCeiling(t *testing.T) {
	own := []*Event{
		mustEvent(t, EventKindGap, []vessel.VesselID{1}, 100),
		mustEvent(t, EventKindGap, []vessel.VesselID{1}, 100),
		mustEvent(t, EventKindGap, []vessel.VesselID{1}, 100),
		mustEvent(t, EventKindGap, []vessel.VesselID{1}, 100),
	}

	score, err := Aggregate(AggregateInput{VesselID: 1, Window: testWindow(), Own: own})
	require.NoError(t, err)

	// 4 * 30 = 120, clamped.
	assert.True(t, score.Score.Equal(decimal.NewFromInt(100)), "got %s", score.Score)
	assert.Equal(t, TierCritical, score.Tier)
}

func TestAggregateDiscountsInheritedByChainConfidence(t *testing.T) {
	own := mustEvent(t, EventKindGap, []vessel.VesselID{1}, 80)
	inherited := mustEvent(t, EventKindGap, []vessel.VesselID{2}, 80)
	chain := &ChainRef{ID: uuid.New(), Confidence: 0.5}

	score, err := Aggregate(AggregateInput{
		VesselID:  1,
		Window:    testWindow(),
		Own:       []*Event{own},
		Inherited: []*Event{inherited},
		Chain:     chain,
	})
	require.NoError(t, err)

	// Own 24 at full weight, inherited 24 * 0.5 = 12.
	assert.True(t, score.Score.Equal(decimal.NewFromInt(36)), "got %s", score.Score)
	require.NotNil(t, score.ChainID)
	assert.Equal(t, chain.ID, *score.ChainID)
	assert.Equal(t, 0.5, score.ChainConfidence)

	require.Len(t, score.Components, 2)
	for _, comp := range score.Components {
		if comp.Inherited {
			assert.Equal(t, vessel.VesselID(2), comp.SourceVessel)
			assert.True(t, comp.Weighted.Equal(decimal.NewFromInt(12)), "got %s", comp.Weighted)
		} else {
			assert.Equal(t, vessel.VesselID(1), comp.SourceVessel)
			assert.True(t, comp.Weighted.Equal(decimal.NewFromInt(24)), "got %s", comp.Weighted)
		}
	}
}

func TestAggregateIdempotent(t *testing.T) {
	own := []*Event{
		mustEvent(t, EventKindSpoofing, []vessel.VesselID{1}, 70),
		mustEvent(t, EventKindGap, []vessel.VesselID{1}, 55),
	}
	inherited := []*Event{mustEvent(t, EventKindLoitering, []vessel.VesselID{3}, 45)}
	chain := &ChainRef{ID: uuid.New(), Confidence: 0.75}

	first, err := Aggregate(AggregateInput{
		VesselID: 1, Window: testWindow(), Own: own, Inherited: inherited, Chain: chain, Sanctions: true,
	})
	require.NoError(t, err)

	// Same inputs, events presented in a different order.
	second, err := Aggregate(AggregateInput{
		VesselID: 1, Window: testWindow(), Own: []*Event{own[1], own[0]}, Inherited: inherited, Chain: chain, Sanctions: true,
	})
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.True(t, first.Score.Equal(second.Score))
}

func TestAggregatePairEventCountsForEitherVessel(t *testing.T) {
	sts := mustEvent(t, EventKindSTSTransfer, []vessel.VesselID{1, 2}, 50)

	score, err := Aggregate(AggregateInput{VesselID: 2, Window: testWindow(), Own: []*Event{sts}})
	require.NoError(t, err)

	assert.True(t, score.Score.Equal(decimal.NewFromInt(10)), "got %s", score.Score)
}

func TestAggregateRejectsForeignEvents(t *testing.T) {
	foreign := mustEvent(t, EventKindGap, []vessel.VesselID{9}, 80)

	_, err := Aggregate(AggregateInput{VesselID: 1, Window: testWindow(), Own: []*Event{foreign}})
	require.Error(t, err)
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "EVENT_VESSEL_MISMATCH", appErr.Code)
	assert.Equal(t, domainerrors.ErrorTypeConsistency, appErr.Type)
}

func TestAggregateRejectsInheritedWithoutChain(t *testing.T) {
	inherited := mustEvent(t, EventKindGap, []vessel.VesselID{2}, 80)

	_, err := Aggregate(AggregateInput{VesselID: 1, Window: testWindow(), Inherited: []*Event{inherited}})
	require.Error(t, err)
	assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeConsistency))
}

func TestAggregateRejectsInheritedFromSelf(t *testing.T) {
	selfEvent := mustEvent(t, EventKindGap, []vessel.VesselID{1}, 80)

	_, err := Aggregate(AggregateInput{
		VesselID:  1,
		Window:    testWindow(),
		Inherited: []*Event{selfEvent},
		Chain:     &ChainRef{ID: uuid.New(), Confidence: 0.9},
	})
	require.Error(t, err)
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INHERITED_FROM_SELF", appErr.Code)
}

func TestAggregateInputValidation(t *testing.T) {
	_, err := Aggregate(AggregateInput{VesselID: 0, Window: testWindow()})
	assert.Error(t, err)

	_, err = Aggregate(AggregateInput{VesselID: 1, Window: values.TimeWindow{}})
	assert.Error(t, err)
}

func TestAggregateEmptyInputScoresZero(t *testing.T) {
	score, err := Aggregate(AggregateInput{VesselID: 1, Window: testWindow()})
	require.NoError(t, err)

	assert.True(t, score.Score.IsZero())
	assert.Equal(t, TierMinimal, score.Tier)
	assert.Empty(t, score.Components)
}
