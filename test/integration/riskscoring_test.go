//go:build integration

package integration

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/ownership"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/risk"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
	"github.com/blueharbor/maritime-risk-engine/internal/infrastructure/repository"
	"github.com/blueharbor/maritime-risk-engine/internal/service/identitygraph"
	"github.com/blueharbor/maritime-risk-engine/internal/service/ownercluster"
	"github.com/blueharbor/maritime-risk-engine/internal/service/riskscoring"
	"github.com/blueharbor/maritime-risk-engine/internal/testutil"
	"github.com/blueharbor/maritime-risk-engine/internal/testutil/fixtures"
)

// TestRiskScoring_AggregateAcrossChain runs the full scoring path on real
// storage: the subject's own event at full weight, a prior identity's event
// discounted by chain confidence, and the owner sanctions bonus on top.
func TestRiskScoring_AggregateAcrossChain(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	ctx := testutil.TestContext(t)

	chainRepo := repository.NewChainRepository(testDB.Pool())
	ownerRepo := repository.NewOwnerRepository(testDB.Pool())
	eventRepo := repository.NewEventRepository(testDB.Pool())

	graph := identitygraph.NewService(chainRepo)
	owners := ownercluster.NewService(ownerRepo, ownership.DefaultMatchPolicy)
	scoring := riskscoring.NewService(eventRepo, graph, owners, nil)

	// Vessel 1 is a re-flag of vessel 2, linked at half confidence.
	_, err := graph.AddCandidate(ctx, fixtures.NewCandidateBuilder(t).
		WithVessels(1, 2).
		WithScore(0.5).
		Build())
	require.NoError(t, err)

	_, err = owners.UpsertOwner(ctx, fixtures.NewOwnerBuilder(t).
		WithOwnerID(7).
		WithVessel(1).
		WithName("Crimson Wave Holdings").
		WithCountry("PA").
		Sanctioned().
		Build())
	require.NoError(t, err)

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	ownEvent := fixtures.NewEventBuilder(t).
		WithKind(risk.EventKindGap).
		WithVessels(1).
		WithWindow(start, 6*time.Hour).
		WithComponent(40).
		Build()
	require.NoError(t, eventRepo.SaveEvent(ctx, ownEvent))

	inheritedEvent := fixtures.NewEventBuilder(t).
		WithKind(risk.EventKindSTSTransfer).
		WithVessels(2, 9).
		WithWindow(start.Add(12*time.Hour), 2*time.Hour).
		WithComponent(50).
		Build()
	require.NoError(t, eventRepo.SaveEvent(ctx, inheritedEvent))

	window := testutil.Window(t, start, start.Add(48*time.Hour))

	score, err := scoring.AggregateVessel(ctx, 1, window)
	require.NoError(t, err)

	// gap 0.30*40 + sts 0.20*50 discounted by 0.5, plus the sanctions bonus.
	assert.True(t, score.Score.Equal(decimal.RequireFromString("32")),
		"expected 32, got %s", score.Score)
	assert.Equal(t, risk.TierLow, score.Tier)
	assert.True(t, score.SanctionsExposed)
	assert.Equal(t, 0.5, score.ChainConfidence)
	require.NotNil(t, score.ChainID)

	require.Len(t, score.Components, 2)
	own := score.Components[0]
	assert.Equal(t, risk.EventKindGap, own.Kind)
	assert.Equal(t, 40, own.Raw)
	assert.False(t, own.Inherited)
	assert.Equal(t, vessel.VesselID(1), own.SourceVessel)

	inherited := score.Components[1]
	assert.Equal(t, risk.EventKindSTSTransfer, inherited.Kind)
	assert.Equal(t, 50, inherited.Raw)
	assert.True(t, inherited.Inherited)
	assert.Equal(t, vessel.VesselID(2), inherited.SourceVessel)
	assert.True(t, inherited.Weighted.Equal(decimal.RequireFromString("5")))

	// Recomputing over the same stored state lands on the same score.
	again, err := scoring.AggregateVessel(ctx, 1, window)
	require.NoError(t, err)
	assert.True(t, score.Equal(again))
}

// TestRiskScoring_SingletonVessel scores a vessel with no merge chain: it is
// its own identity at full confidence and inherits nothing.
func TestRiskScoring_SingletonVessel(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	ctx := testutil.TestContext(t)

	eventRepo := repository.NewEventRepository(testDB.Pool())
	graph := identitygraph.NewService(repository.NewChainRepository(testDB.Pool()))
	owners := ownercluster.NewService(repository.NewOwnerRepository(testDB.Pool()), ownership.DefaultMatchPolicy)
	scoring := riskscoring.NewService(eventRepo, graph, owners, nil)

	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	event := fixtures.NewEventBuilder(t).
		WithKind(risk.EventKindGap).
		WithVessels(7).
		WithWindow(start, 4*time.Hour).
		WithComponent(60).
		Build()
	require.NoError(t, eventRepo.SaveEvent(ctx, event))

	score, err := scoring.AggregateVessel(ctx, 7, testutil.Window(t, start, start.Add(24*time.Hour)))
	require.NoError(t, err)

	assert.True(t, score.Score.Equal(decimal.RequireFromString("18")))
	assert.Equal(t, risk.TierMinimal, score.Tier)
	assert.Nil(t, score.ChainID)
	assert.Equal(t, 1.0, score.ChainConfidence)
	assert.False(t, score.SanctionsExposed)
}

// TestEventRepository_WindowQueries pins the overlap semantics the scoring
// reads depend on.
func TestEventRepository_WindowQueries(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	ctx := testutil.TestContext(t)

	eventRepo := repository.NewEventRepository(testDB.Pool())
	start := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

	inside := fixtures.NewEventBuilder(t).
		WithVessels(3).
		WithWindow(start.Add(2*time.Hour), time.Hour).
		WithComponent(30).
		Build()
	straddling := fixtures.NewEventBuilder(t).
		WithKind(risk.EventKindLoitering).
		WithVessels(3).
		WithWindow(start.Add(-time.Hour), 3*time.Hour).
		WithComponent(20).
		WithEvidence(map[string]interface{}{"anchor_zone": "OPL Fujairah"}).
		Build()
	outside := fixtures.NewEventBuilder(t).
		WithVessels(3).
		WithWindow(start.Add(72*time.Hour), time.Hour).
		WithComponent(10).
		Build()
	pair := fixtures.NewEventBuilder(t).
		WithKind(risk.EventKindConvoy).
		WithVessels(4, 5).
		WithWindow(start.Add(time.Hour), time.Hour).
		WithComponent(25).
		Build()

	for _, e := range []*risk.Event{inside, straddling, outside, pair} {
		require.NoError(t, eventRepo.SaveEvent(ctx, e))
	}

	window := testutil.Window(t, start, start.Add(24*time.Hour))

	events, err := eventRepo.ListEventsForVessel(ctx, 3, window)
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Earliest window first; the out-of-window event never shows.
	assert.Equal(t, straddling.ID, events[0].ID)
	assert.Equal(t, inside.ID, events[1].ID)
	assert.Equal(t, "OPL Fujairah", events[0].Evidence["anchor_zone"])

	active, err := eventRepo.ListActiveVessels(ctx, window)
	require.NoError(t, err)
	assert.Equal(t, []vessel.VesselID{3, 4, 5}, active)

	got, err := eventRepo.GetEvent(ctx, pair.ID)
	require.NoError(t, err)
	assert.Equal(t, []vessel.VesselID{4, 5}, got.Vessels)
	assert.Equal(t, risk.EventKindConvoy, got.Kind)
	assert.True(t, got.Window.Equal(pair.Window))

	_, err = eventRepo.GetEvent(ctx, testutil.GenerateUUID(t))
	assert.True(t, errors.IsNotFound(err))
}
