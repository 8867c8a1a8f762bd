package evidence

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/evidence"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/identity"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/ownership"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/risk"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

type exportFixture struct {
	repo       *mockRepo
	events     *mockEventSource
	aggregator *mockAggregator
	chains     *mockChainResolver
	clusters   *mockClusterSource
	blobs      *mockBlobStore
	svc        Service

	event *risk.Event
	score *risk.CompositeScore
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	window, err := values.NewTimeWindow(start, start.Add(12*time.Hour))
	require.NoError(t, err)

	event, err := risk.NewEvent(risk.EventKindGap, []vessel.VesselID{7}, window, 80, nil)
	require.NoError(t, err)

	f := &exportFixture{
		repo:       new(mockRepo),
		events:     new(mockEventSource),
		aggregator: new(mockAggregator),
		chains:     new(mockChainResolver),
		clusters:   new(mockClusterSource),
		blobs:      new(mockBlobStore),
		event:      event,
		score: &risk.CompositeScore{
			VesselID:        7,
			Window:          window,
			Score:           decimal.RequireFromString("24"),
			Tier:            risk.TierLow,
			ChainConfidence: 1.0,
		},
	}
	f.svc = NewService(f.repo, f.events, f.aggregator, f.chains, f.clusters, f.blobs)
	return f
}

func TestService_ExportFirstVersion(t *testing.T) {
	ctx := context.Background()
	f := newExportFixture(t)

	f.events.On("GetEvent", ctx, f.event.ID).Return(f.event, nil)
	f.aggregator.On("AggregateIncident", ctx, f.event.ID).Return(f.score, nil)
	f.chains.On("CurrentChainFor", ctx, vessel.VesselID(7)).Return(nil, domainerrors.ErrChainNotFound)
	f.clusters.On("ClustersForVessel", ctx, vessel.VesselID(7)).Return([]*ownership.OwnerCluster{}, nil)
	f.repo.On("MaxVersion", ctx, f.event.ID).Return(0, nil)

	var putPath, putContentType string
	var putBody []byte
	f.blobs.On("Put", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			putPath = args.Get(1).(string)
			putContentType = args.Get(2).(string)
			putBody = args.Get(3).([]byte)
		}).
		Return("blob://cards/"+f.event.ID.String()+"/v1.json", nil)

	var saved *evidence.Card
	f.repo.On("SaveCard", ctx, mock.AnythingOfType("*evidence.Card")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*evidence.Card) }).
		Return(nil)

	card, err := f.svc.Export(ctx, ExportInput{EventID: f.event.ID})
	require.NoError(t, err)

	assert.Equal(t, f.event.ID, card.SourceEventID)
	assert.Equal(t, 1, card.Version)
	assert.Equal(t, values.JSONFormat(), card.Format)
	assert.Equal(t, "blob://cards/"+f.event.ID.String()+"/v1.json", card.StoragePath)
	assert.Nil(t, card.Snapshot.Chain)
	require.NotNil(t, card.Snapshot.Score)
	assert.Equal(t, "24", card.Snapshot.Score.Score.String())

	assert.Equal(t, "cards/"+f.event.ID.String()+"/v1.json", putPath)
	assert.Equal(t, "application/json", putContentType)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(putBody, &doc))
	assert.Contains(t, doc, "source_event")
	assert.Contains(t, doc, "score")

	require.NotNil(t, saved)
	assert.Equal(t, card.ID, saved.ID)
	f.repo.AssertExpectations(t)
}

func TestService_ExportAppendsNextVersion(t *testing.T) {
	ctx := context.Background()
	f := newExportFixture(t)

	f.events.On("GetEvent", ctx, f.event.ID).Return(f.event, nil)
	f.aggregator.On("AggregateIncident", ctx, f.event.ID).Return(f.score, nil)
	f.chains.On("CurrentChainFor", ctx, vessel.VesselID(7)).Return(nil, domainerrors.ErrChainNotFound)
	f.clusters.On("ClustersForVessel", ctx, vessel.VesselID(7)).Return([]*ownership.OwnerCluster{}, nil)
	f.repo.On("MaxVersion", ctx, f.event.ID).Return(2, nil)
	f.blobs.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return("blob://v3", nil)
	f.repo.On("SaveCard", ctx, mock.AnythingOfType("*evidence.Card")).Return(nil)

	card, err := f.svc.Export(ctx, ExportInput{EventID: f.event.ID})
	require.NoError(t, err)

	// Prior exports are never overwritten.
	assert.Equal(t, 3, card.Version)
	f.blobs.AssertCalled(t, "Put", ctx, "cards/"+f.event.ID.String()+"/v3.json", "application/json", mock.Anything)
}

func TestService_ExportCSV(t *testing.T) {
	ctx := context.Background()
	f := newExportFixture(t)

	cluster := ownership.NewSingletonCluster(mustOwner(t, 1, 7, "Acme Shipping Ltd", "PA", true))
	chain := testChain(t, 0.9, 7, 8)

	f.events.On("GetEvent", ctx, f.event.ID).Return(f.event, nil)
	f.aggregator.On("AggregateIncident", ctx, f.event.ID).Return(f.score, nil)
	f.chains.On("CurrentChainFor", ctx, vessel.VesselID(7)).Return(chain, nil)
	f.clusters.On("ClustersForVessel", ctx, vessel.VesselID(7)).Return([]*ownership.OwnerCluster{cluster}, nil)
	f.repo.On("MaxVersion", ctx, f.event.ID).Return(0, nil)

	var putPath, putContentType string
	var putBody []byte
	f.blobs.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			putPath = args.Get(1).(string)
			putContentType = args.Get(2).(string)
			putBody = args.Get(3).([]byte)
		}).
		Return("blob://v1.csv", nil)
	f.repo.On("SaveCard", ctx, mock.AnythingOfType("*evidence.Card")).Return(nil)

	card, err := f.svc.Export(ctx, ExportInput{EventID: f.event.ID, Format: values.CSVFormat()})
	require.NoError(t, err)

	assert.Equal(t, values.CSVFormat(), card.Format)
	assert.Equal(t, "cards/"+f.event.ID.String()+"/v1.csv", putPath)
	assert.Equal(t, "text/csv", putContentType)

	lines := strings.Split(strings.TrimSpace(string(putBody)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "event_id,event_kind,subject_vessel"))
	assert.Contains(t, lines[1], f.event.ID.String())
	assert.Contains(t, lines[1], chain.ID.String())
}

func TestService_ExportEventNotFound(t *testing.T) {
	ctx := context.Background()
	f := newExportFixture(t)

	missing := uuid.New()
	f.events.On("GetEvent", ctx, missing).Return(nil, domainerrors.NewNotFoundError("risk event"))

	_, err := f.svc.Export(ctx, ExportInput{EventID: missing})
	require.Error(t, err)
	assert.True(t, domainerrors.IsNotFound(err))
	f.repo.AssertNotCalled(t, "MaxVersion", mock.Anything, mock.Anything)
}

func TestService_ExportSaveConflictPropagates(t *testing.T) {
	ctx := context.Background()
	f := newExportFixture(t)

	f.events.On("GetEvent", ctx, f.event.ID).Return(f.event, nil)
	f.aggregator.On("AggregateIncident", ctx, f.event.ID).Return(f.score, nil)
	f.chains.On("CurrentChainFor", ctx, vessel.VesselID(7)).Return(nil, domainerrors.ErrChainNotFound)
	f.clusters.On("ClustersForVessel", ctx, vessel.VesselID(7)).Return([]*ownership.OwnerCluster{}, nil)
	f.repo.On("MaxVersion", ctx, f.event.ID).Return(0, nil)
	f.blobs.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return("blob://v1", nil)
	f.repo.On("SaveCard", ctx, mock.AnythingOfType("*evidence.Card")).Return(domainerrors.ErrDuplicateCard)

	_, err := f.svc.Export(ctx, ExportInput{EventID: f.event.ID})
	require.Error(t, err)
	assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeConflict))
}

func TestService_ExportRejectsMissingEventID(t *testing.T) {
	f := newExportFixture(t)

	_, err := f.svc.Export(context.Background(), ExportInput{})
	require.Error(t, err)
	assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeValidation))
}

func TestService_GetCardAndListVersions(t *testing.T) {
	ctx := context.Background()
	f := newExportFixture(t)

	card := &evidence.Card{ID: uuid.New(), SourceEventID: f.event.ID, Version: 1}
	f.repo.On("GetCard", ctx, card.ID).Return(card, nil)
	f.repo.On("ListVersions", ctx, f.event.ID).Return([]*evidence.Card{card}, nil)

	got, err := f.svc.GetCard(ctx, card.ID)
	require.NoError(t, err)
	assert.Same(t, card, got)

	versions, err := f.svc.ListVersions(ctx, f.event.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)

	_, err = f.svc.GetCard(ctx, uuid.Nil)
	require.Error(t, err)
	assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeValidation))

	_, err = f.svc.ListVersions(ctx, uuid.Nil)
	require.Error(t, err)
	assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeValidation))
}

// helpers

func mustOwner(t *testing.T, ownerID int64, vesselID vessel.VesselID, name, country string, sanctioned bool) *ownership.VesselOwner {
	t.Helper()
	owner, err := ownership.NewVesselOwner(ownerID, vesselID, name, country, sanctioned)
	require.NoError(t, err)
	return owner
}

func testChain(t *testing.T, confidence float64, vessels ...vessel.VesselID) *identity.MergeChain {
	t.Helper()
	candidates := make([]*identity.MergeCandidate, 0, len(vessels)-1)
	for i := 0; i+1 < len(vessels); i++ {
		cand, err := identity.NewMergeCandidate(vessels[i], vessels[i+1], confidence, nil)
		require.NoError(t, err)
		candidates = append(candidates, cand)
	}
	chains := identity.BuildChains(candidates)
	require.Len(t, chains, 1)
	return chains[0]
}

// mocks

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) MaxVersion(ctx context.Context, eventID uuid.UUID) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

func (m *mockRepo) SaveCard(ctx context.Context, card *evidence.Card) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *mockRepo) GetCard(ctx context.Context, cardID uuid.UUID) (*evidence.Card, error) {
	args := m.Called(ctx, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*evidence.Card), args.Error(1)
}

func (m *mockRepo) ListVersions(ctx context.Context, eventID uuid.UUID) ([]*evidence.Card, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*evidence.Card), args.Error(1)
}

type mockEventSource struct {
	mock.Mock
}

func (m *mockEventSource) GetEvent(ctx context.Context, eventID uuid.UUID) (*risk.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*risk.Event), args.Error(1)
}

type mockAggregator struct {
	mock.Mock
}

func (m *mockAggregator) AggregateIncident(ctx context.Context, eventID uuid.UUID) (*risk.CompositeScore, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*risk.CompositeScore), args.Error(1)
}

type mockChainResolver struct {
	mock.Mock
}

func (m *mockChainResolver) CurrentChainFor(ctx context.Context, vesselID vessel.VesselID) (*identity.MergeChain, error) {
	args := m.Called(ctx, vesselID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.MergeChain), args.Error(1)
}

type mockClusterSource struct {
	mock.Mock
}

func (m *mockClusterSource) ClustersForVessel(ctx context.Context, vesselID vessel.VesselID) ([]*ownership.OwnerCluster, error) {
	args := m.Called(ctx, vesselID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ownership.OwnerCluster), args.Error(1)
}

type mockBlobStore struct {
	mock.Mock
}

func (m *mockBlobStore) Put(ctx context.Context, path string, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, path, contentType, data)
	return args.String(0), args.Error(1)
}
