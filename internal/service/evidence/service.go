package evidence

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/evidence"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/identity"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

type service struct {
	repo       Repository
	events     EventSource
	aggregator Aggregator
	chains     ChainResolver
	clusters   ClusterSource
	blobs      BlobStore

	// mu serializes exports so concurrent calls for one event cannot claim
	// the same version. The repository's uniqueness constraint is the
	// backstop.
	mu sync.Mutex
}

// NewService creates an evidence card exporter.
func NewService(repo Repository, events EventSource, aggregator Aggregator, chains ChainResolver, clusters ClusterSource, blobs BlobStore) Service {
	return &service{
		repo:       repo,
		events:     events,
		aggregator: aggregator,
		chains:     chains,
		clusters:   clusters,
		blobs:      blobs,
	}
}

func (s *service) Export(ctx context.Context, input ExportInput) (*evidence.Card, error) {
	if input.EventID == uuid.Nil {
		return nil, errors.NewValidationError("MISSING_EVENT_ID", "event id is required")
	}
	format := input.Format
	if format.IsEmpty() {
		format = values.JSONFormat()
	}

	event, err := s.events.GetEvent(ctx, input.EventID)
	if err != nil {
		return nil, err
	}

	score, err := s.aggregator.AggregateIncident(ctx, input.EventID)
	if err != nil {
		return nil, errors.Wrap(err, "aggregate incident")
	}

	chain, err := s.resolveChain(ctx, event.Subject())
	if err != nil {
		return nil, err
	}

	clusters, err := s.clusters.ClustersForVessel(ctx, event.Subject())
	if err != nil {
		return nil, errors.Wrap(err, "list owner clusters")
	}

	snapshot := evidence.Snapshot{
		SourceEvent: event,
		Score:       score,
		Chain:       chain,
		Clusters:    clusters,
	}

	body, err := renderSnapshot(snapshot, format)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	maxVersion, err := s.repo.MaxVersion(ctx, input.EventID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve card version")
	}
	version := maxVersion + 1

	path := fmt.Sprintf("cards/%s/v%d%s", input.EventID, version, format.Extension())
	storagePath, err := s.blobs.Put(ctx, path, format.MimeType(), body)
	if err != nil {
		return nil, errors.Wrap(err, "store card body")
	}

	card, err := evidence.NewCard(input.EventID, version, format, storagePath, snapshot)
	if err != nil {
		return nil, err
	}

	// A failed save can leave the rendered body behind as an orphan blob;
	// versions stay correct because the card row is the source of truth.
	if err := s.repo.SaveCard(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *service) GetCard(ctx context.Context, cardID uuid.UUID) (*evidence.Card, error) {
	if cardID == uuid.Nil {
		return nil, errors.NewValidationError("MISSING_CARD_ID", "card id is required")
	}
	return s.repo.GetCard(ctx, cardID)
}

func (s *service) ListVersions(ctx context.Context, eventID uuid.UUID) ([]*evidence.Card, error) {
	if eventID == uuid.Nil {
		return nil, errors.NewValidationError("MISSING_EVENT_ID", "event id is required")
	}
	return s.repo.ListVersions(ctx, eventID)
}

// resolveChain returns the subject's current chain, or nil for an unresolved
// vessel.
func (s *service) resolveChain(ctx context.Context, subject vessel.VesselID) (*identity.MergeChain, error) {
	chain, err := s.chains.CurrentChainFor(ctx, subject)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "resolve chain")
	}
	return chain, nil
}
