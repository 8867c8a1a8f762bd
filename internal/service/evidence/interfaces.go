package evidence

import (
	"context"

	"github.com/google/uuid"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/evidence"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/identity"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/ownership"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/risk"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

// Service exports evidence cards. Each export freezes the event, its
// freshly computed score, the current merge chain, and the owning clusters
// into an immutable versioned card; re-exporting the same event appends the
// next version.
type Service interface {
	// Export renders and stores a new card for the event.
	Export(ctx context.Context, input ExportInput) (*evidence.Card, error)

	// GetCard returns one stored card.
	GetCard(ctx context.Context, cardID uuid.UUID) (*evidence.Card, error)

	// ListVersions returns every card exported for the event, oldest first.
	ListVersions(ctx context.Context, eventID uuid.UUID) ([]*evidence.Card, error)
}

// Repository is the storage boundary for cards.
type Repository interface {
	// MaxVersion returns the highest version exported for the event, or 0
	// when none exists.
	MaxVersion(ctx context.Context, eventID uuid.UUID) (int, error)

	// SaveCard persists a card. Persisting an (event, version) pair twice
	// is a conflict.
	SaveCard(ctx context.Context, card *evidence.Card) error

	// GetCard returns the stored card or a not-found error.
	GetCard(ctx context.Context, cardID uuid.UUID) (*evidence.Card, error)

	// ListVersions returns the event's cards ordered by version.
	ListVersions(ctx context.Context, eventID uuid.UUID) ([]*evidence.Card, error)
}

// EventSource supplies the detection event being exported.
type EventSource interface {
	GetEvent(ctx context.Context, eventID uuid.UUID) (*risk.Event, error)
}

// Aggregator computes the score frozen into the card. The risk scoring
// service satisfies this.
type Aggregator interface {
	AggregateIncident(ctx context.Context, eventID uuid.UUID) (*risk.CompositeScore, error)
}

// ChainResolver supplies the subject's current merge chain. The identity
// graph service satisfies this.
type ChainResolver interface {
	CurrentChainFor(ctx context.Context, vesselID vessel.VesselID) (*identity.MergeChain, error)
}

// ClusterSource supplies the clusters owning the subject vessel.
type ClusterSource interface {
	ClustersForVessel(ctx context.Context, vesselID vessel.VesselID) ([]*ownership.OwnerCluster, error)
}

// BlobStore writes rendered card bodies. Put returns the final storage path.
type BlobStore interface {
	Put(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// ExportInput identifies what to export and how to render it.
type ExportInput struct {
	EventID uuid.UUID
	// Format defaults to JSON when empty.
	Format values.ExportFormat
}
