package evidence

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/identity"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/ownership"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/risk"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
)

// Snapshot freezes everything a reviewer needs to assess one incident at
// export time: the aggregated score, the chain and cluster context it was
// computed under, and the source event's own evidence. Later recomputes
// never touch an existing snapshot; they produce a new card version.
type Snapshot struct {
	SourceEvent *risk.Event               `json:"source_event"`
	Score       *risk.CompositeScore      `json:"score"`
	Chain       *identity.MergeChain      `json:"chain,omitempty"`
	Clusters    []*ownership.OwnerCluster `json:"owner_clusters,omitempty"`
}

// Card is one immutable export record for a source event. Versions count up
// from 1 per source event; a re-export appends the next version rather than
// overwriting.
type Card struct {
	ID            uuid.UUID           `json:"id"`
	SourceEventID uuid.UUID           `json:"source_event_id"`
	Version       int                 `json:"version"`
	Format        values.ExportFormat `json:"export_format"`
	StoragePath   string              `json:"storage_path"`
	Snapshot      Snapshot            `json:"snapshot"`
	CreatedAt     time.Time           `json:"created_at"`
}

// NewCard creates an evidence card with validation
func NewCard(sourceEventID uuid.UUID, version int, format values.ExportFormat, storagePath string, snapshot Snapshot) (*Card, error) {
	if sourceEventID == uuid.Nil {
		return nil, errors.NewValidationError("MISSING_SOURCE_EVENT",
			"card must reference a source event")
	}

	if version < 1 {
		return nil, errors.NewValidationError("INVALID_VERSION",
			"card versions start at 1")
	}

	if format.IsEmpty() {
		return nil, errors.NewValidationError("MISSING_FORMAT",
			"card must carry an export format")
	}

	if strings.TrimSpace(storagePath) == "" {
		return nil, errors.NewValidationError("MISSING_STORAGE_PATH",
			"card must carry a storage path")
	}

	if snapshot.SourceEvent == nil || snapshot.Score == nil {
		return nil, errors.NewValidationError("INCOMPLETE_SNAPSHOT",
			"card snapshot must include the source event and its score")
	}

	if snapshot.SourceEvent.ID != sourceEventID {
		return nil, errors.NewConsistencyError("SNAPSHOT_EVENT_MISMATCH",
			"card snapshot captures a different source event")
	}

	return &Card{
		ID:            uuid.New(),
		SourceEventID: sourceEventID,
		Version:       version,
		Format:        format,
		StoragePath:   storagePath,
		Snapshot:      snapshot,
		CreatedAt:     time.Now().UTC(),
	}, nil
}
