package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/risk"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

// EventRepository stores externally detected risk events. It serves both the
// scoring read path and the ingest write path.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates a new PostgreSQL event repository
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// SaveEvent persists one detection event.
func (r *EventRepository) SaveEvent(ctx context.Context, event *risk.Event) error {
	evidence, err := json.Marshal(event.Evidence)
	if err != nil {
		return errors.NewInternalError("failed to marshal event evidence").WithCause(err)
	}

	vessels := make([]int64, len(event.Vessels))
	for i, v := range event.Vessels {
		vessels[i] = int64(v)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO risk_events (id, kind, vessels, window_start, window_end,
		                         component, evidence, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, event.ID, string(event.Kind), vessels, event.Window.Start(), event.Window.End(),
		event.Component, evidence, event.DetectedAt)
	if err != nil {
		return errors.NewInternalError("failed to insert risk event").WithCause(err)
	}

	return nil
}

// GetEvent returns the stored event.
func (r *EventRepository) GetEvent(ctx context.Context, eventID uuid.UUID) (*risk.Event, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, kind, vessels, window_start, window_end, component, evidence, detected_at
		FROM risk_events
		WHERE id = $1
	`, eventID)
	if err != nil {
		return nil, errors.NewInternalError("failed to query risk event").WithCause(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, errors.NewInternalError("failed to read event row").WithCause(err)
		}
		return nil, errors.NewNotFoundError("risk event")
	}

	return scanEvent(rows)
}

// ListEventsForVessel returns every event involving the vessel whose window
// overlaps the given one, earliest first.
func (r *EventRepository) ListEventsForVessel(ctx context.Context, vesselID vessel.VesselID, window values.TimeWindow) ([]*risk.Event, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, kind, vessels, window_start, window_end, component, evidence, detected_at
		FROM risk_events
		WHERE $1 = ANY(vessels)
		  AND window_start <= $3
		  AND window_end >= $2
		ORDER BY window_start, id
	`, int64(vesselID), window.Start(), window.End())
	if err != nil {
		return nil, errors.NewInternalError("failed to list events for vessel").WithCause(err)
	}
	defer rows.Close()

	var events []*risk.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternalError("failed to read event rows").WithCause(err)
	}

	return events, nil
}

// ListActiveVessels returns every vessel named by an event overlapping the
// window, ascending.
func (r *EventRepository) ListActiveVessels(ctx context.Context, window values.TimeWindow) ([]vessel.VesselID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT unnest(vessels) AS vessel_id
		FROM risk_events
		WHERE window_start <= $2
		  AND window_end >= $1
		ORDER BY vessel_id
	`, window.Start(), window.End())
	if err != nil {
		return nil, errors.NewInternalError("failed to list active vessels").WithCause(err)
	}
	defer rows.Close()

	var vessels []vessel.VesselID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewInternalError("failed to scan vessel id").WithCause(err)
		}
		vessels = append(vessels, vessel.VesselID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternalError("failed to read vessel rows").WithCause(err)
	}

	return vessels, nil
}

func scanEvent(rows pgx.Rows) (*risk.Event, error) {
	var (
		event      risk.Event
		kind       string
		vessels    []int64
		start, end time.Time
		evidence   []byte
	)
	err := rows.Scan(&event.ID, &kind, &vessels, &start, &end,
		&event.Component, &evidence, &event.DetectedAt)
	if err != nil {
		return nil, errors.NewInternalError("failed to scan risk event").WithCause(err)
	}

	event.Kind = risk.EventKind(kind)
	event.Vessels = make([]vessel.VesselID, len(vessels))
	for i, v := range vessels {
		event.Vessels[i] = vessel.VesselID(v)
	}

	window, err := values.NewTimeWindow(start, end)
	if err != nil {
		return nil, errors.NewInternalError("stored event window is invalid").WithCause(err)
	}
	event.Window = window

	if err := unmarshalEvidence(evidence, &event.Evidence); err != nil {
		return nil, err
	}

	return &event, nil
}
