package repository

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/evidence"
)

// pgUniqueViolation is the PostgreSQL error code raised when an insert lands
// on an existing (source_event_id, version) pair.
const pgUniqueViolation = "23505"

// CardRepository implements the evidence.Repository interface over
// PostgreSQL. Card rows are append-only; the unique (event, version) index
// backstops the exporter's version allocation.
type CardRepository struct {
	db *pgxpool.Pool
}

// NewCardRepository creates a new PostgreSQL evidence card repository
func NewCardRepository(db *pgxpool.Pool) *CardRepository {
	return &CardRepository{db: db}
}

// MaxVersion returns the highest version exported for the event, 0 when none.
func (r *CardRepository) MaxVersion(ctx context.Context, eventID uuid.UUID) (int, error) {
	var version int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(version), 0)
		FROM evidence_cards
		WHERE source_event_id = $1
	`, eventID).Scan(&version)
	if err != nil {
		return 0, errors.NewInternalError("failed to query max card version").WithCause(err)
	}

	return version, nil
}

// SaveCard persists one evidence card.
func (r *CardRepository) SaveCard(ctx context.Context, card *evidence.Card) error {
	snapshot, err := json.Marshal(card.Snapshot)
	if err != nil {
		return errors.NewInternalError("failed to marshal card snapshot").WithCause(err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO evidence_cards (id, source_event_id, version, format,
		                            storage_path, snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, card.ID, card.SourceEventID, card.Version, card.Format.String(),
		card.StoragePath, snapshot, card.CreatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == pgUniqueViolation {
			return errors.ErrDuplicateCard
		}
		return errors.NewInternalError("failed to insert evidence card").WithCause(err)
	}

	return nil
}

// GetCard returns the stored card.
func (r *CardRepository) GetCard(ctx context.Context, cardID uuid.UUID) (*evidence.Card, error) {
	card, err := scanCard(r.db.QueryRow(ctx, `
		SELECT id, source_event_id, version, format, storage_path, snapshot, created_at
		FROM evidence_cards
		WHERE id = $1
	`, cardID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NewNotFoundError("evidence card")
		}
		return nil, errors.NewInternalError("failed to get evidence card").WithCause(err)
	}

	return card, nil
}

// ListVersions returns every card for the event, ascending by version.
func (r *CardRepository) ListVersions(ctx context.Context, eventID uuid.UUID) ([]*evidence.Card, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, source_event_id, version, format, storage_path, snapshot, created_at
		FROM evidence_cards
		WHERE source_event_id = $1
		ORDER BY version
	`, eventID)
	if err != nil {
		return nil, errors.NewInternalError("failed to list card versions").WithCause(err)
	}
	defer rows.Close()

	var cards []*evidence.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, errors.NewInternalError("failed to scan evidence card").WithCause(err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternalError("failed to read card rows").WithCause(err)
	}

	return cards, nil
}

func scanCard(row pgx.Row) (*evidence.Card, error) {
	var (
		card     evidence.Card
		snapshot []byte
	)
	err := row.Scan(&card.ID, &card.SourceEventID, &card.Version, &card.Format,
		&card.StoragePath, &snapshot, &card.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(snapshot, &card.Snapshot); err != nil {
		return nil, errors.NewInternalError("failed to unmarshal card snapshot").WithCause(err)
	}

	return &card, nil
}
