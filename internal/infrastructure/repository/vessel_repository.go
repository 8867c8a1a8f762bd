package repository

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

// VesselRepository stores registry static data for vessel identities. The
// resolution core itself only writes this table; external detectors read it
// for speed-envelope classification.
type VesselRepository struct {
	db *pgxpool.Pool
}

// NewVesselRepository creates a new PostgreSQL vessel static-data repository
func NewVesselRepository(db *pgxpool.Pool) *VesselRepository {
	return &VesselRepository{db: db}
}

// UpsertStatic records the latest static attributes for a vessel identity.
func (r *VesselRepository) UpsertStatic(ctx context.Context, data *vessel.StaticData) error {
	var dwt sql.NullInt64
	if data.DeadweightTonnage != nil {
		dwt = sql.NullInt64{Int64: *data.DeadweightTonnage, Valid: true}
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO vessel_static (vessel_id, name, flag, dwt, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (vessel_id) DO UPDATE SET
			name = EXCLUDED.name,
			flag = EXCLUDED.flag,
			dwt = EXCLUDED.dwt,
			updated_at = EXCLUDED.updated_at
	`, int64(data.VesselID), data.Name, data.Flag, dwt, data.UpdatedAt)
	if err != nil {
		return errors.NewInternalError("failed to upsert vessel static data").WithCause(err)
	}

	return nil
}

// GetStatic returns the stored static data for a vessel identity.
func (r *VesselRepository) GetStatic(ctx context.Context, vesselID vessel.VesselID) (*vessel.StaticData, error) {
	var (
		data vessel.StaticData
		id   int64
		dwt  sql.NullInt64
	)
	err := r.db.QueryRow(ctx, `
		SELECT vessel_id, name, flag, dwt, updated_at
		FROM vessel_static
		WHERE vessel_id = $1
	`, int64(vesselID)).Scan(&id, &data.Name, &data.Flag, &dwt, &data.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NewNotFoundError("vessel static data")
		}
		return nil, errors.NewInternalError("failed to get vessel static data").WithCause(err)
	}

	data.VesselID = vessel.VesselID(id)
	if dwt.Valid {
		data.DeadweightTonnage = &dwt.Int64
	}

	return &data, nil
}
