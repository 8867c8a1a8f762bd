package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/ownership"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
	"github.com/blueharbor/maritime-risk-engine/internal/service/ownercluster"
)

// OwnerRepository implements the ownercluster.Repository interface over
// PostgreSQL. Cluster membership is refreshed wholesale per touched cluster:
// the member set is small and a delete-and-reinsert keeps the write path a
// single obvious shape.
type OwnerRepository struct {
	db *pgxpool.Pool
}

// NewOwnerRepository creates a new PostgreSQL owner repository
func NewOwnerRepository(db *pgxpool.Pool) *OwnerRepository {
	return &OwnerRepository{db: db}
}

const clusterSelect = `
	SELECT c.id, c.canonical_name, c.country, c.sanctioned, c.vessel_count, c.updated_at,
	       array_agg(m.owner_id ORDER BY m.owner_id) AS member_ids,
	       array_agg(m.similarity ORDER BY m.owner_id) AS member_scores
	FROM owner_clusters c
	JOIN owner_cluster_members m ON m.cluster_id = c.id
`

// GetOwner returns the stored owner record.
func (r *OwnerRepository) GetOwner(ctx context.Context, ownerID int64) (*ownership.VesselOwner, error) {
	owner, err := scanOwnerRow(r.db.QueryRow(ctx, `
		SELECT owner_id, vessel_id, name, country, sanctioned, created_at
		FROM vessel_owners
		WHERE owner_id = $1
	`, ownerID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NewNotFoundError("vessel owner")
		}
		return nil, errors.NewInternalError("failed to get vessel owner").WithCause(err)
	}

	return owner, nil
}

// ListOwnersByIDs returns the owner records for the given IDs.
func (r *OwnerRepository) ListOwnersByIDs(ctx context.Context, ownerIDs []int64) ([]*ownership.VesselOwner, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT owner_id, vessel_id, name, country, sanctioned, created_at
		FROM vessel_owners
		WHERE owner_id = ANY($1)
		ORDER BY owner_id
	`, ownerIDs)
	if err != nil {
		return nil, errors.NewInternalError("failed to list vessel owners").WithCause(err)
	}
	defer rows.Close()

	var owners []*ownership.VesselOwner
	for rows.Next() {
		owner, err := scanOwnerRow(rows)
		if err != nil {
			return nil, errors.NewInternalError("failed to scan vessel owner").WithCause(err)
		}
		owners = append(owners, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternalError("failed to read owner rows").WithCause(err)
	}

	return owners, nil
}

// ListClusters returns every owner cluster with its members.
func (r *OwnerRepository) ListClusters(ctx context.Context) ([]*ownership.OwnerCluster, error) {
	rows, err := r.db.Query(ctx, clusterSelect+`
		GROUP BY c.id
		ORDER BY c.id
	`)
	if err != nil {
		return nil, errors.NewInternalError("failed to list owner clusters").WithCause(err)
	}
	defer rows.Close()

	return scanClusters(rows)
}

// ClusterForOwner returns the cluster the owner belongs to.
func (r *OwnerRepository) ClusterForOwner(ctx context.Context, ownerID int64) (*ownership.OwnerCluster, error) {
	rows, err := r.db.Query(ctx, clusterSelect+`
		WHERE c.id = (SELECT cluster_id FROM owner_cluster_members WHERE owner_id = $1)
		GROUP BY c.id
	`, ownerID)
	if err != nil {
		return nil, errors.NewInternalError("failed to query cluster for owner").WithCause(err)
	}
	defer rows.Close()

	clusters, err := scanClusters(rows)
	if err != nil {
		return nil, err
	}
	if len(clusters) == 0 {
		return nil, errors.NewNotFoundError("owner cluster")
	}

	return clusters[0], nil
}

// ClustersForVessel returns every cluster with a member owning the vessel.
func (r *OwnerRepository) ClustersForVessel(ctx context.Context, vesselID vessel.VesselID) ([]*ownership.OwnerCluster, error) {
	rows, err := r.db.Query(ctx, clusterSelect+`
		WHERE c.id IN (
			SELECT m2.cluster_id
			FROM owner_cluster_members m2
			JOIN vessel_owners o ON o.owner_id = m2.owner_id
			WHERE o.vessel_id = $1
		)
		GROUP BY c.id
		ORDER BY c.id
	`, int64(vesselID))
	if err != nil {
		return nil, errors.NewInternalError("failed to query clusters for vessel").WithCause(err)
	}
	defer rows.Close()

	return scanClusters(rows)
}

// ApplyClusterMutation persists the owner record and every touched cluster in
// one transaction.
func (r *OwnerRepository) ApplyClusterMutation(ctx context.Context, mutation ownercluster.ClusterMutation) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errors.NewInternalError("failed to begin cluster transaction").WithCause(err)
	}
	defer tx.Rollback(ctx)

	if mutation.Owner != nil {
		if err := upsertOwner(ctx, tx, mutation.Owner); err != nil {
			return err
		}
	}

	for _, cluster := range mutation.Clusters {
		if err := upsertCluster(ctx, tx, cluster); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.NewInternalError("failed to commit cluster mutation").WithCause(err)
	}

	return nil
}

func upsertOwner(ctx context.Context, tx pgx.Tx, owner *ownership.VesselOwner) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO vessel_owners (owner_id, vessel_id, name, country, sanctioned, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id) DO UPDATE SET
			vessel_id = EXCLUDED.vessel_id,
			name = EXCLUDED.name,
			country = EXCLUDED.country,
			sanctioned = EXCLUDED.sanctioned
	`, owner.OwnerID, int64(owner.VesselID), owner.Name, owner.Country,
		owner.Sanctioned, owner.CreatedAt)
	if err != nil {
		return errors.NewInternalError("failed to upsert vessel owner").WithCause(err)
	}

	return nil
}

func upsertCluster(ctx context.Context, tx pgx.Tx, cluster *ownership.OwnerCluster) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO owner_clusters (id, canonical_name, country, sanctioned, vessel_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			canonical_name = EXCLUDED.canonical_name,
			country = EXCLUDED.country,
			sanctioned = EXCLUDED.sanctioned,
			vessel_count = EXCLUDED.vessel_count,
			updated_at = EXCLUDED.updated_at
	`, cluster.ID, cluster.CanonicalName, cluster.Country, cluster.Sanctioned,
		cluster.VesselCount, cluster.UpdatedAt)
	if err != nil {
		return errors.NewInternalError("failed to upsert owner cluster").WithCause(err)
	}

	// Membership only ever grows or updates in place, but rewriting the set
	// keeps the write independent of how the cluster got here.
	_, err = tx.Exec(ctx, `DELETE FROM owner_cluster_members WHERE cluster_id = $1`, cluster.ID)
	if err != nil {
		return errors.NewInternalError("failed to clear cluster members").WithCause(err)
	}

	for _, member := range cluster.Members {
		_, err := tx.Exec(ctx, `
			INSERT INTO owner_cluster_members (cluster_id, owner_id, similarity)
			VALUES ($1, $2, $3)
		`, cluster.ID, member.OwnerID, member.Similarity)
		if err != nil {
			return errors.NewInternalError("failed to insert cluster member").WithCause(err)
		}
	}

	return nil
}

func scanOwnerRow(row pgx.Row) (*ownership.VesselOwner, error) {
	var (
		owner    ownership.VesselOwner
		vesselID int64
	)
	err := row.Scan(&owner.OwnerID, &vesselID, &owner.Name, &owner.Country,
		&owner.Sanctioned, &owner.CreatedAt)
	if err != nil {
		return nil, err
	}
	owner.VesselID = vessel.VesselID(vesselID)

	return &owner, nil
}

func scanClusters(rows pgx.Rows) ([]*ownership.OwnerCluster, error) {
	var clusters []*ownership.OwnerCluster
	for rows.Next() {
		var (
			cluster      ownership.OwnerCluster
			memberIDs    []int64
			memberScores []float64
		)
		err := rows.Scan(&cluster.ID, &cluster.CanonicalName, &cluster.Country,
			&cluster.Sanctioned, &cluster.VesselCount, &cluster.UpdatedAt,
			&memberIDs, &memberScores)
		if err != nil {
			return nil, errors.NewInternalError("failed to scan owner cluster").WithCause(err)
		}

		cluster.Members = make([]ownership.Member, len(memberIDs))
		for i, id := range memberIDs {
			cluster.Members[i] = ownership.Member{OwnerID: id, Similarity: memberScores[i]}
		}
		clusters = append(clusters, &cluster)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternalError("failed to read cluster rows").WithCause(err)
	}

	return clusters, nil
}
