package ownercluster

import (
	"context"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/ownership"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

// Service places ownership records into clusters and answers sanctions
// exposure questions for the scoring pipeline. Placement is incremental: each
// record joins the best-matching existing cluster or starts its own, and the
// touched cluster's derived attributes are re-elected on every change.
type Service interface {
	// UpsertOwner records an ownership observation. A new owner is placed
	// into a cluster; an existing owner is updated in its current cluster.
	// A sanctioned owner stays sanctioned regardless of the incoming flag.
	UpsertOwner(ctx context.Context, input OwnerInput) (*ClusterUpdate, error)

	// MarkOwnerSanctioned flags an owner as listed and refreshes its
	// cluster. The transition is one-way.
	MarkOwnerSanctioned(ctx context.Context, ownerID int64) (*ClusterUpdate, error)

	// ClusterForOwner returns the cluster the owner currently belongs to.
	ClusterForOwner(ctx context.Context, ownerID int64) (*ownership.OwnerCluster, error)

	// ClustersForVessel returns every cluster with a member owning the
	// vessel.
	ClustersForVessel(ctx context.Context, vesselID vessel.VesselID) ([]*ownership.OwnerCluster, error)

	// SanctionsExposure reports whether any cluster owning the vessel is
	// sanctioned.
	SanctionsExposure(ctx context.Context, vesselID vessel.VesselID) (bool, error)
}

// Repository is the storage boundary for owners and clusters.
type Repository interface {
	// GetOwner returns the stored owner record or a not-found error.
	GetOwner(ctx context.Context, ownerID int64) (*ownership.VesselOwner, error)

	// ListOwnersByIDs returns the owner records for the given IDs.
	ListOwnersByIDs(ctx context.Context, ownerIDs []int64) ([]*ownership.VesselOwner, error)

	// ListClusters returns every cluster.
	ListClusters(ctx context.Context) ([]*ownership.OwnerCluster, error)

	// ClusterForOwner returns the cluster containing the owner or a
	// not-found error.
	ClusterForOwner(ctx context.Context, ownerID int64) (*ownership.OwnerCluster, error)

	// ClustersForVessel returns every cluster with a member owning the
	// vessel.
	ClustersForVessel(ctx context.Context, vesselID vessel.VesselID) ([]*ownership.OwnerCluster, error)

	// ApplyClusterMutation persists an owner record and the clusters it
	// touched in one transaction.
	ApplyClusterMutation(ctx context.Context, mutation ClusterMutation) error
}

// OwnerInput carries one ownership record into the clustering engine.
type OwnerInput struct {
	OwnerID    int64
	VesselID   vessel.VesselID
	Name       string
	Country    string
	Sanctioned bool
}

// ClusterMutation is the atomic unit of cluster storage change: the owner
// record and every cluster it touched commit together or not at all.
type ClusterMutation struct {
	Owner    *ownership.VesselOwner
	Clusters []*ownership.OwnerCluster
}

// ClusterUpdate reports where an owner landed after an upsert.
type ClusterUpdate struct {
	Owner   *ownership.VesselOwner
	Cluster *ownership.OwnerCluster
	// Joined is true when the owner was added to a pre-existing cluster
	// during this call.
	Joined bool
	// Similarity is the score against the cluster's canonical identity at
	// placement time; 1.0 for a fresh singleton.
	Similarity float64
}
