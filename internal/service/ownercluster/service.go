package ownercluster

import (
	"context"
	"fmt"
	"sync"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/ownership"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

type service struct {
	repo   Repository
	policy ownership.MatchPolicy

	// mu serializes cluster mutations so concurrent upserts cannot place
	// two similar owners into separate clusters. Reads stay lock-free.
	mu sync.Mutex
}

// NewService creates an owner clustering service with the given match policy.
func NewService(repo Repository, policy ownership.MatchPolicy) Service {
	return &service{repo: repo, policy: policy}
}

func (s *service) UpsertOwner(ctx context.Context, input OwnerInput) (*ClusterUpdate, error) {
	owner, err := ownership.NewVesselOwner(input.OwnerID, input.VesselID, input.Name, input.Country, input.Sanctioned)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.GetOwner(ctx, owner.OwnerID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, errors.Wrap(err, "load owner")
	}
	if existing == nil {
		return s.placeOwner(ctx, owner)
	}

	// Listing status is one-way; an update cannot clear it.
	if existing.Sanctioned {
		owner.Sanctioned = true
	}
	return s.refreshMember(ctx, owner)
}

func (s *service) MarkOwnerSanctioned(ctx context.Context, ownerID int64) (*ClusterUpdate, error) {
	if ownerID <= 0 {
		return nil, errors.NewValidationError("INVALID_OWNER_ID", "owner id must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.repo.GetOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	owner.Sanctioned = true
	return s.refreshMember(ctx, owner)
}

func (s *service) ClusterForOwner(ctx context.Context, ownerID int64) (*ownership.OwnerCluster, error) {
	if ownerID <= 0 {
		return nil, errors.NewValidationError("INVALID_OWNER_ID", "owner id must be positive")
	}
	return s.repo.ClusterForOwner(ctx, ownerID)
}

func (s *service) SanctionsExposure(ctx context.Context, vesselID vessel.VesselID) (bool, error) {
	clusters, err := s.ClustersForVessel(ctx, vesselID)
	if err != nil {
		return false, err
	}
	for _, c := range clusters {
		if c.Sanctioned {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) ClustersForVessel(ctx context.Context, vesselID vessel.VesselID) ([]*ownership.OwnerCluster, error) {
	if vesselID <= 0 {
		return nil, errors.NewValidationError("INVALID_VESSEL_ID", "vessel id must be positive")
	}

	clusters, err := s.repo.ClustersForVessel(ctx, vesselID)
	if err != nil {
		return nil, errors.Wrap(err, "list clusters for vessel")
	}
	return clusters, nil
}

// placeOwner assigns a first-seen owner to the best-matching cluster, or
// starts a singleton when nothing clears the join threshold.
func (s *service) placeOwner(ctx context.Context, owner *ownership.VesselOwner) (*ClusterUpdate, error) {
	clusters, err := s.repo.ListClusters(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list clusters")
	}

	best, score := bestCluster(owner, clusters, s.policy)
	if best == nil || score < s.policy.JoinThreshold {
		cluster := ownership.NewSingletonCluster(owner)
		if err := s.apply(ctx, owner, cluster); err != nil {
			return nil, err
		}
		return &ClusterUpdate{Owner: owner, Cluster: cluster, Similarity: 1.0}, nil
	}

	best.AddMember(owner.OwnerID, score)
	if err := s.recompute(ctx, best, owner); err != nil {
		return nil, err
	}
	if err := s.apply(ctx, owner, best); err != nil {
		return nil, err
	}
	return &ClusterUpdate{Owner: owner, Cluster: best, Joined: true, Similarity: score}, nil
}

// refreshMember re-derives the cluster of an owner that already belongs to
// one. Membership never moves on update; only the derived attributes change.
func (s *service) refreshMember(ctx context.Context, owner *ownership.VesselOwner) (*ClusterUpdate, error) {
	cluster, err := s.repo.ClusterForOwner(ctx, owner.OwnerID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewConsistencyError("OWNER_WITHOUT_CLUSTER",
				fmt.Sprintf("owner %d exists but belongs to no cluster", owner.OwnerID))
		}
		return nil, errors.Wrap(err, "load cluster")
	}

	if err := s.recompute(ctx, cluster, owner); err != nil {
		return nil, err
	}
	if err := s.apply(ctx, owner, cluster); err != nil {
		return nil, err
	}
	return &ClusterUpdate{
		Owner:      owner,
		Cluster:    cluster,
		Similarity: memberSimilarity(cluster, owner.OwnerID),
	}, nil
}

// recompute refreshes a cluster's derived attributes from its member records,
// substituting the in-flight owner for its stale stored copy.
func (s *service) recompute(ctx context.Context, cluster *ownership.OwnerCluster, pending *ownership.VesselOwner) error {
	ids := make([]int64, 0, len(cluster.Members))
	for _, m := range cluster.Members {
		if m.OwnerID == pending.OwnerID {
			continue
		}
		ids = append(ids, m.OwnerID)
	}

	owners := make([]*ownership.VesselOwner, 0, len(cluster.Members))
	if len(ids) > 0 {
		stored, err := s.repo.ListOwnersByIDs(ctx, ids)
		if err != nil {
			return errors.Wrap(err, "load cluster members")
		}
		owners = append(owners, stored...)
	}
	owners = append(owners, pending)

	return cluster.Recompute(owners)
}

func (s *service) apply(ctx context.Context, owner *ownership.VesselOwner, cluster *ownership.OwnerCluster) error {
	mutation := ClusterMutation{Owner: owner, Clusters: []*ownership.OwnerCluster{cluster}}
	if err := s.repo.ApplyClusterMutation(ctx, mutation); err != nil {
		return errors.Wrap(err, "apply cluster mutation")
	}
	return nil
}

// bestCluster scores the owner against each cluster's canonical identity.
// Ties go to the smaller cluster ID so placement does not depend on listing
// order.
func bestCluster(owner *ownership.VesselOwner, clusters []*ownership.OwnerCluster, policy ownership.MatchPolicy) (*ownership.OwnerCluster, float64) {
	var best *ownership.OwnerCluster
	var bestScore float64
	for _, c := range clusters {
		score := ownership.Similarity(owner.Name, owner.Country, c.CanonicalName, c.Country, policy)
		switch {
		case best == nil || score > bestScore:
			best, bestScore = c, score
		case score == bestScore && c.ID.String() < best.ID.String():
			best = c
		}
	}
	return best, bestScore
}

func memberSimilarity(cluster *ownership.OwnerCluster, ownerID int64) float64 {
	for _, m := range cluster.Members {
		if m.OwnerID == ownerID {
			return m.Similarity
		}
	}
	return 0
}
