package ownership

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
)

// Member is the audit edge recording why an owner sits in a cluster: the
// similarity score at join time is retained even after later re-elections
// change the canonical name.
type Member struct {
	OwnerID    int64   `json:"owner_id"`
	Similarity float64 `json:"similarity"`
}

// OwnerCluster groups ownership records judged to be one real-world entity.
// Every owner belongs to exactly one cluster; sanctions exposure propagates
// from any member to the whole cluster and never silently clears.
type OwnerCluster struct {
	ID            uuid.UUID `json:"id"`
	CanonicalName string    `json:"canonical_name"`
	Country       string    `json:"country"`
	Sanctioned    bool      `json:"sanctioned"`
	VesselCount   int       `json:"vessel_count"`
	Members       []Member  `json:"members"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewSingletonCluster starts a cluster from its first owner. The owner's
// normalized name is canonical by definition and its membership score is a
// perfect match.
func NewSingletonCluster(owner *VesselOwner) *OwnerCluster {
	return &OwnerCluster{
		ID:            uuid.New(),
		CanonicalName: owner.NormalizedName(),
		Country:       owner.Country,
		Sanctioned:    owner.Sanctioned,
		VesselCount:   1,
		Members:       []Member{{OwnerID: owner.OwnerID, Similarity: 1.0}},
		UpdatedAt:     time.Now().UTC(),
	}
}

// AddMember records a new owner joining with the similarity that justified
// the join. Derived attributes are refreshed separately via Recompute.
func (c *OwnerCluster) AddMember(ownerID int64, similarity float64) {
	c.Members = append(c.Members, Member{OwnerID: ownerID, Similarity: similarity})
	sort.Slice(c.Members, func(i, j int) bool { return c.Members[i].OwnerID < c.Members[j].OwnerID })
}

// HasMember reports whether the owner already belongs to the cluster.
func (c *OwnerCluster) HasMember(ownerID int64) bool {
	for _, m := range c.Members {
		if m.OwnerID == ownerID {
			return true
		}
	}
	return false
}

// Recompute refreshes the derived cluster attributes from the full member
// records: canonical name re-election, country election, sanctions OR, and
// the distinct-vessel count. The caller passes exactly the records backing
// Members; any mismatch is a consistency error because it means cluster and
// owner storage have drifted apart.
func (c *OwnerCluster) Recompute(owners []*VesselOwner) error {
	if len(owners) != len(c.Members) {
		return errors.NewConsistencyError("CLUSTER_MEMBER_MISMATCH",
			fmt.Sprintf("cluster %s has %d members but %d owner records", c.ID, len(c.Members), len(owners)))
	}

	byID := make(map[int64]*VesselOwner, len(owners))
	for _, o := range owners {
		byID[o.OwnerID] = o
	}
	for _, m := range c.Members {
		if _, ok := byID[m.OwnerID]; !ok {
			return errors.NewConsistencyError("CLUSTER_MEMBER_MISSING",
				fmt.Sprintf("cluster %s member %d has no owner record", c.ID, m.OwnerID))
		}
	}

	c.CanonicalName = electCanonicalName(owners)
	c.Country = electCountry(owners)

	sanctioned := false
	vessels := make(map[vessel.VesselID]bool)
	for _, o := range owners {
		if o.Sanctioned {
			sanctioned = true
		}
		vessels[o.VesselID] = true
	}
	c.Sanctioned = sanctioned
	c.VesselCount = len(vessels)
	c.UpdatedAt = time.Now().UTC()

	return nil
}

// electCanonicalName picks the most frequent normalized variant; ties go to
// the shortest, then the lexicographically smallest.
func electCanonicalName(owners []*VesselOwner) string {
	counts := make(map[string]int)
	for _, o := range owners {
		counts[o.NormalizedName()]++
	}

	var winner string
	var winnerCount int
	for variant, count := range counts {
		if winner == "" || betterVariant(variant, count, winner, winnerCount) {
			winner = variant
			winnerCount = count
		}
	}
	return winner
}

func betterVariant(variant string, count int, incumbent string, incumbentCount int) bool {
	if count != incumbentCount {
		return count > incumbentCount
	}
	if len(variant) != len(incumbent) {
		return len(variant) < len(incumbent)
	}
	return variant < incumbent
}

// electCountry mirrors the name election over non-empty member countries.
func electCountry(owners []*VesselOwner) string {
	counts := make(map[string]int)
	for _, o := range owners {
		if o.Country != "" {
			counts[o.Country]++
		}
	}

	var winner string
	var winnerCount int
	for country, count := range counts {
		if winner == "" || betterVariant(country, count, winner, winnerCount) {
			winner = country
			winnerCount = count
		}
	}
	return winner
}
