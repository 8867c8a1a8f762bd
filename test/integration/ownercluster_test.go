//go:build integration

package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/ownership"
	"github.com/blueharbor/maritime-risk-engine/internal/infrastructure/repository"
	"github.com/blueharbor/maritime-risk-engine/internal/service/ownercluster"
	"github.com/blueharbor/maritime-risk-engine/internal/testutil"
	"github.com/blueharbor/maritime-risk-engine/internal/testutil/fixtures"
)

// TestOwnerClustering_EndToEnd drives the clustering engine against a real
// database: near-identical registered names collapse into one cluster, the
// cluster's derived attributes re-elect on every change, and sanctions
// propagate cluster-wide.
func TestOwnerClustering_EndToEnd(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	ctx := testutil.TestContext(t)

	repo := repository.NewOwnerRepository(testDB.Pool())
	owners := ownercluster.NewService(repo, ownership.DefaultMatchPolicy)

	first, err := owners.UpsertOwner(ctx, fixtures.NewOwnerBuilder(t).
		WithOwnerID(1).
		WithVessel(101).
		WithName("Acme Shipping Ltd").
		WithCountry("PA").
		Build())
	require.NoError(t, err)
	assert.False(t, first.Joined)
	assert.Equal(t, 1.0, first.Similarity)
	assert.Equal(t, "acme shipping ltd", first.Cluster.CanonicalName)
	assert.Equal(t, 1, first.Cluster.VesselCount)

	// Same entity, shoutier registration.
	second, err := owners.UpsertOwner(ctx, fixtures.NewOwnerBuilder(t).
		WithOwnerID(2).
		WithVessel(102).
		WithName("ACME SHIPPING, LTD.").
		WithCountry("PA").
		Build())
	require.NoError(t, err)
	assert.True(t, second.Joined)
	assert.Equal(t, first.Cluster.ID, second.Cluster.ID)
	assert.Equal(t, 1.0, second.Similarity)
	assert.Equal(t, 2, second.Cluster.VesselCount)

	cluster, err := owners.ClusterForOwner(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, first.Cluster.ID, cluster.ID)
	assert.Equal(t, "acme shipping ltd", cluster.CanonicalName)
	assert.Equal(t, "PA", cluster.Country)
	assert.Len(t, cluster.Members, 2)
	assert.False(t, cluster.Sanctioned)

	exposed, err := owners.SanctionsExposure(ctx, 101)
	require.NoError(t, err)
	assert.False(t, exposed)

	// Listing owner 1 taints the whole cluster, so the sibling vessel is
	// exposed too.
	update, err := owners.MarkOwnerSanctioned(ctx, 1)
	require.NoError(t, err)
	assert.True(t, update.Cluster.Sanctioned)

	exposed, err = owners.SanctionsExposure(ctx, 102)
	require.NoError(t, err)
	assert.True(t, exposed)

	// Re-upserting the listed owner with a clean flag cannot clear it.
	refreshed, err := owners.UpsertOwner(ctx, fixtures.NewOwnerBuilder(t).
		WithOwnerID(1).
		WithVessel(101).
		WithName("Acme Shipping Ltd").
		WithCountry("PA").
		Build())
	require.NoError(t, err)
	assert.True(t, refreshed.Cluster.Sanctioned)

	// An unrelated owner starts its own cluster.
	distinct, err := owners.UpsertOwner(ctx, fixtures.NewOwnerBuilder(t).
		WithOwnerID(3).
		WithVessel(201).
		WithName("Blue Harbor Maritime Pte").
		WithCountry("SG").
		Build())
	require.NoError(t, err)
	assert.False(t, distinct.Joined)
	assert.NotEqual(t, first.Cluster.ID, distinct.Cluster.ID)

	clusters, err := owners.ClustersForVessel(ctx, 201)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, distinct.Cluster.ID, clusters[0].ID)

	exposed, err = owners.SanctionsExposure(ctx, 201)
	require.NoError(t, err)
	assert.False(t, exposed)

	testDB.AssertRowCount("owner_clusters", 2)
	testDB.AssertRowCount("vessel_owners", 3)
}

// TestOwnerClustering_CanonicalReelection verifies the most-frequent variant
// takes over the canonical name once it outnumbers the founder's spelling.
func TestOwnerClustering_CanonicalReelection(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	ctx := testutil.TestContext(t)

	repo := repository.NewOwnerRepository(testDB.Pool())
	owners := ownercluster.NewService(repo, ownership.DefaultMatchPolicy)

	_, err := owners.UpsertOwner(ctx, fixtures.NewOwnerBuilder(t).
		WithOwnerID(10).
		WithVessel(301).
		WithName("Meridian Tankers Co").
		WithCountry("LR").
		Build())
	require.NoError(t, err)

	// Two registrations carry the longer suffix; their variant now outvotes
	// the founder's two to one.
	_, err = owners.UpsertOwner(ctx, fixtures.NewOwnerBuilder(t).
		WithOwnerID(11).
		WithVessel(302).
		WithName("Meridian Tankers Co Ltd").
		WithCountry("LR").
		Build())
	require.NoError(t, err)

	update, err := owners.UpsertOwner(ctx, fixtures.NewOwnerBuilder(t).
		WithOwnerID(12).
		WithVessel(303).
		WithName("MERIDIAN TANKERS CO. LTD.").
		WithCountry("LR").
		Build())
	require.NoError(t, err)

	assert.Equal(t, "meridian tankers co ltd", update.Cluster.CanonicalName)
	assert.Equal(t, 3, update.Cluster.VesselCount)
	assert.Len(t, update.Cluster.Members, 3)
}
