package fixtures

import (
	"testing"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
	"github.com/blueharbor/maritime-risk-engine/internal/service/ownercluster"
)

// OwnerBuilder builds ownership record inputs for the clustering engine
type OwnerBuilder struct {
	t          *testing.T
	ownerID    int64
	vesselID   vessel.VesselID
	name       string
	country    string
	sanctioned bool
}

// NewOwnerBuilder creates a new OwnerBuilder with defaults
func NewOwnerBuilder(t *testing.T) *OwnerBuilder {
	t.Helper()
	return &OwnerBuilder{
		t:        t,
		ownerID:  1,
		vesselID: 1,
		name:     "Acme Shipping Ltd",
		country:  "PA",
	}
}

// WithOwnerID sets the registry owner ID
func (b *OwnerBuilder) WithOwnerID(id int64) *OwnerBuilder {
	b.ownerID = id
	return b
}

// WithVessel sets the owned vessel identity
func (b *OwnerBuilder) WithVessel(id vessel.VesselID) *OwnerBuilder {
	b.vesselID = id
	return b
}

// WithName sets the declared owner name
func (b *OwnerBuilder) WithName(name string) *OwnerBuilder {
	b.name = name
	return b
}

// WithCountry sets the registration country
func (b *OwnerBuilder) WithCountry(country string) *OwnerBuilder {
	b.country = country
	return b
}

// Sanctioned marks the owner as listed
func (b *OwnerBuilder) Sanctioned() *OwnerBuilder {
	b.sanctioned = true
	return b
}

// Build returns the owner input
func (b *OwnerBuilder) Build() ownercluster.OwnerInput {
	return ownercluster.OwnerInput{
		OwnerID:    b.ownerID,
		VesselID:   b.vesselID,
		Name:       b.name,
		Country:    b.country,
		Sanctioned: b.sanctioned,
	}
}
