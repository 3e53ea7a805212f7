package profilememory

import (
	"context"
	"testing"

	"github.com/Abraxas-365/expomail/pkg/kernel"
	"github.com/Abraxas-365/expomail/pkg/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_MissingReturnsNil(t *testing.T) {
	s := New()
	org, err := s.GetOrganizerProfile(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, org)

	ex, err := s.GetExhibition(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, ex)
}

func TestStore_ApprovedBrands(t *testing.T) {
	s := New()
	ex := kernel.NewExhibitionID("ex-1")
	s.AddBrand(profile.BrandProfile{ID: "b1", ContactEmail: "b1@x.com", CompanyName: "Acme"})
	s.AddBrand(profile.BrandProfile{ID: "b2", ContactEmail: "b2@x.com", CompanyName: "Globex"})
	s.ApproveBrand(ex, "b2")
	s.ApproveBrand(ex, "missing")

	got, err := s.ListApprovedBrandEmails(context.Background(), ex)
	require.NoError(t, err)
	assert.Equal(t, []profile.Recipient{{Email: "b2@x.com", Name: "Globex"}}, got)
}
