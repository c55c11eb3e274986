package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSlug_Valid(t *testing.T) {
	for _, slug := range []string{"welbourne", "welbourne-phase-2", "a1"} {
		m := &SiteMap{Slug: slug}
		assert.NoError(t, m.ValidateSlug(), "should accept %q", slug)
	}
}

func TestValidateSlug_Invalid(t *testing.T) {
	for _, slug := range []string{"Welbourne", "phase--2", "-lead", "trail-", "with space"} {
		m := &SiteMap{Slug: slug}
		assert.Error(t, m.ValidateSlug(), "should reject %q", slug)
	}
}

func TestValidateSlug_Empty(t *testing.T) {
	m := &SiteMap{}
	err := m.ValidateSlug()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestCentroid(t *testing.T) {
	p := &Plot{Coordinates: [][2]float64{{0, 0}, {4, 0}, {4, 2}, {0, 2}}}
	x, y, ok := p.Centroid()
	require.True(t, ok)
	assert.InDelta(t, 2.0, x, 1e-9)
	assert.InDelta(t, 1.0, y, 1e-9)
}

func TestCentroid_NoCoordinates(t *testing.T) {
	_, _, ok := (&Plot{}).Centroid()
	assert.False(t, ok)
}

func TestIsConfigured(t *testing.T) {
	empty := ""
	typeID := "type-1"
	assert.False(t, (&Plot{}).IsConfigured())
	assert.False(t, (&Plot{ConstructionTypeID: &empty}).IsConfigured())
	assert.True(t, (&Plot{ConstructionTypeID: &typeID}).IsConfigured())
}
