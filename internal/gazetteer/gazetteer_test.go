package gazetteer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_CityCenter(t *testing.T) {
	idx := Default()

	m, ok := idx.Lookup("Seattle", "")
	require.True(t, ok)
	assert.Equal(t, "Seattle", m.City)
	assert.False(t, m.AreaFound)
	assert.InDelta(t, -122.3321, m.Point.Lon(), 0.001)
	assert.InDelta(t, 47.6062, m.Point.Lat(), 0.001)
}

func TestLookup_Area(t *testing.T) {
	idx := Default()

	m, ok := idx.Lookup("Seattle", "Capitol Hill")
	require.True(t, ok)
	assert.True(t, m.AreaFound)
	assert.InDelta(t, 47.6230, m.Point.Lat(), 0.001)
}

func TestLookup_UnknownAreaFallsBackToCity(t *testing.T) {
	idx := Default()

	m, ok := idx.Lookup("Seattle", "Atlantis Heights")
	require.True(t, ok)
	assert.False(t, m.AreaFound)
	assert.InDelta(t, 47.6062, m.Point.Lat(), 0.001)
}

func TestLookup_Aliases(t *testing.T) {
	idx := Default()

	tests := []struct {
		in   string
		city string
	}{
		{"SF", "San Francisco"},
		{"nyc", "New York"},
		{"Seattle, WA", "Seattle"},
		{"los angeles ca", "Los Angeles"},
	}
	for _, tt := range tests {
		m, ok := idx.Lookup(tt.in, "")
		require.True(t, ok, tt.in)
		assert.Equal(t, tt.city, m.City, tt.in)
	}
}

func TestLookup_UnknownCity(t *testing.T) {
	_, ok := Default().Lookup("Gotham", "")
	assert.False(t, ok)

	_, ok = Default().Lookup("", "midtown")
	assert.False(t, ok)
}

func TestNormalizeCity(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Seattle, WA", "seattle"},
		{"New York NY", "new york"},
		{"  San  Francisco  ", "san francisco"},
		{"São Paulo", "sao paulo"},
		{"LA", "la"}, // a lone two-letter token is the whole name, not a state
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCity(tt.in), tt.in)
	}
}
