package anchor

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tablescout/internal/prefs"
	"github.com/sells-group/tablescout/pkg/geoapify"
)

type fakeGeocoder struct {
	results map[string]orb.Point
	err     error
	queries []string
}

func (f *fakeGeocoder) Geocode(_ context.Context, text, _ string) (*geoapify.GeocodeResult, error) {
	f.queries = append(f.queries, text)
	if f.err != nil {
		return nil, f.err
	}
	if pt, ok := f.results[text]; ok {
		return &geoapify.GeocodeResult{Point: pt}, nil
	}
	return nil, nil
}

func TestResolve_ExplicitCoordinatesWin(t *testing.T) {
	g := &fakeGeocoder{}
	r := NewResolver(g, nil, "en")
	pt := orb.Point{-122.30, 47.60}
	sp := &prefs.Spec{City: "Seattle", POI: "Space Needle", AnchorPoint: &pt}

	a, err := r.Resolve(context.Background(), sp)
	require.NoError(t, err)
	assert.Equal(t, pt, a.Point)
	assert.Equal(t, prefs.AnchorCoord, a.Type)
	assert.Empty(t, g.queries)
	assert.Equal(t, prefs.AnchorCoord, sp.AnchorType)
}

func TestResolve_POIDisambiguatedWithCity(t *testing.T) {
	g := &fakeGeocoder{results: map[string]orb.Point{
		"Space Needle Seattle": {-122.3493, 47.6205},
	}}
	r := NewResolver(g, nil, "en")
	sp := &prefs.Spec{City: "Seattle", POI: "Space Needle"}

	a, err := r.Resolve(context.Background(), sp)
	require.NoError(t, err)
	assert.Equal(t, prefs.AnchorPOI, a.Type)
	assert.Equal(t, "Space Needle", a.Label)
	assert.Equal(t, []string{"Space Needle Seattle"}, g.queries)
}

func TestResolve_ZipBeforeGazetteer(t *testing.T) {
	g := &fakeGeocoder{results: map[string]orb.Point{
		"98109": {-122.3447, 47.6344},
	}}
	r := NewResolver(g, nil, "en")
	sp := &prefs.Spec{City: "Seattle", Zip: "98109"}

	a, err := r.Resolve(context.Background(), sp)
	require.NoError(t, err)
	assert.Equal(t, prefs.AnchorZip, a.Type)
	assert.Equal(t, "98109", a.Label)
}

func TestResolve_GazetteerArea(t *testing.T) {
	// Geocoder returns nothing, so the embedded gazetteer must answer.
	r := NewResolver(&fakeGeocoder{}, nil, "en")
	sp := &prefs.Spec{City: "Seattle", Area: "Fremont"}

	a, err := r.Resolve(context.Background(), sp)
	require.NoError(t, err)
	assert.Equal(t, prefs.AnchorArea, a.Type)
	assert.Equal(t, "Fremont", a.Label)
	assert.InDelta(t, 47.6512, a.Point.Lat(), 0.001)
}

func TestResolve_GazetteerUnknownAreaYieldsCityType(t *testing.T) {
	r := NewResolver(&fakeGeocoder{}, nil, "en")
	sp := &prefs.Spec{City: "Seattle", Area: "Nonexistent Quarter"}

	a, err := r.Resolve(context.Background(), sp)
	require.NoError(t, err)
	assert.Equal(t, prefs.AnchorCity, a.Type)
	assert.Equal(t, "Seattle", a.Label)
}

func TestResolve_FreeTextFallback(t *testing.T) {
	g := &fakeGeocoder{results: map[string]orb.Point{
		"Springfield": {-89.6501, 39.7817},
	}}
	r := NewResolver(g, nil, "en")
	sp := &prefs.Spec{City: "Springfield", Area: "Old Town"}

	a, err := r.Resolve(context.Background(), sp)
	require.NoError(t, err)
	assert.Equal(t, prefs.AnchorCity, a.Type)
	assert.Equal(t, "Springfield", a.Label)
	// Tried city+area first, then city alone.
	assert.Equal(t, []string{"Springfield Old Town", "Springfield"}, g.queries)
}

func TestResolve_GeocoderErrorsFallThrough(t *testing.T) {
	// A provider outage must not fail resolution when the gazetteer knows
	// the city.
	g := &fakeGeocoder{err: errors.New("provider down")}
	r := NewResolver(g, nil, "en")
	sp := &prefs.Spec{City: "Seattle", POI: "Space Needle"}

	a, err := r.Resolve(context.Background(), sp)
	require.NoError(t, err)
	assert.Equal(t, prefs.AnchorCity, a.Type)
}

func TestResolve_Exhausted(t *testing.T) {
	r := NewResolver(&fakeGeocoder{}, nil, "en")
	sp := &prefs.Spec{City: "Atlantis"}

	_, err := r.Resolve(context.Background(), sp)
	assert.ErrorIs(t, err, ErrUnresolved)
}
