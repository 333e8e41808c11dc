package engine

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tablescout/internal/anchor"
	"github.com/sells-group/tablescout/internal/config"
	"github.com/sells-group/tablescout/internal/constraint"
	"github.com/sells-group/tablescout/internal/prefs"
	"github.com/sells-group/tablescout/internal/rank"
	"github.com/sells-group/tablescout/internal/search"
	"github.com/sells-group/tablescout/internal/venue"
	"github.com/sells-group/tablescout/pkg/geoapify"
)

var seattle = orb.Point{-122.3321, 47.6062}

type nullGeocoder struct{}

func (nullGeocoder) Geocode(context.Context, string, string) (*geoapify.GeocodeResult, error) {
	return nil, nil
}

type staticProvider struct {
	venues []venue.Venue
}

func (p *staticProvider) PlacesCircle(context.Context, geoapify.CircleQuery) ([]venue.Venue, error) {
	return p.venues, nil
}

func (p *staticProvider) PlacesRect(context.Context, geoapify.RectQuery) ([]venue.Venue, error) {
	return p.venues, nil
}

type fixedRelevance struct {
	scores []float64
}

func (f *fixedRelevance) Score(context.Context, string, []string) ([]float64, error) {
	return f.scores, nil
}

func newTestEngine(provider search.PlacesProvider, opts ...Option) *Engine {
	resolver := anchor.NewResolver(nullGeocoder{}, nil, "en")
	expander := search.NewExpander(provider, constraint.NewEvaluator(nil), config.SearchConfig{MaxRadiusKm: 5})
	scorer := rank.NewScorer(nil, config.ScorerConfig{})
	return New(resolver, expander, scorer, opts...)
}

func rated(name string, rating float64, lonOffset float64) venue.Venue {
	return venue.Venue{
		Name:   name,
		Point:  orb.Point{seattle.Lon() + lonOffset, seattle.Lat()},
		Rating: &rating,
	}
}

func TestRecommend_EndToEnd(t *testing.T) {
	provider := &staticProvider{venues: []venue.Venue{
		rated("Pagliacci Pizza", 4.5, 0.001),
		rated("Generic Diner", 3.0, 0.002),
		rated("Thai Orchid", 4.2, 0.003),
	}}
	eng := newTestEngine(provider, WithResultBounds(3, 10))

	sp := &prefs.Spec{City: "Seattle", Cuisines: []string{"pizza"}, DistanceKm: 2}
	rec, err := eng.Recommend(context.Background(), sp)
	require.NoError(t, err)

	assert.NotEmpty(t, rec.RequestID)
	assert.Equal(t, prefs.AnchorCity, rec.Anchor.Type)
	assert.Equal(t, 2.0, rec.RadiusKm)
	require.Len(t, rec.Candidates, 3)
	assert.Equal(t, "Pagliacci Pizza", rec.Candidates[0].Venue.Name)
	assert.True(t, rec.BBox.Contains(seattle))
}

func TestRecommend_InvalidSpec(t *testing.T) {
	eng := newTestEngine(&staticProvider{})
	_, err := eng.Recommend(context.Background(), &prefs.Spec{})
	assert.ErrorIs(t, err, prefs.ErrMissingLocation)
}

func TestRecommend_UnresolvableAnchor(t *testing.T) {
	eng := newTestEngine(&staticProvider{})
	_, err := eng.Recommend(context.Background(), &prefs.Spec{City: "Atlantis"})
	assert.ErrorIs(t, err, anchor.ErrUnresolved)
}

func TestRecommend_NoCandidates(t *testing.T) {
	eng := newTestEngine(&staticProvider{venues: nil})
	_, err := eng.Recommend(context.Background(), &prefs.Spec{City: "Seattle"})
	assert.ErrorIs(t, err, search.ErrNoCandidates)
}

func TestRecommend_MaxResultsBound(t *testing.T) {
	provider := &staticProvider{venues: []venue.Venue{
		rated("A", 4.0, 0.001),
		rated("B", 4.1, 0.002),
		rated("C", 4.2, 0.003),
		rated("D", 4.3, 0.004),
	}}
	eng := newTestEngine(provider, WithResultBounds(4, 2))

	rec, err := eng.Recommend(context.Background(), &prefs.Spec{City: "Seattle"})
	require.NoError(t, err)
	assert.Len(t, rec.Candidates, 2)
}

func TestRecommend_RerankPassReorders(t *testing.T) {
	provider := &staticProvider{venues: []venue.Venue{
		rated("Favored Last", 3.0, 0.003),
		rated("Top Rated", 5.0, 0.001),
	}}
	relevance := &fixedRelevance{scores: []float64{0.0, 1.0}}
	reranker := rank.NewReranker(relevance, config.RerankConfig{TopN: 10, Weight: 1.0})
	eng := newTestEngine(provider, WithResultBounds(2, 10), WithReranker(reranker))

	rec, err := eng.Recommend(context.Background(), &prefs.Spec{City: "Seattle"})
	require.NoError(t, err)
	require.Len(t, rec.Candidates, 2)

	// With full rerank weight, the external relevance order wins outright.
	assert.Equal(t, "Favored Last", rec.Candidates[0].Venue.Name)
}
