package search

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tablescout/internal/config"
	"github.com/sells-group/tablescout/internal/constraint"
	"github.com/sells-group/tablescout/internal/prefs"
	"github.com/sells-group/tablescout/internal/venue"
	"github.com/sells-group/tablescout/pkg/geoapify"
)

var anchor = orb.Point{-122.3321, 47.6062}

type fakeProvider struct {
	circle func(q geoapify.CircleQuery) ([]venue.Venue, error)
	rect   func(q geoapify.RectQuery) ([]venue.Venue, error)

	circleCalls int
	rectCalls   int
}

func (f *fakeProvider) PlacesCircle(_ context.Context, q geoapify.CircleQuery) ([]venue.Venue, error) {
	f.circleCalls++
	if f.circle == nil {
		return nil, nil
	}
	return f.circle(q)
}

func (f *fakeProvider) PlacesRect(_ context.Context, q geoapify.RectQuery) ([]venue.Venue, error) {
	f.rectCalls++
	if f.rect == nil {
		return nil, nil
	}
	return f.rect(q)
}

func nearbyVenues(names ...string) []venue.Venue {
	out := make([]venue.Venue, len(names))
	for i, name := range names {
		out[i] = venue.Venue{
			Name:  name,
			Point: orb.Point{anchor.Lon() + float64(i)*0.001, anchor.Lat()},
		}
	}
	return out
}

func newTestExpander(p PlacesProvider, cfg config.SearchConfig) *Expander {
	return NewExpander(p, constraint.NewEvaluator(nil), cfg)
}

func TestSearch_CollectsAtBaseRadius(t *testing.T) {
	provider := &fakeProvider{
		circle: func(q geoapify.CircleQuery) ([]venue.Venue, error) {
			return nearbyVenues("One", "Two", "Three"), nil
		},
	}
	x := newTestExpander(provider, config.SearchConfig{})
	sp := &prefs.Spec{City: "Seattle", DistanceKm: 2}

	res, err := x.Search(context.Background(), sp, anchor, 2)
	require.NoError(t, err)

	// Short-circuits at minResults and records the radius actually used.
	assert.Len(t, res.Venues, 2)
	assert.Equal(t, 2.0, res.RadiusKm)
	assert.Equal(t, 2.0, sp.DistanceKm)
	assert.Empty(t, res.Annotations.Violations(res.Venues[0]))
	assert.True(t, res.BBox.Contains(anchor))
}

func TestSearch_ExpandsRadiusAndTags(t *testing.T) {
	provider := &fakeProvider{
		circle: func(q geoapify.CircleQuery) ([]venue.Venue, error) {
			// Nothing inside the base radius; hits appear once the loop grows.
			if q.RadiusKm < 3 {
				return nil, nil
			}
			return nearbyVenues("Far One", "Far Two"), nil
		},
	}
	x := newTestExpander(provider, config.SearchConfig{})
	sp := &prefs.Spec{City: "Seattle", DistanceKm: 1}

	res, err := x.Search(context.Background(), sp, anchor, 2)
	require.NoError(t, err)

	require.Len(t, res.Venues, 2)
	assert.Greater(t, res.RadiusKm, 1.0)
	assert.Equal(t, res.RadiusKm, sp.DistanceKm)
	for _, v := range res.Venues {
		assert.Contains(t, res.Annotations.Violations(v), constraint.ViolationRadiusExpanded)
	}
}

func TestSearch_RectFallbackOnCircleError(t *testing.T) {
	provider := &fakeProvider{
		circle: func(q geoapify.CircleQuery) ([]venue.Venue, error) {
			return nil, errors.New("circle endpoint down")
		},
		rect: func(q geoapify.RectQuery) ([]venue.Venue, error) {
			return nearbyVenues("Rect Hit"), nil
		},
	}
	x := newTestExpander(provider, config.SearchConfig{})
	sp := &prefs.Spec{City: "Seattle", DistanceKm: 2}

	res, err := x.Search(context.Background(), sp, anchor, 1)
	require.NoError(t, err)
	require.Len(t, res.Venues, 1)
	assert.Equal(t, "Rect Hit", res.Venues[0].Name)
	assert.GreaterOrEqual(t, provider.rectCalls, 1)
}

func TestSearch_DeduplicatesAcrossIterations(t *testing.T) {
	provider := &fakeProvider{
		circle: func(q geoapify.CircleQuery) ([]venue.Venue, error) {
			// Same venue every time plus one unique hit at a larger radius.
			vs := nearbyVenues("Constant")
			if q.RadiusKm > 3 {
				vs = append(vs, nearbyVenues("", "Late Arrival")[1])
			}
			return vs, nil
		},
	}
	x := newTestExpander(provider, config.SearchConfig{})
	sp := &prefs.Spec{City: "Seattle", DistanceKm: 1}

	res, err := x.Search(context.Background(), sp, anchor, 2)
	require.NoError(t, err)
	require.Len(t, res.Venues, 2)
	assert.Equal(t, "Constant", res.Venues[0].Name)
	assert.Equal(t, "Late Arrival", res.Venues[1].Name)
}

func TestSearch_RelaxedCaptureFallback(t *testing.T) {
	provider := &fakeProvider{
		circle: func(q geoapify.CircleQuery) ([]venue.Venue, error) {
			// The exact pizza category never matches; the broader italian
			// category does.
			if q.Category == "catering.italian" {
				return nearbyVenues("Trattoria"), nil
			}
			return nil, nil
		},
	}
	x := newTestExpander(provider, config.SearchConfig{MaxRadiusKm: 5})
	sp := &prefs.Spec{City: "Seattle", DistanceKm: 1, MustInclude: []string{"pizza"}}

	res, err := x.Search(context.Background(), sp, anchor, 2)
	require.NoError(t, err)

	require.Len(t, res.Venues, 1)
	assert.Equal(t, "Trattoria", res.Venues[0].Name)
	assert.Equal(t, 1.0, res.RadiusKm) // captured on the first pass
	assert.Contains(t, res.Annotations.Violations(res.Venues[0]),
		constraint.CategoryRelaxed("pizza", "italian"))
}

func TestSearch_ExactMatchPreferredOverRelaxed(t *testing.T) {
	provider := &fakeProvider{
		circle: func(q geoapify.CircleQuery) ([]venue.Venue, error) {
			switch q.Category {
			case "catering.italian":
				return nearbyVenues("Trattoria"), nil
			case "catering.pizza":
				if q.RadiusKm > 3 {
					return nearbyVenues("True Pizzeria"), nil
				}
			}
			return nil, nil
		},
	}
	x := newTestExpander(provider, config.SearchConfig{MaxRadiusKm: 5})
	sp := &prefs.Spec{City: "Seattle", DistanceKm: 1, MustInclude: []string{"pizza"}}

	res, err := x.Search(context.Background(), sp, anchor, 1)
	require.NoError(t, err)

	// The relaxed capture from the first pass loses to the exact hit found
	// at a larger radius.
	require.Len(t, res.Venues, 1)
	assert.Equal(t, "True Pizzeria", res.Venues[0].Name)
}

func TestSearch_PartialResultsAfterExhaustion(t *testing.T) {
	provider := &fakeProvider{
		circle: func(q geoapify.CircleQuery) ([]venue.Venue, error) {
			return nearbyVenues("Only One"), nil
		},
	}
	x := newTestExpander(provider, config.SearchConfig{MaxRadiusKm: 5})
	sp := &prefs.Spec{City: "Seattle", DistanceKm: 1}

	res, err := x.Search(context.Background(), sp, anchor, 10)
	require.NoError(t, err)
	assert.Len(t, res.Venues, 1)
	assert.Equal(t, 5.0, res.RadiusKm)
}

func TestSearch_NoCandidates(t *testing.T) {
	x := newTestExpander(&fakeProvider{}, config.SearchConfig{MaxRadiusKm: 5})
	sp := &prefs.Spec{City: "Seattle", DistanceKm: 1}

	_, err := x.Search(context.Background(), sp, anchor, 1)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestSearch_OpeningFilterApplies(t *testing.T) {
	venues := []venue.Venue{
		{Name: "Evening Spot", Point: anchor, OpeningHours: "mo-su 17:00-23:00"},
		{Name: "Lunch Spot", Point: orb.Point{anchor.Lon() + 0.001, anchor.Lat()}, OpeningHours: "mo-su 11:00-14:00"},
	}
	provider := &fakeProvider{
		circle: func(q geoapify.CircleQuery) ([]venue.Venue, error) {
			return venues, nil
		},
	}
	x := newTestExpander(provider, config.SearchConfig{MaxRadiusKm: 5})
	sp := &prefs.Spec{City: "Seattle", DistanceKm: 1, DiningTime: "we 19:00"}

	res, err := x.Search(context.Background(), sp, anchor, 1)
	require.NoError(t, err)
	require.Len(t, res.Venues, 1)
	assert.Equal(t, "Evening Spot", res.Venues[0].Name)
}
