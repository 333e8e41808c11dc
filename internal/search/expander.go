// Package search implements the expanding-radius, category-relaxing
// candidate search against the places provider. Starting from the spec's
// radius it queries each category attempt, evaluates constraints, and
// grows the radius until enough venues are collected or the maximum
// radius is exhausted.
package search

import (
	"context"
	"math"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tablescout/internal/config"
	"github.com/sells-group/tablescout/internal/constraint"
	"github.com/sells-group/tablescout/internal/geo"
	"github.com/sells-group/tablescout/internal/prefs"
	"github.com/sells-group/tablescout/internal/venue"
	"github.com/sells-group/tablescout/pkg/geoapify"
)

// ErrNoCandidates is returned when the full radius/category expansion
// space was exhausted with nothing collected and no relaxed capture.
var ErrNoCandidates = eris.New("search: no venues matched within the maximum radius")

// Hard floor/ceiling on the search radius.
const (
	MinRadiusKm = 0.5
	MaxRadiusKm = 20.0
)

const radiusEpsilon = 1e-6

// PlacesProvider is the provider capability the expander queries.
// Provider errors are treated as "no results for this attempt", never as
// hard failures.
type PlacesProvider interface {
	PlacesCircle(ctx context.Context, q geoapify.CircleQuery) ([]venue.Venue, error)
	PlacesRect(ctx context.Context, q geoapify.RectQuery) ([]venue.Venue, error)
}

// Result is a completed search: collected venues, their annotations, the
// final bounding box, and the radius that produced it.
type Result struct {
	Venues      []venue.Venue
	Annotations *constraint.Set
	BBox        orb.Bound
	RadiusKm    float64
}

// Expander orchestrates the radius/category expansion loop.
type Expander struct {
	provider  PlacesProvider
	evaluator *constraint.Evaluator
	cfg       config.SearchConfig
}

// NewExpander creates an Expander. Zero-valued config fields fall back to
// defaults.
func NewExpander(provider PlacesProvider, evaluator *constraint.Evaluator, cfg config.SearchConfig) *Expander {
	if cfg.MaxRadiusKm <= 0 {
		cfg.MaxRadiusKm = MaxRadiusKm
	}
	if cfg.PaddingKm <= 0 {
		cfg.PaddingKm = 0.6
	}
	if cfg.CircleLimit <= 0 {
		cfg.CircleLimit = 20
	}
	if cfg.RectLimit <= 0 {
		cfg.RectLimit = 50
	}
	if cfg.DefaultDistanceKm <= 0 {
		cfg.DefaultDistanceKm = 3.0
	}
	if cfg.DefaultLang == "" {
		cfg.DefaultLang = "en"
	}
	return &Expander{provider: provider, evaluator: evaluator, cfg: cfg}
}

// Search runs the expansion loop around the anchor until minResults venues
// are collected or the maximum radius is exhausted. The radius actually
// searched is recorded back into the spec. Relaxed-category results are
// held aside and returned only when nothing exact ever appears.
func (x *Expander) Search(ctx context.Context, sp *prefs.Spec, anchor orb.Point, minResults int) (*Result, error) {
	if minResults < 1 {
		minResults = 1
	}

	lang := sp.Lang
	if lang == "" {
		lang = x.cfg.DefaultLang
	}

	baseRadius := sp.DistanceKm
	if baseRadius <= 0 {
		baseRadius = x.cfg.DefaultDistanceKm
	}
	baseRadius = math.Max(baseRadius, MinRadiusKm)

	attempts := AttemptsFor(sp.MustInclude)
	ann := constraint.NewSet()
	seen := make(map[venue.Key]struct{})
	var collected []venue.Venue
	var relaxedCapture *Result
	var bbox orb.Bound

	radius := baseRadius
	for radius <= x.cfg.MaxRadiusKm+radiusEpsilon {
		effectiveRadius := radius + x.cfg.PaddingKm
		bbox = geo.ExpandFromCenter(anchor, effectiveRadius)

		for _, attempt := range attempts {
			places := x.query(ctx, anchor, effectiveRadius, bbox, attempt.Category, lang)
			if len(places) == 0 {
				continue
			}

			places = venue.Dedupe(places)
			working := x.evaluator.FilterCuisine(places, sp, attempt.EnforceRequired, ann)
			working = x.evaluator.FilterOpen(working, sp, ann)
			if len(working) == 0 {
				continue
			}

			for _, v := range working {
				a := ann.Of(v)
				if radius > baseRadius+radiusEpsilon {
					a.Add(constraint.ViolationRadiusExpanded)
				}
				if attempt.Relaxed() {
					a.Add(attempt.Violation)
				}
			}

			if attempt.Relaxed() {
				// Hold the first relaxed hit aside and keep looking for an
				// exact-category match at this or a larger radius.
				if relaxedCapture == nil {
					relaxedCapture = &Result{
						Venues:      append([]venue.Venue(nil), working...),
						Annotations: ann,
						BBox:        bbox,
						RadiusKm:    radius,
					}
					zap.L().Debug("search: captured relaxed-category results",
						zap.String("category", attempt.Category),
						zap.Float64("radius_km", radius),
						zap.Int("venues", len(working)),
					)
				}
				continue
			}

			for _, v := range working {
				k := venue.KeyOf(v)
				if _, ok := seen[k]; ok {
					continue
				}
				seen[k] = struct{}{}
				collected = append(collected, v)
			}

			if len(collected) >= minResults {
				sp.DistanceKm = radius
				zap.L().Info("search: collected enough venues",
					zap.Float64("radius_km", radius),
					zap.Float64("base_radius_km", baseRadius),
					zap.Int("collected", len(collected)),
				)
				return &Result{
					Venues:      collected[:minResults],
					Annotations: ann,
					BBox:        bbox,
					RadiusKm:    radius,
				}, nil
			}
		}

		if radius >= x.cfg.MaxRadiusKm {
			break
		}
		radius = math.Min(x.cfg.MaxRadiusKm, radius+math.Max(2.0, radius*0.5))
	}

	if len(collected) > 0 {
		sp.DistanceKm = radius
		zap.L().Info("search: radius exhausted with partial results",
			zap.Float64("radius_km", radius),
			zap.Int("collected", len(collected)),
		)
		return &Result{Venues: collected, Annotations: ann, BBox: bbox, RadiusKm: radius}, nil
	}

	if relaxedCapture != nil {
		sp.DistanceKm = relaxedCapture.RadiusKm
		zap.L().Info("search: falling back to relaxed-category capture",
			zap.Float64("radius_km", relaxedCapture.RadiusKm),
			zap.Int("venues", len(relaxedCapture.Venues)),
		)
		return relaxedCapture, nil
	}

	return nil, eris.Wrapf(ErrNoCandidates, "last radius %.1f km", radius)
}

// query asks the provider for places by circle, falling back to the
// bounding rectangle when the circle is empty. Provider errors degrade to
// empty results so the expansion loop can continue.
func (x *Expander) query(ctx context.Context, anchor orb.Point, radiusKm float64, bbox orb.Bound, category, lang string) []venue.Venue {
	places, err := x.provider.PlacesCircle(ctx, geoapify.CircleQuery{
		Center:   anchor,
		RadiusKm: radiusKm,
		Category: category,
		Limit:    x.cfg.CircleLimit,
		Lang:     lang,
	})
	if err != nil {
		zap.L().Debug("search: circle query failed",
			zap.String("category", category),
			zap.Float64("radius_km", radiusKm),
			zap.Error(err),
		)
		places = nil
	}
	if len(places) > 0 {
		return places
	}

	places, err = x.provider.PlacesRect(ctx, geoapify.RectQuery{
		Bound:    bbox,
		Category: category,
		Limit:    x.cfg.RectLimit,
		Lang:     lang,
	})
	if err != nil {
		zap.L().Debug("search: rect query failed",
			zap.String("category", category),
			zap.Error(err),
		)
		return nil
	}
	return places
}
