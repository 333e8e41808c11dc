// Package anchor resolves a preference spec to the single geographic point
// the search radius is centered on. Strategies run in a fixed priority
// order; geocoder failures fall through to the next strategy and only
// total exhaustion is an error.
package anchor

import (
	"context"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tablescout/internal/gazetteer"
	"github.com/sells-group/tablescout/internal/prefs"
	"github.com/sells-group/tablescout/pkg/geoapify"
)

// ErrUnresolved is returned when every anchor strategy yields nothing.
// It is a user-correctable input error, not a provider failure.
var ErrUnresolved = eris.New("anchor: unable to locate the requested city or area")

// Geocoder is the forward-geocoding capability the resolver consults.
// A (nil, nil) return means the text had no match.
type Geocoder interface {
	Geocode(ctx context.Context, text, lang string) (*geoapify.GeocodeResult, error)
}

// Anchor is the resolved search center.
type Anchor struct {
	Point orb.Point        `json:"point"`
	Type  prefs.AnchorType `json:"type"`
	Label string           `json:"label"`
}

// Resolver runs the anchor strategy chain.
type Resolver struct {
	geocoder  Geocoder
	gazetteer *gazetteer.Index
	lang      string
}

// NewResolver creates a Resolver. A nil gazetteer uses the embedded one.
func NewResolver(geocoder Geocoder, gaz *gazetteer.Index, defaultLang string) *Resolver {
	if gaz == nil {
		gaz = gazetteer.Default()
	}
	if defaultLang == "" {
		defaultLang = "en"
	}
	return &Resolver{geocoder: geocoder, gazetteer: gaz, lang: defaultLang}
}

// Resolve picks the anchor for a spec, trying: explicit coordinates, POI
// geocode, ZIP geocode, static gazetteer, free-text geocode (city+area,
// then city alone). The winning type and label are recorded back into the
// spec.
func (r *Resolver) Resolve(ctx context.Context, sp *prefs.Spec) (Anchor, error) {
	lang := sp.Lang
	if lang == "" {
		lang = r.lang
	}

	strategies := []func(context.Context, *prefs.Spec, string) *Anchor{
		r.fromCoordinates,
		r.fromPOI,
		r.fromZip,
		r.fromGazetteer,
		r.fromFreeText,
	}
	for _, strategy := range strategies {
		if a := strategy(ctx, sp, lang); a != nil {
			sp.AnchorType = a.Type
			sp.AnchorLabel = a.Label
			return *a, nil
		}
	}

	return Anchor{}, eris.Wrapf(ErrUnresolved, "city %q area %q", sp.City, sp.Area)
}

func (r *Resolver) fromCoordinates(_ context.Context, sp *prefs.Spec, _ string) *Anchor {
	if sp.AnchorPoint == nil {
		return nil
	}
	return &Anchor{Point: *sp.AnchorPoint, Type: prefs.AnchorCoord, Label: sp.City}
}

func (r *Resolver) fromPOI(ctx context.Context, sp *prefs.Spec, lang string) *Anchor {
	if sp.POI == "" {
		return nil
	}

	// Disambiguate the POI with the city unless it already names it.
	query := sp.POI
	if sp.City != "" && !strings.Contains(strings.ToLower(query), strings.ToLower(sp.City)) {
		query = sp.POI + " " + sp.City
	}

	if pt, ok := r.geocode(ctx, query, lang, "poi"); ok {
		return &Anchor{Point: pt, Type: prefs.AnchorPOI, Label: sp.POI}
	}
	return nil
}

func (r *Resolver) fromZip(ctx context.Context, sp *prefs.Spec, lang string) *Anchor {
	if sp.Zip == "" {
		return nil
	}
	if pt, ok := r.geocode(ctx, sp.Zip, lang, "zip"); ok {
		return &Anchor{Point: pt, Type: prefs.AnchorZip, Label: sp.Zip}
	}
	return nil
}

func (r *Resolver) fromGazetteer(_ context.Context, sp *prefs.Spec, _ string) *Anchor {
	match, ok := r.gazetteer.Lookup(sp.City, sp.Area)
	if !ok {
		return nil
	}
	if sp.Area != "" && match.AreaFound {
		return &Anchor{Point: match.Point, Type: prefs.AnchorArea, Label: sp.Area}
	}
	return &Anchor{Point: match.Point, Type: prefs.AnchorCity, Label: match.City}
}

func (r *Resolver) fromFreeText(ctx context.Context, sp *prefs.Spec, lang string) *Anchor {
	if sp.City == "" && sp.Area == "" {
		return nil
	}

	text := sp.City
	if sp.Area != "" && !strings.Contains(text, sp.Area) {
		text = strings.TrimSpace(sp.City + " " + sp.Area)
	}

	if pt, ok := r.geocode(ctx, text, lang, "free-text"); ok {
		return &Anchor{Point: pt, Type: prefs.AnchorCity, Label: text}
	}
	if sp.City != "" && text != sp.City {
		if pt, ok := r.geocode(ctx, sp.City, lang, "free-text"); ok {
			return &Anchor{Point: pt, Type: prefs.AnchorCity, Label: sp.City}
		}
	}
	return nil
}

// geocode wraps the capability call; provider errors are swallowed so the
// chain proceeds to the next strategy.
func (r *Resolver) geocode(ctx context.Context, text, lang, strategy string) (orb.Point, bool) {
	result, err := r.geocoder.Geocode(ctx, text, lang)
	if err != nil {
		zap.L().Debug("anchor: geocode failed, trying next strategy",
			zap.String("strategy", strategy),
			zap.String("text", text),
			zap.Error(err),
		)
		return orb.Point{}, false
	}
	if result == nil {
		return orb.Point{}, false
	}
	return result.Point, true
}
