// Package rank turns the venues a search collected into a scored, tiered,
// length-bounded candidate list, and optionally blends in an external
// relevance-scoring pass.
package rank

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/paulmach/orb"

	"github.com/sells-group/tablescout/internal/config"
	"github.com/sells-group/tablescout/internal/constraint"
	"github.com/sells-group/tablescout/internal/cuisine"
	"github.com/sells-group/tablescout/internal/geo"
	"github.com/sells-group/tablescout/internal/hours"
	"github.com/sells-group/tablescout/internal/prefs"
	"github.com/sells-group/tablescout/internal/venue"
)

// Match tiers. Tier 1 fully satisfies the hard constraints; tier 2 is a
// relaxed fallback demoted below every tier-1 candidate.
const (
	TierQualified = 1
	TierRelaxed   = 2
)

// SubScores is the per-factor breakdown behind a candidate's score.
type SubScores struct {
	Cuisine  float64 `json:"cuisine"`
	Distance float64 `json:"distance"`
	Rating   float64 `json:"rating"`
	Ambience float64 `json:"ambience"`
	Website  float64 `json:"website"`
}

// Candidate is a venue ready for presentation: scored, tiered, and
// annotated with its violation history. Only the rerank pass mutates a
// candidate after creation, and only its Score.
type Candidate struct {
	Venue          venue.Venue `json:"venue"`
	Score          float64     `json:"score"`
	Tier           int         `json:"tier"`
	SubScores      SubScores   `json:"sub_scores"`
	DistanceKm     float64     `json:"distance_km"`
	DistanceMiles  float64     `json:"distance_miles"`
	Pros           []string    `json:"pros,omitempty"`
	Cons           []string    `json:"cons,omitempty"`
	Violations     []string    `json:"violations,omitempty"`
	CuisineLabels  []string    `json:"cuisine_labels,omitempty"`
	AmbienceLabels []string    `json:"ambience_labels,omitempty"`
	Reliability    float64     `json:"reliability"`
	OpenOK         bool        `json:"open_ok"`
}

// Scorer computes candidate scores and assembles the final ordered list.
type Scorer struct {
	table *cuisine.Table
	cfg   config.ScorerConfig
}

// NewScorer creates a Scorer. Zero-valued weights fall back to defaults.
func NewScorer(table *cuisine.Table, cfg config.ScorerConfig) *Scorer {
	if table == nil {
		table = cuisine.Default()
	}
	return &Scorer{table: table, cfg: applyScorerDefaults(cfg)}
}

func applyScorerDefaults(cfg config.ScorerConfig) config.ScorerConfig {
	if cfg.CuisineWeight == 0 && cfg.DistanceWeight == 0 && cfg.RatingWeight == 0 &&
		cfg.AmbienceWeight == 0 && cfg.WebsiteWeight == 0 {
		cfg.CuisineWeight = 0.35
		cfg.DistanceWeight = 0.25
		cfg.RatingWeight = 0.25
		cfg.AmbienceWeight = 0.10
		cfg.WebsiteWeight = 0.05
	}
	if cfg.MissingCuisinePenalty == 0 {
		cfg.MissingCuisinePenalty = 0.3
	}
	if cfg.CategoryRelaxPenalty == 0 {
		cfg.CategoryRelaxPenalty = 0.1
	}
	return cfg
}

// Rank scores every venue and returns at most maxResults candidates.
// Candidates that are open (or unknown under a lenient check) fill first,
// sorted by (tier ascending, score descending); closed or strict-unknown
// candidates backfill remaining slots in the same order. Deterministic for
// identical inputs.
func (s *Scorer) Rank(sp *prefs.Spec, venues []venue.Venue, ann *constraint.Set, anchor orb.Point, maxResults int) []Candidate {
	if maxResults < 1 {
		maxResults = 1
	}

	prefCuisines := sp.PreferredCuisines()
	prefAmbience := normalizeAll(sp.Ambiance)

	radiusKm := sp.DistanceKm
	if radiusKm == 0 {
		radiusKm = 1.0
	}
	radiusKm = math.Max(radiusKm, 0.5)

	var qualified, fallback []Candidate
	for _, v := range venues {
		c := s.score(sp, v, ann, anchor, prefCuisines, prefAmbience, radiusKm)
		open := ann.OpenStatus(v)
		if open == hours.Closed || (open == hours.Unknown && sp.StrictOpenCheck) {
			fallback = append(fallback, c)
		} else {
			qualified = append(qualified, c)
		}
	}

	sortCandidates(qualified)
	sortCandidates(fallback)

	results := make([]Candidate, 0, maxResults)
	results = append(results, qualified[:min(len(qualified), maxResults)]...)
	if remaining := maxResults - len(results); remaining > 0 {
		results = append(results, fallback[:min(len(fallback), remaining)]...)
	}
	return results
}

func (s *Scorer) score(sp *prefs.Spec, v venue.Venue, ann *constraint.Set, anchor orb.Point, prefCuisines, prefAmbience []string, radiusKm float64) Candidate {
	labels := s.table.Detect(v)
	ambience := s.table.DetectAmbience(v)

	distKm := geo.DistanceKm(anchor, v.Point)
	distMi := distKm * geo.KmToMiles

	sub := SubScores{
		Distance: math.Max(0, 1.0-distKm/radiusKm),
		Rating:   ratingScore(v.Rating),
	}
	if v.Website != "" {
		sub.Website = 1.0
	}

	switch {
	case len(labels) > 0:
		sub.Cuisine = 0.8
		if cuisine.Intersects(prefCuisines, labels) {
			sub.Cuisine = 1.0
		}
	case len(prefCuisines) > 0:
		sub.Cuisine = 0.2
	default:
		sub.Cuisine = 0.5
	}

	switch {
	case len(prefAmbience) > 0:
		if cuisine.Intersects(prefAmbience, ambience) {
			sub.Ambience = 1.0
		} else {
			sub.Ambience = 0.3
		}
	case len(ambience) > 0:
		sub.Ambience = 0.7
	default:
		sub.Ambience = 0.5
	}

	reliability := sub.Rating*0.5 + sub.Website*0.2 + math.Min(float64(len(labels)), 3)/3.0*0.3

	violations := append([]string(nil), ann.Violations(v)...)
	open := ann.OpenStatus(v)
	if open == hours.Closed {
		violations = addTag(violations, constraint.ViolationClosedAtRequestedTime)
	} else if open == hours.Unknown && sp.StrictOpenCheck {
		violations = addTag(violations, constraint.ViolationOpeningHoursUnknown)
	}

	matchCuisine := len(labels) > 0
	if len(prefCuisines) > 0 {
		matchCuisine = cuisine.Intersects(prefCuisines, labels)
	}
	if len(sp.MustInclude) > 0 && !matchCuisine {
		violations = addTag(violations, constraint.ViolationMissingRequiredCuisine)
	}

	var penalty float64
	if hasTag(violations, constraint.ViolationMissingRequiredCuisine) {
		penalty += s.cfg.MissingCuisinePenalty
	}
	for _, tag := range violations {
		if constraint.IsCategoryRelaxation(tag) {
			penalty += s.cfg.CategoryRelaxPenalty
			break
		}
	}

	total := sub.Cuisine*s.cfg.CuisineWeight +
		sub.Distance*s.cfg.DistanceWeight +
		sub.Rating*s.cfg.RatingWeight +
		sub.Ambience*s.cfg.AmbienceWeight +
		sub.Website*s.cfg.WebsiteWeight -
		penalty

	tier := TierQualified
	if hasTag(violations, constraint.ViolationMissingRequiredCuisine) {
		tier = TierRelaxed
	}

	pros, cons := explain(sp, v, labels, ambience, prefCuisines, prefAmbience, distMi)

	return Candidate{
		Venue:          v,
		Score:          round4(total),
		Tier:           tier,
		SubScores:      sub,
		DistanceKm:     round3(distKm),
		DistanceMiles:  round3(distMi),
		Pros:           pros,
		Cons:           cons,
		Violations:     violations,
		CuisineLabels:  labels,
		AmbienceLabels: ambience,
		Reliability:    round4(reliability),
		OpenOK:         open == hours.Open || (open == hours.Unknown && !sp.StrictOpenCheck),
	}
}

func explain(sp *prefs.Spec, v venue.Venue, labels, ambience, prefCuisines, prefAmbience []string, distMi float64) (pros, cons []string) {
	if len(labels) > 0 {
		pros = append(pros, "Cuisine match: "+strings.Join(labels, ", "))
	} else if len(prefCuisines) > 0 {
		cons = append(cons, "Cuisine preference not explicitly detected")
	}

	if len(ambience) > 0 && len(prefAmbience) > 0 {
		pros = append(pros, "Ambience keywords: "+strings.Join(ambience, ", "))
	} else if len(prefAmbience) > 0 {
		cons = append(cons, "Ambience preference not confirmed")
	}

	if v.Rating != nil {
		pros = append(pros, fmt.Sprintf("Average rating %.1f", *v.Rating))
	} else {
		cons = append(cons, "Rating unavailable")
	}

	pros = append(pros, fmt.Sprintf("Approx. %.1f miles from target area", distMi))

	if sp.BudgetPerPerson > 0 {
		cons = append(cons, "Budget not verified against menu prices")
	}
	return pros, cons
}

// sortCandidates orders by tier ascending, then score descending. The sort
// is stable so equal candidates keep input order.
func sortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Tier != cands[j].Tier {
			return cands[i].Tier < cands[j].Tier
		}
		return cands[i].Score > cands[j].Score
	})
}

func ratingScore(rating *float64) float64 {
	if rating == nil {
		return 0.4
	}
	return math.Min(math.Max(*rating/5.0, 0.0), 1.0)
}

func addTag(tags []string, tag string) []string {
	if hasTag(tags, tag) {
		return tags
	}
	return append(tags, tag)
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func normalizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func round3(f float64) float64 { return math.Round(f*1e3) / 1e3 }

func round4(f float64) float64 { return math.Round(f*1e4) / 1e4 }
