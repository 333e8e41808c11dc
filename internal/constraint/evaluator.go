package constraint

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/tablescout/internal/cuisine"
	"github.com/sells-group/tablescout/internal/hours"
	"github.com/sells-group/tablescout/internal/prefs"
	"github.com/sells-group/tablescout/internal/venue"
)

// Relaxed-window floors used when a strict opening check would otherwise
// empty an all-unknown result set.
const (
	relaxedStartFloorMin    = 20 * 60
	relaxedDurationFloorMin = 45
	relaxedShiftMin         = 15
)

// Evaluator applies cuisine and opening-hours constraints to venue lists.
// It never mutates venues; results are recorded in the annotation Set.
type Evaluator struct {
	table *cuisine.Table
}

// NewEvaluator creates an evaluator over the given pattern table.
func NewEvaluator(table *cuisine.Table) *Evaluator {
	if table == nil {
		table = cuisine.Default()
	}
	return &Evaluator{table: table}
}

// FilterCuisine applies the excluded-cuisine filter (hard drop) and, when
// enforceRequired is set, tags venues that fail the required-cuisine match
// with ViolationMissingRequiredCuisine. Required matching is advisory: the
// venue is kept so the scorer can demote it to tier 2 instead of the
// search silently returning nothing.
func (e *Evaluator) FilterCuisine(venues []venue.Venue, sp *prefs.Spec, enforceRequired bool, ann *Set) []venue.Venue {
	excludeSpicy := false
	for _, ex := range sp.MustExclude {
		if strings.EqualFold(strings.TrimSpace(ex), "spicy") {
			excludeSpicy = true
		}
	}

	out := make([]venue.Venue, 0, len(venues))
	for _, v := range venues {
		if excludeSpicy && e.table.IsSpicy(v) {
			continue
		}
		if enforceRequired && len(sp.MustInclude) > 0 && !e.matchesAllRequired(v, sp.MustInclude) {
			ann.Of(v).Add(ViolationMissingRequiredCuisine)
		}
		out = append(out, v)
	}
	return out
}

func (e *Evaluator) matchesAllRequired(v venue.Venue, required []string) bool {
	for _, req := range required {
		if !e.table.MatchesRequired(v, req) {
			return false
		}
	}
	return true
}

// FilterOpen applies the opening-hours constraint for the spec's requested
// dining window. Venues evaluating Open are kept; Unknown is kept but
// tagged when the check is lenient; everything else is dropped. When a
// strict check leaves nothing and every venue was Unknown, one relaxed
// retry runs with the start pulled earlier and the duration shortened,
// and its survivors are tagged ViolationOpeningRelaxed.
func (e *Evaluator) FilterOpen(venues []venue.Venue, sp *prefs.Spec, ann *Set) []venue.Venue {
	day, startMin, ok := sp.DiningWindow()
	if !ok || startMin == 0 {
		return venues
	}
	duration := sp.Duration()

	kept := make([]venue.Venue, 0, len(venues))
	allUnknown := true
	for _, v := range venues {
		status := hours.EvaluateWindow(v.OpeningHours, day, startMin, duration)
		a := ann.Of(v)
		a.Open = status
		if status != hours.Unknown {
			allUnknown = false
		}

		switch {
		case status == hours.Open:
			kept = append(kept, v)
		case status == hours.Unknown && !sp.StrictOpenCheck:
			a.Add(ViolationOpeningHoursUnknown)
			kept = append(kept, v)
		}
	}

	if len(kept) > 0 || !sp.StrictOpenCheck || !allUnknown || len(venues) == 0 {
		return kept
	}

	// Strict check emptied an all-unknown set. Retry once with a relaxed
	// window; keep venues that are open (or still unknown) under it.
	relaxedStart := max(startMin-relaxedShiftMin, relaxedStartFloorMin)
	relaxedDuration := max(relaxedDurationFloorMin, duration-relaxedShiftMin)

	zap.L().Debug("opening check: all hours unknown under strict mode, retrying relaxed",
		zap.Int("start_min", startMin),
		zap.Int("relaxed_start_min", relaxedStart),
		zap.Int("relaxed_duration_min", relaxedDuration),
	)

	for _, v := range venues {
		status := hours.EvaluateWindow(v.OpeningHours, day, relaxedStart, relaxedDuration)
		if status == hours.Closed {
			continue
		}
		a := ann.Of(v)
		a.Open = status
		a.Add(ViolationOpeningRelaxed)
		if status == hours.Unknown {
			a.Add(ViolationOpeningHoursUnknown)
		}
		kept = append(kept, v)
	}
	return kept
}
