// Package constraint evaluates a preference spec against raw venue lists.
// Venues stay immutable; everything the evaluation learns about a venue is
// recorded in a request-local Set keyed by the venue's dedup identity.
package constraint

import (
	"fmt"
	"strings"

	"github.com/sells-group/tablescout/internal/hours"
	"github.com/sells-group/tablescout/internal/venue"
)

// Violation tags recorded against venues during search and evaluation.
const (
	ViolationMissingRequiredCuisine = "missing_required_cuisine"
	ViolationClosedAtRequestedTime  = "closed_at_requested_time"
	ViolationOpeningHoursUnknown    = "opening_hours_unknown"
	ViolationOpeningRelaxed         = "opening_relaxed"
	ViolationRadiusExpanded         = "radius_expanded"
)

const categoryRelaxedPrefix = "category_relaxed:"

// CategoryRelaxed builds the violation tag for a category substitution.
func CategoryRelaxed(from, to string) string {
	return fmt.Sprintf("%s%s->%s", categoryRelaxedPrefix, from, to)
}

// IsCategoryRelaxation reports whether tag marks a category substitution.
func IsCategoryRelaxation(tag string) bool {
	return strings.HasPrefix(tag, categoryRelaxedPrefix)
}

// Annotation is the per-venue evaluation record.
type Annotation struct {
	Open       hours.Status
	Violations []string
}

// Set is the side-table of annotations for one search. It is request-local
// and never shared between requests.
type Set struct {
	m map[venue.Key]*Annotation
}

// NewSet creates an empty annotation set.
func NewSet() *Set {
	return &Set{m: make(map[venue.Key]*Annotation)}
}

// Of returns the annotation for a venue, creating it on first access.
func (s *Set) Of(v venue.Venue) *Annotation {
	k := venue.KeyOf(v)
	a, ok := s.m[k]
	if !ok {
		a = &Annotation{}
		s.m[k] = a
	}
	return a
}

// Violations returns the recorded violation tags for a venue, in the order
// they were added.
func (s *Set) Violations(v venue.Venue) []string {
	if a, ok := s.m[venue.KeyOf(v)]; ok {
		return a.Violations
	}
	return nil
}

// OpenStatus returns the recorded opening status for a venue.
func (s *Set) OpenStatus(v venue.Venue) hours.Status {
	if a, ok := s.m[venue.KeyOf(v)]; ok {
		return a.Open
	}
	return hours.Unknown
}

// Add records a violation tag, skipping exact duplicates. Venues can pass
// through the evaluator more than once as the search radius grows.
func (a *Annotation) Add(tag string) {
	for _, existing := range a.Violations {
		if existing == tag {
			return
		}
	}
	a.Violations = append(a.Violations, tag)
}

// Has reports whether the tag was recorded.
func (a *Annotation) Has(tag string) bool {
	for _, existing := range a.Violations {
		if existing == tag {
			return true
		}
	}
	return false
}
