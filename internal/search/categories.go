package search

import (
	"strings"

	"github.com/sells-group/tablescout/internal/constraint"
)

// Attempt is one entry in the ordered category policy: the provider
// category to query, the violation tag when the category is a relaxation
// of the requested one (empty for exact categories), and whether the
// required-cuisine match is enforced (soft-tagged) on the results.
type Attempt struct {
	Category        string
	Violation       string
	EnforceRequired bool
}

// Relaxed reports whether the attempt substitutes a broader category.
func (a Attempt) Relaxed() bool { return a.Violation != "" }

// AttemptsFor selects the category attempt list for a required-cuisine
// set. Cuisines with a distinct provider category (pizza, hotpot, the
// Sichuan/spicy cluster) try the specific category first, then broader
// fallbacks tagged as relaxations. Everything else gets a single generic
// restaurant attempt.
func AttemptsFor(required []string) []Attempt {
	var pizza, hotpot, spicy bool
	for _, req := range required {
		req = strings.ToLower(strings.TrimSpace(req))
		switch {
		case strings.Contains(req, "pizza"):
			pizza = true
		case strings.Contains(req, "hotpot") || strings.Contains(req, "hot pot"):
			hotpot = true
		case strings.Contains(req, "sichuan") || strings.Contains(req, "szechuan") || strings.Contains(req, "spicy"):
			spicy = true
		}
	}

	switch {
	case pizza:
		return []Attempt{
			{Category: "catering.pizza", EnforceRequired: true},
			{Category: "catering.italian", Violation: constraint.CategoryRelaxed("pizza", "italian")},
			{Category: "catering.restaurant", Violation: constraint.CategoryRelaxed("pizza", "restaurant")},
		}
	case hotpot:
		return []Attempt{
			{Category: "catering.restaurant.asian", EnforceRequired: true},
			{Category: "catering.restaurant", Violation: constraint.CategoryRelaxed("hotpot", "restaurant")},
		}
	case spicy:
		return []Attempt{
			{Category: "catering.restaurant.chinese", EnforceRequired: true},
			{Category: "catering.restaurant.asian", Violation: constraint.CategoryRelaxed("chinese", "asian")},
			{Category: "catering.restaurant", Violation: constraint.CategoryRelaxed("chinese", "restaurant")},
		}
	default:
		return []Attempt{
			{Category: "catering.restaurant", EnforceRequired: true},
		}
	}
}
