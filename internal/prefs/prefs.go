// Package prefs defines the structured dining-preference query the engine
// consumes. Specs arrive from an upstream preference parser; the engine
// treats them as immutable except for recording the anchor actually used
// and the radius actually searched.
package prefs

import (
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"

	"github.com/sells-group/tablescout/internal/hours"
)

// ErrMissingLocation is returned by Validate when neither a city nor an
// explicit anchor coordinate is supplied.
var ErrMissingLocation = eris.New("prefs: a city or an explicit anchor coordinate is required")

// AnchorType classifies how the search anchor was resolved.
type AnchorType string

const (
	AnchorCoord AnchorType = "coord"
	AnchorPOI   AnchorType = "poi"
	AnchorZip   AnchorType = "zip"
	AnchorArea  AnchorType = "area"
	AnchorCity  AnchorType = "city"
)

// Spec is a parsed dining-preference query.
type Spec struct {
	City string `json:"city"`
	Area string `json:"area,omitempty"`

	// Anchor hints, in resolution priority order.
	AnchorPoint *orb.Point `json:"anchor_point,omitempty"`
	POI         string     `json:"poi,omitempty"`
	Zip         string     `json:"zip,omitempty"`

	Cuisines        []string `json:"cuisines,omitempty"`
	MustInclude     []string `json:"must_include_cuisines,omitempty"`
	MustExclude     []string `json:"must_exclude_cuisines,omitempty"`
	Ambiance        []string `json:"ambiance,omitempty"`
	People          int      `json:"people,omitempty"`
	BudgetPerPerson float64  `json:"budget_per_person,omitempty"`

	DistanceKm float64 `json:"distance_km,omitempty"`

	// DiningTime is a weekday+clock string like "we 19:00" or a bare
	// clock "19:00". DiningAt is an RFC 3339 timestamp; DiningTime wins
	// when both are set.
	DiningTime     string `json:"dining_time,omitempty"`
	DiningAt       string `json:"dining_at,omitempty"`
	MinDurationMin int    `json:"min_duration_min,omitempty"`

	StrictOpenCheck bool   `json:"strict_open_check"`
	Lang            string `json:"lang,omitempty"`

	// Written back by the engine so callers can see what actually ran.
	AnchorType  AnchorType `json:"anchor_type,omitempty"`
	AnchorLabel string     `json:"anchor_label,omitempty"`
}

// Validate checks the minimum contract for a runnable spec.
func (s *Spec) Validate() error {
	if strings.TrimSpace(s.City) == "" && s.AnchorPoint == nil {
		return ErrMissingLocation
	}
	return nil
}

// Duration returns the requested stay duration, defaulting to 60 minutes.
func (s *Spec) Duration() int {
	if s.MinDurationMin > 0 {
		return s.MinDurationMin
	}
	return 60
}

// PreferredCuisines returns the deduplicated union of soft cuisine
// preferences and hard requirements, lowercased, in input order.
func (s *Spec) PreferredCuisines() []string {
	seen := make(map[string]struct{}, len(s.Cuisines)+len(s.MustInclude))
	var out []string
	for _, c := range append(append([]string{}, s.Cuisines...), s.MustInclude...) {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// DiningWindow parses the requested dining day and start time. The day is
// a two-letter token ("mo".."su") or empty when only a clock time was
// given. ok is false when no usable time is present.
func (s *Spec) DiningWindow() (day string, startMin int, ok bool) {
	if s.DiningTime != "" {
		parts := strings.Fields(s.DiningTime)
		if len(parts) == 2 && len(parts[0]) >= 2 && isAlphaPrefix(parts[0]) {
			if min, valid := hours.ParseClock(parts[1]); valid {
				return strings.ToLower(parts[0])[:2], min, true
			}
			return "", 0, false
		}
		if min, valid := hours.ParseClock(s.DiningTime); valid {
			return "", min, true
		}
		return "", 0, false
	}

	if s.DiningAt != "" {
		t, err := time.Parse(time.RFC3339, s.DiningAt)
		if err != nil {
			return "", 0, false
		}
		// time.Weekday starts on Sunday; the schedule week starts Monday.
		day := hours.DayOrder[(int(t.Weekday())+6)%7]
		return day, t.Hour()*60 + t.Minute(), true
	}

	return "", 0, false
}

func isAlphaPrefix(s string) bool {
	for _, r := range s[:min(3, len(s))] {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
