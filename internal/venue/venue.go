// Package venue defines the venue model produced by places providers and
// the identity key used to deduplicate venues across provider calls.
package venue

import (
	"math"
	"strings"

	"github.com/paulmach/orb"
)

// Venue is a single place returned by a provider. It is read-only once
// constructed; per-search state lives in constraint.Annotations, never here.
type Venue struct {
	Name         string    `json:"name"`
	Address      string    `json:"address,omitempty"`
	Point        orb.Point `json:"point"` // lon, lat
	Website      string    `json:"website,omitempty"`
	OpeningHours string    `json:"opening_hours,omitempty"`
	MapURL       string    `json:"map_url,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	Rating       *float64  `json:"rating,omitempty"`
}

// Key identifies a venue for deduplication: case-insensitive name plus
// coordinates rounded to 5 decimal places (~1.1 m).
type Key struct {
	Name string
	Lon  int64
	Lat  int64
}

// KeyOf builds the dedup key for a venue.
func KeyOf(v Venue) Key {
	return Key{
		Name: strings.ToLower(strings.TrimSpace(v.Name)),
		Lon:  round5(v.Point.Lon()),
		Lat:  round5(v.Point.Lat()),
	}
}

// SearchText concatenates the fields cuisine and ambience matchers run
// against: name, address, and tags.
func (v Venue) SearchText() string {
	parts := make([]string, 0, 3)
	if v.Name != "" {
		parts = append(parts, v.Name)
	}
	if v.Address != "" {
		parts = append(parts, v.Address)
	}
	if len(v.Tags) > 0 {
		parts = append(parts, strings.Join(v.Tags, " "))
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Dedupe returns venues with duplicates (by Key) removed, preserving the
// first occurrence order.
func Dedupe(venues []Venue) []Venue {
	seen := make(map[Key]struct{}, len(venues))
	out := make([]Venue, 0, len(venues))
	for _, v := range venues {
		k := KeyOf(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

func round5(f float64) int64 {
	return int64(math.Round(f * 1e5))
}
