// Package cuisine holds the curated keyword and provider-tag tables used
// to detect cuisines and ambience in venue text, and the matchers the
// constraint evaluator and scorer run against them. The tables live in an
// embedded YAML file so they can be reviewed and extended without touching
// matcher code.
package cuisine

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sells-group/tablescout/internal/venue"
)

//go:embed patterns.yaml
var patternsYAML []byte

// Pattern describes one detectable cuisine or ambience label.
type Pattern struct {
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
	Tags     []string `yaml:"tags"`
}

// Table is the full loaded pattern table.
type Table struct {
	Cuisines     []Pattern `yaml:"cuisines"`
	HotpotTokens []string  `yaml:"hotpot_tokens"`
	SpicyTokens  []string  `yaml:"spicy_tokens"`
	Ambience     []Pattern `yaml:"ambience"`
}

var defaultTable = mustLoad()

func mustLoad() *Table {
	var t Table
	if err := yaml.Unmarshal(patternsYAML, &t); err != nil {
		panic("cuisine: parse embedded patterns: " + err.Error())
	}
	return &t
}

// Default returns the embedded pattern table.
func Default() *Table { return defaultTable }

// TokenizeTags lowercases provider tags and splits dotted categories into
// their components, so "catering.restaurant.pizza" also matches "pizza".
func TokenizeTags(tags []string) map[string]struct{} {
	tokens := make(map[string]struct{}, len(tags)*2)
	for _, raw := range tags {
		lower := strings.ToLower(raw)
		tokens[lower] = struct{}{}
		for _, part := range strings.Split(lower, ".") {
			if part != "" {
				tokens[part] = struct{}{}
			}
		}
	}
	return tokens
}

// Detect returns the cuisine labels matching the venue's text or tags.
func (t *Table) Detect(v venue.Venue) []string {
	text := v.SearchText()
	tokens := TokenizeTags(v.Tags)

	var labels []string
	for _, p := range t.Cuisines {
		if matchesPattern(p, text, tokens) {
			labels = append(labels, p.Label)
		}
	}
	return labels
}

// DetectAmbience returns the ambience labels whose keywords appear in the
// venue's text.
func (t *Table) DetectAmbience(v venue.Venue) []string {
	text := v.SearchText()
	var labels []string
	for _, p := range t.Ambience {
		for _, kw := range p.Keywords {
			if strings.Contains(text, kw) {
				labels = append(labels, p.Label)
				break
			}
		}
	}
	return labels
}

// MatchesRequired reports whether the venue satisfies a single required
// cuisine. Hotpot uses its curated token list; anything else is a substring
// match against the venue text.
func (t *Table) MatchesRequired(v venue.Venue, required string) bool {
	required = strings.ToLower(strings.TrimSpace(required))
	if required == "" {
		return true
	}
	if required == "hotpot" {
		return t.matchesHotpot(v)
	}
	return strings.Contains(v.SearchText(), required)
}

// IsSpicy reports whether the venue matches the spicy/Sichuan token
// cluster, used by the excluded-cuisine filter.
func (t *Table) IsSpicy(v venue.Venue) bool {
	text := v.SearchText()
	for _, tok := range t.SpicyTokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

func (t *Table) matchesHotpot(v venue.Venue) bool {
	text := v.SearchText()
	for _, tok := range t.HotpotTokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	for _, tag := range v.Tags {
		lower := strings.ToLower(tag)
		for _, tok := range t.HotpotTokens {
			if strings.Contains(lower, tok) {
				return true
			}
		}
	}
	return false
}

func matchesPattern(p Pattern, text string, tokens map[string]struct{}) bool {
	for _, kw := range p.Keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	for _, tag := range p.Tags {
		if _, ok := tokens[tag]; ok {
			return true
		}
	}
	return false
}

// Intersects reports whether any preference (normalized) appears in the
// detected label set.
func Intersects(preferences, labels []string) bool {
	if len(preferences) == 0 || len(labels) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[strings.ToLower(strings.TrimSpace(l))] = struct{}{}
	}
	for _, p := range preferences {
		if _, ok := set[strings.ToLower(strings.TrimSpace(p))]; ok {
			return true
		}
	}
	return false
}
