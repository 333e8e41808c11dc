// Package gazetteer is a static registry of US cities and neighborhoods
// with known center coordinates. It lets anchor resolution skip a geocoder
// round-trip for common inputs. The registry is read-only after load and
// safe to share across concurrent requests.
package gazetteer

import (
	_ "embed"
	"regexp"
	"strings"
	"unicode"

	"github.com/paulmach/orb"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed cities.yaml
var citiesYAML []byte

type cityEntry struct {
	Name    string               `yaml:"name"`
	State   string               `yaml:"state"`
	Center  []float64            `yaml:"center"` // lon, lat
	Aliases []string             `yaml:"aliases"`
	Areas   map[string][]float64 `yaml:"areas"`
}

type city struct {
	name   string
	center orb.Point
	areas  map[string]orb.Point
}

// Index is the loaded gazetteer.
type Index struct {
	byKey map[string]*city // canonical keys and aliases, normalized
}

// Match is a successful gazetteer lookup.
type Match struct {
	Point     orb.Point
	City      string
	AreaFound bool // false when the area was unknown and the city center was used
}

var defaultIndex = mustLoad()

// Default returns the embedded gazetteer index.
func Default() *Index { return defaultIndex }

func mustLoad() *Index {
	var doc struct {
		Cities []cityEntry `yaml:"cities"`
	}
	if err := yaml.Unmarshal(citiesYAML, &doc); err != nil {
		panic("gazetteer: parse embedded cities: " + err.Error())
	}

	idx := &Index{byKey: make(map[string]*city)}
	for _, e := range doc.Cities {
		if len(e.Center) != 2 {
			continue
		}
		c := &city{
			name:   e.Name,
			center: orb.Point{e.Center[0], e.Center[1]},
			areas:  make(map[string]orb.Point, len(e.Areas)),
		}
		for area, pt := range e.Areas {
			if len(pt) == 2 {
				c.areas[normalizeToken(area)] = orb.Point{pt[0], pt[1]}
			}
		}
		idx.byKey[normalizeToken(e.Name)] = c
		for _, alias := range e.Aliases {
			idx.byKey[normalizeToken(alias)] = c
		}
	}
	return idx
}

// Lookup resolves (city, area) against the registry. An unknown area falls
// back to the city center with AreaFound=false. Returns ok=false when the
// city itself is unknown.
func (idx *Index) Lookup(cityName, area string) (Match, bool) {
	key := NormalizeCity(cityName)
	if key == "" {
		return Match{}, false
	}
	c, ok := idx.byKey[key]
	if !ok {
		return Match{}, false
	}

	if area != "" {
		if pt, found := c.areas[normalizeToken(area)]; found {
			return Match{Point: pt, City: c.name, AreaFound: true}, true
		}
	}
	return Match{Point: c.center, City: c.name}, true
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9 ]+`)

// stripDiacritics removes combining marks so "São Paulo" matches "sao paulo".
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func normalizeToken(text string) string {
	if text == "" {
		return ""
	}
	if folded, _, err := transform.String(stripDiacritics, text); err == nil {
		text = folded
	}
	text = nonAlnum.ReplaceAllString(strings.ToLower(text), "")
	return strings.Join(strings.Fields(text), " ")
}

// NormalizeCity normalizes a city string for lookup, dropping a trailing
// two-letter state abbreviation ("Seattle, WA" -> "seattle").
func NormalizeCity(text string) string {
	if text == "" {
		return ""
	}
	cleaned := strings.ToLower(strings.ReplaceAll(text, ",", " "))
	parts := strings.Fields(cleaned)
	if len(parts) > 1 {
		last := parts[len(parts)-1]
		if len(last) == 2 && isAlpha(last) {
			parts = parts[:len(parts)-1]
		}
	}
	return normalizeToken(strings.Join(parts, " "))
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
