package geoapify

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"

	"github.com/sells-group/tablescout/internal/venue"
)

// GeoJSON subset the places and geocode endpoints return.
type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties featureProps `json:"properties"`
	Geometry   struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
}

type featureProps struct {
	Name         string    `json:"name"`
	Street       string    `json:"street"`
	Formatted    string    `json:"formatted"`
	AddressLine1 string    `json:"address_line1"`
	Lon          *float64  `json:"lon"`
	Lat          *float64  `json:"lat"`
	BBox         []float64 `json:"bbox"`
	Website      string    `json:"website"`
	OpeningHours string    `json:"opening_hours"`
	Rating       *float64  `json:"rating"`
	Categories   []string  `json:"categories"`
	Datasource   struct {
		Raw map[string]any `json:"raw"`
	} `json:"datasource"`
}

func parsePlaces(body []byte) ([]venue.Venue, error) {
	var payload featureCollection
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrap(err, "geoapify: unmarshal places response")
	}

	venues := make([]venue.Venue, 0, len(payload.Features))
	for _, feat := range payload.Features {
		props := feat.Properties

		lon, lat := props.Lon, props.Lat
		if (lon == nil || lat == nil) && len(feat.Geometry.Coordinates) >= 2 {
			lon = &feat.Geometry.Coordinates[0]
			lat = &feat.Geometry.Coordinates[1]
		}
		if lon == nil || lat == nil {
			continue
		}

		name := props.Name
		if name == "" {
			name = props.Street
		}
		if name == "" {
			name = "Restaurant"
		}

		address := props.Formatted
		if address == "" {
			address = props.AddressLine1
		}

		mapURL := rawURL(props.Datasource.Raw)
		if mapURL == "" {
			q := url.QueryEscape(fmt.Sprintf("%s %s %v,%v", name, address, *lat, *lon))
			mapURL = "https://www.google.com/maps/search/?api=1&query=" + q
		}

		venues = append(venues, venue.Venue{
			Name:         name,
			Address:      address,
			Point:        orb.Point{*lon, *lat},
			Website:      props.Website,
			OpeningHours: props.OpeningHours,
			MapURL:       mapURL,
			Tags:         props.Categories,
			Rating:       props.Rating,
		})
	}
	return venues, nil
}

func rawURL(raw map[string]any) string {
	if raw == nil {
		return ""
	}
	if u, ok := raw["url"].(string); ok {
		return u
	}
	return ""
}
