// Package geo provides the bounding-box and distance math used by the
// search expansion loop. Boxes are axis-aligned lon/lat rectangles (WGS84).
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Degrees-per-km conversion constants for the equirectangular
// approximation. Longitude width scales by cos(latitude).
const (
	kmPerDegreeLat = 110.574
	kmPerDegreeLon = 111.320
)

// KmToMiles converts kilometers to statute miles.
const KmToMiles = 0.621371

// ExpandFromCenter builds a bounding box extending km in every direction
// from center. The approximation is equirectangular, not geodesic-exact.
func ExpandFromCenter(center orb.Point, km float64) orb.Bound {
	dlat := km / kmPerDegreeLat

	cosLat := math.Cos(center.Lat() * math.Pi / 180)
	if cosLat == 0 {
		cosLat = 1e-6
	}
	dlon := km / (kmPerDegreeLon * cosLat)

	return orb.Bound{
		Min: orb.Point{center.Lon() - dlon, center.Lat() - dlat},
		Max: orb.Point{center.Lon() + dlon, center.Lat() + dlat},
	}
}

// DistanceKm returns the great-circle distance between two points in km.
func DistanceKm(a, b orb.Point) float64 {
	return orbgeo.Distance(a, b) / 1000.0
}
