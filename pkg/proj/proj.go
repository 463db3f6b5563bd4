// Package proj projects WGS84 geographic coordinates into a planar UTM frame
// so distances can be computed with plain Euclidean arithmetic.
package proj

import (
	"math"

	"github.com/wroge/wgs84"
)

// Transform projects lon/lat degrees into easting/northing meters for one
// fixed UTM zone. All points of a run must go through the same Transform so
// both datasets share a single planar frame, even if some points technically
// fall just outside the zone.
type Transform struct {
	to       wgs84.Func
	Zone     int
	Northern bool
}

// zone returns the standard UTM zone number for a longitude.
func zone(lon float64) int {
	z := int(math.Floor((lon+180)/6)) + 1
	if z < 1 {
		z = 1
	}
	if z > 60 {
		z = 60
	}
	return z
}

// NewTransform builds the projection for the zone containing the reference
// point. Hemisphere is taken from the reference latitude.
func NewTransform(lat, lon float64) Transform {
	z := zone(lon)
	northern := lat >= 0
	return Transform{
		to:       wgs84.LonLat().To(wgs84.UTM(float64(z), northern)),
		Zone:     z,
		Northern: northern,
	}
}

// Project converts one geographic point to planar coordinates in meters.
func (t Transform) Project(lat, lon float64) (x, y float64) {
	x, y, _ = t.to(lon, lat, 0)
	return x, y
}
