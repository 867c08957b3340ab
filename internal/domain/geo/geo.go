package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

const (
	// DefaultOriginLatitude and DefaultOriginLongitude are the fixed
	// "current location" used when no origin is configured (Miami, FL).
	DefaultOriginLatitude  = 25.781441
	DefaultOriginLongitude = -80.188332

	// DefaultRegionSpanMeters is the side length of the default search bias region.
	DefaultRegionSpanMeters = 10000.0

	metersPerDegreeLatitude = 111_320.0
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// NewCoordinate validates and builds a Coordinate.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	if lat < -90 || lat > 90 {
		return Coordinate{}, fmt.Errorf("invalid latitude: %f (must be between -90 and 90)", lat)
	}
	if lon < -180 || lon > 180 {
		return Coordinate{}, fmt.Errorf("invalid longitude: %f (must be between -180 and 180)", lon)
	}
	return Coordinate{Latitude: lat, Longitude: lon}, nil
}

// DefaultOrigin returns the built-in "current location".
func DefaultOrigin() Coordinate {
	return Coordinate{Latitude: DefaultOriginLatitude, Longitude: DefaultOriginLongitude}
}

// Point converts to an orb point (X = longitude, Y = latitude).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// FromPoint converts an orb point back to a Coordinate.
func FromPoint(p orb.Point) Coordinate {
	return Coordinate{Latitude: p.Lat(), Longitude: p.Lon()}
}

// String formats the coordinate as "lat,lon".
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// DistanceMeters returns the haversine distance between two coordinates.
func DistanceMeters(a, b Coordinate) float64 {
	return orbgeo.DistanceHaversine(a.Point(), b.Point())
}

// Region is a center point plus north-south and east-west extents in meters.
type Region struct {
	Center             Coordinate `json:"center"`
	LatitudinalMeters  float64    `json:"latitudinal_meters"`
	LongitudinalMeters float64    `json:"longitudinal_meters"`
}

// NewRegion builds a Region around center.
func NewRegion(center Coordinate, latMeters, lonMeters float64) Region {
	return Region{Center: center, LatitudinalMeters: latMeters, LongitudinalMeters: lonMeters}
}

// DefaultRegion is the 10 km x 10 km region around the default origin.
func DefaultRegion() Region {
	return NewRegion(DefaultOrigin(), DefaultRegionSpanMeters, DefaultRegionSpanMeters)
}

// Bound returns the axis-aligned rectangle covered by the region.
func (r Region) Bound() orb.Bound {
	halfLat := r.LatitudinalMeters / 2 / metersPerDegreeLatitude
	cosLat := math.Cos(r.Center.Latitude * math.Pi / 180)
	halfLon := 0.0
	if cosLat > 1e-9 {
		halfLon = r.LongitudinalMeters / 2 / (metersPerDegreeLatitude * cosLat)
	}
	return orb.Bound{
		Min: orb.Point{r.Center.Longitude - halfLon, r.Center.Latitude - halfLat},
		Max: orb.Point{r.Center.Longitude + halfLon, r.Center.Latitude + halfLat},
	}
}

// RegionForBound returns the region whose Bound approximates b.
func RegionForBound(b orb.Bound) Region {
	center := FromPoint(b.Center())
	latMeters := (b.Max.Lat() - b.Min.Lat()) * metersPerDegreeLatitude
	lonMeters := (b.Max.Lon() - b.Min.Lon()) * metersPerDegreeLatitude * math.Cos(center.Latitude*math.Pi/180)
	return NewRegion(center, latMeters, lonMeters)
}

// Lerp interpolates between two bounds; t is clamped to [0, 1].
func Lerp(from, to orb.Bound, t float64) orb.Bound {
	t = math.Max(0, math.Min(1, t))
	mix := func(a, b float64) float64 { return a + (b-a)*t }
	return orb.Bound{
		Min: orb.Point{mix(from.Min.X(), to.Min.X()), mix(from.Min.Y(), to.Min.Y())},
		Max: orb.Point{mix(from.Max.X(), to.Max.X()), mix(from.Max.Y(), to.Max.Y())},
	}
}
