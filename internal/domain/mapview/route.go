package mapview

import (
	"time"

	"github.com/paulmach/orb"
)

// RouteResult is a computed driving route to a destination.
type RouteResult struct {
	Polyline orb.LineString `json:"-"`
	// Bounds is the smallest rectangle containing the polyline; the camera is
	// reframed to exactly this rectangle.
	Bounds         orb.Bound     `json:"-"`
	Destination    PlaceResult   `json:"destination"`
	DistanceMeters float64       `json:"distance_meters"`
	ExpectedTravel time.Duration `json:"expected_travel"`
}

// NewRouteResult builds a route, deriving Bounds from the polyline.
func NewRouteResult(polyline orb.LineString, destination PlaceResult, distanceMeters float64, expected time.Duration) *RouteResult {
	return &RouteResult{
		Polyline:       polyline,
		Bounds:         polyline.Bound(),
		Destination:    destination,
		DistanceMeters: distanceMeters,
		ExpectedTravel: expected,
	}
}

// clone deep-copies the polyline so callers cannot mutate shared state.
func (r *RouteResult) clone() *RouteResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Polyline = append(orb.LineString(nil), r.Polyline...)
	return &c
}
