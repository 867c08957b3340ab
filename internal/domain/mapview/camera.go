package mapview

import (
	"github.com/paulmach/orb"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/geo"
)

// CameraKind says whether the camera is framed by a region or a rectangle.
type CameraKind string

const (
	CameraRegion CameraKind = "region"
	CameraRect   CameraKind = "rect"
)

// Camera is the map viewport.
type Camera struct {
	Kind   CameraKind
	Region geo.Region
	Rect   orb.Bound
	// Animated asks the presentation layer to transition to this camera
	// instead of jumping.
	Animated bool
}

// RegionCamera frames region without animation.
func RegionCamera(region geo.Region) Camera {
	return Camera{Kind: CameraRegion, Region: region}
}

// RectCamera frames rect.
func RectCamera(rect orb.Bound, animated bool) Camera {
	return Camera{Kind: CameraRect, Rect: rect, Animated: animated}
}

// Bound returns the visible rectangle.
func (c Camera) Bound() orb.Bound {
	if c.Kind == CameraRect {
		return c.Rect
	}
	return c.Region.Bound()
}
