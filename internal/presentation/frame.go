// Package presentation turns a map view state into what the screen shows.
// Build is a pure function; RenderText draws a Frame onto a terminal canvas.
package presentation

import (
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/geo"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/mapview"
)

// DetailSheetHeight is the height of the place detail sheet in points.
const DetailSheetHeight = 340

// SearchPlaceholder is shown in an empty search box.
const SearchPlaceholder = "Search for a place or address"

// Sheet actions.
const (
	ActionGetDirections = "Get Directions"
	ActionDismiss       = "Dismiss"
)

// Bounds is a latitude/longitude rectangle.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// BoundsFrom converts an orb.Bound.
func BoundsFrom(b orb.Bound) Bounds {
	return Bounds{MinLat: b.Min.Lat(), MinLon: b.Min.Lon(), MaxLat: b.Max.Lat(), MaxLon: b.Max.Lon()}
}

// Bound converts back to an orb.Bound.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinLon, b.MinLat}, Max: orb.Point{b.MaxLon, b.MaxLat}}
}

// CameraView is the base map layer.
type CameraView struct {
	Kind     mapview.CameraKind `json:"kind"`
	Center   geo.Coordinate     `json:"center"`
	Bounds   Bounds             `json:"bounds"`
	Animated bool               `json:"animated"`
}

// Annotation marks the current location.
type Annotation struct {
	Label      string         `json:"label"`
	Coordinate geo.Coordinate `json:"coordinate"`
}

// Marker is one search result drawn on the map.
type Marker struct {
	Index      int            `json:"index"`
	Name       string         `json:"name"`
	Title      string         `json:"title,omitempty"`
	Coordinate geo.Coordinate `json:"coordinate"`
	Selected   bool           `json:"selected"`
}

// RouteOverlay is the drawn route and its summary.
type RouteOverlay struct {
	Polyline              []geo.Coordinate `json:"polyline"`
	Destination           string           `json:"destination"`
	DistanceMeters        float64          `json:"distance_meters"`
	ExpectedTravelSeconds int64            `json:"expected_travel_seconds"`
	Summary               string           `json:"summary"`
}

// SearchBox is the text field overlay.
type SearchBox struct {
	Text        string `json:"text"`
	Placeholder string `json:"placeholder"`
}

// DetailSheet describes the selected place.
type DetailSheet struct {
	Height  int      `json:"height"`
	Name    string   `json:"name"`
	Title   string   `json:"title,omitempty"`
	Actions []string `json:"actions"`
}

// Frame is everything drawn for one view state, bottom layer first.
type Frame struct {
	Camera    CameraView    `json:"camera"`
	Origin    Annotation    `json:"origin"`
	Markers   []Marker      `json:"markers"`
	Route     *RouteOverlay `json:"route,omitempty"`
	SearchBox SearchBox     `json:"search_box"`
	Sheet     *DetailSheet  `json:"sheet,omitempty"`
}

// Build derives a frame from a view-state snapshot. It has no side effects.
func Build(snap mapview.Snapshot) Frame {
	bound := snap.Camera.Bound()
	f := Frame{
		Camera: CameraView{
			Kind:     snap.Camera.Kind,
			Center:   geo.FromPoint(bound.Center()),
			Bounds:   BoundsFrom(bound),
			Animated: snap.Camera.Animated,
		},
		Origin: Annotation{
			Label:      mapview.CurrentLocationName,
			Coordinate: snap.Origin,
		},
		Markers: make([]Marker, 0, len(snap.Markers)),
		SearchBox: SearchBox{
			Text:        snap.SearchText,
			Placeholder: SearchPlaceholder,
		},
	}

	for _, m := range snap.Markers {
		f.Markers = append(f.Markers, Marker{
			Index:      indexOf(snap.Results, m),
			Name:       m.Label(),
			Title:      m.Title,
			Coordinate: m.Coordinate,
			Selected:   snap.Selection != nil && *snap.Selection == m,
		})
	}

	if snap.RouteDisplaying && snap.Route != nil {
		r := snap.Route
		line := make([]geo.Coordinate, len(r.Polyline))
		for i, p := range r.Polyline {
			line[i] = geo.FromPoint(p)
		}
		f.Route = &RouteOverlay{
			Polyline:              line,
			Destination:           r.Destination.Label(),
			DistanceMeters:        r.DistanceMeters,
			ExpectedTravelSeconds: int64(r.ExpectedTravel / time.Second),
			Summary:               RouteSummary(r.DistanceMeters, r.ExpectedTravel),
		}
	}

	if snap.DetailVisible && snap.Selection != nil {
		f.Sheet = &DetailSheet{
			Height:  DetailSheetHeight,
			Name:    snap.Selection.Label(),
			Title:   snap.Selection.Title,
			Actions: []string{ActionGetDirections, ActionDismiss},
		}
	}
	return f
}

func indexOf(results []mapview.PlaceResult, p mapview.PlaceResult) int {
	for i, r := range results {
		if r == p {
			return i
		}
	}
	return -1
}

// RouteSummary formats distance and travel time, e.g. "2.4 km · 6 min".
func RouteSummary(distanceMeters float64, travel time.Duration) string {
	return fmt.Sprintf("%s · %s", FormatDistance(distanceMeters), FormatDuration(travel))
}

// FormatDistance renders meters as "350 m" or "2.4 km".
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

// FormatDuration renders a travel time rounded to minutes, e.g. "1 h 5 min".
func FormatDuration(d time.Duration) string {
	minutes := int(math.Round(d.Minutes()))
	if minutes < 1 {
		return "< 1 min"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	if minutes%60 == 0 {
		return fmt.Sprintf("%d h", minutes/60)
	}
	return fmt.Sprintf("%d h %d min", minutes/60, minutes%60)
}
