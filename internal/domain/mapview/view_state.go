package mapview

import (
	"fmt"
	"strings"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/geo"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/domain"
)

// Phase is the selection state of the detail sheet.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseSelected Phase = "selected"
)

// ViewState is everything one map screen shows. It is not safe for concurrent
// use; the owner confines all calls to a single goroutine.
type ViewState struct {
	origin     geo.Coordinate
	biasRegion geo.Region

	camera     Camera
	searchText string
	results    []PlaceResult
	selection  *PlaceResult

	getDirections   bool
	routeDisplaying bool
	route           *RouteResult
}

// NewViewState creates the state of a freshly mounted screen: camera on the
// bias region, no results, nothing selected.
func NewViewState(origin geo.Coordinate, biasRegion geo.Region) *ViewState {
	return &ViewState{
		origin:     origin,
		biasRegion: biasRegion,
		camera:     RegionCamera(biasRegion),
		results:    []PlaceResult{},
	}
}

// --- Getters ---

// Origin returns the fixed "current location".
func (s *ViewState) Origin() geo.Coordinate { return s.origin }

// BiasRegion returns the region searches are weighted toward.
func (s *ViewState) BiasRegion() geo.Region { return s.biasRegion }

// Camera returns the current camera.
func (s *ViewState) Camera() Camera { return s.camera }

// SearchText returns the text in the search box.
func (s *ViewState) SearchText() string { return s.searchText }

// Results returns a copy of the current result list.
func (s *ViewState) Results() []PlaceResult {
	return append([]PlaceResult{}, s.results...)
}

// Selection returns a copy of the selected place, or nil.
func (s *ViewState) Selection() *PlaceResult {
	if s.selection == nil {
		return nil
	}
	sel := *s.selection
	return &sel
}

// DetailVisible reports whether the detail sheet is shown. It is derived from
// the selection and cannot be set independently.
func (s *ViewState) DetailVisible() bool { return s.selection != nil }

// Phase returns the selection state.
func (s *ViewState) Phase() Phase {
	if s.selection != nil {
		return PhaseSelected
	}
	return PhaseIdle
}

// DirectionsRequested reports whether a route request is pending.
func (s *ViewState) DirectionsRequested() bool { return s.getDirections }

// RouteDisplaying reports whether a route is drawn.
func (s *ViewState) RouteDisplaying() bool { return s.routeDisplaying }

// Route returns a copy of the active route, or nil.
func (s *ViewState) Route() *RouteResult { return s.route.clone() }

// --- Behavior ---

// SetSearchText updates the search box without searching.
func (s *ViewState) SetSearchText(text string) {
	s.searchText = text
}

// BeginSearch starts a new search from the current search text. The selection
// and any displayed route are cleared. It returns the trimmed query; an empty
// query means no provider call should be made.
func (s *ViewState) BeginSearch() string {
	s.selection = nil
	s.getDirections = false
	s.routeDisplaying = false
	s.route = nil
	return strings.TrimSpace(s.searchText)
}

// ApplySearchResults replaces the result list wholesale. A nil slice is
// treated as an empty result. A selection that is no longer a member of the
// list is dropped.
func (s *ViewState) ApplySearchResults(results []PlaceResult) {
	s.results = append([]PlaceResult{}, results...)
	if s.selection != nil && !s.isSelectable(*s.selection) {
		s.selection = nil
	}
}

// Select makes place the selection, showing the detail sheet. place must be
// a member of the result list or the current-location pseudo-item.
func (s *ViewState) Select(place PlaceResult) error {
	if !s.isSelectable(place) {
		return domain.NewValidationError(fmt.Sprintf("place %q is not in the current results", place.Label()))
	}
	s.selection = &place
	return nil
}

// SelectIndex selects the i-th entry of the result list.
func (s *ViewState) SelectIndex(i int) error {
	if i < 0 || i >= len(s.results) {
		return domain.NewValidationError(fmt.Sprintf("result index %d out of range (0..%d)", i, len(s.results)-1))
	}
	return s.Select(s.results[i])
}

// SelectCurrentLocation selects the current-location pseudo-item.
func (s *ViewState) SelectCurrentLocation() {
	place := CurrentLocationPlace(s.origin)
	s.selection = &place
}

// ClearSelection returns to idle, hiding the detail sheet.
func (s *ViewState) ClearSelection() {
	s.selection = nil
}

// RequestDirections raises the get-directions flag. When a selection exists it
// returns the destination and true, and the caller must start a route
// invocation. Without a selection the request is dropped: the flag is reset,
// nothing else changes, and ok is false.
func (s *ViewState) RequestDirections() (destination PlaceResult, ok bool) {
	if s.selection == nil {
		s.getDirections = false
		return PlaceResult{}, false
	}
	s.getDirections = true
	return *s.selection, true
}

// ApplyRoute installs a route result. A nil result only clears the pending
// request flag. A non-nil result replaces any previous route, hides the detail
// sheet, marks the route as displayed and reframes the camera (animated) to
// exactly the route bounds, all in one step.
func (s *ViewState) ApplyRoute(route *RouteResult) bool {
	s.getDirections = false
	if route == nil {
		return false
	}
	s.route = route.clone()
	s.routeDisplaying = true
	s.selection = nil
	s.camera = RectCamera(route.Bounds, true)
	return true
}

// ResetCamera frames the bias region again without touching results or route.
func (s *ViewState) ResetCamera() {
	s.camera = RegionCamera(s.biasRegion)
}

// VisibleMarkers returns the results drawn as markers. While a route is
// displayed only its destination is shown.
func (s *ViewState) VisibleMarkers() []PlaceResult {
	if s.routeDisplaying && s.route != nil {
		for _, r := range s.results {
			if r == s.route.Destination {
				return []PlaceResult{r}
			}
		}
		return []PlaceResult{}
	}
	return s.Results()
}

func (s *ViewState) isSelectable(place PlaceResult) bool {
	if place.CurrentLocation {
		return place == CurrentLocationPlace(s.origin)
	}
	for _, r := range s.results {
		if r == place {
			return true
		}
	}
	return false
}

// Snapshot is an immutable copy of a ViewState, safe to hand to other goroutines.
type Snapshot struct {
	Origin              geo.Coordinate
	BiasRegion          geo.Region
	Camera              Camera
	SearchText          string
	Results             []PlaceResult
	Markers             []PlaceResult
	Selection           *PlaceResult
	DetailVisible       bool
	DirectionsRequested bool
	RouteDisplaying     bool
	Route               *RouteResult
}

// Snapshot copies the current state.
func (s *ViewState) Snapshot() Snapshot {
	return Snapshot{
		Origin:              s.origin,
		BiasRegion:          s.biasRegion,
		Camera:              s.camera,
		SearchText:          s.searchText,
		Results:             s.Results(),
		Markers:             s.VisibleMarkers(),
		Selection:           s.Selection(),
		DetailVisible:       s.DetailVisible(),
		DirectionsRequested: s.getDirections,
		RouteDisplaying:     s.routeDisplaying,
		Route:               s.Route(),
	}
}
