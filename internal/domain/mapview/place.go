package mapview

import "github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/geo"

// CurrentLocationName is the display name of the "current location" pseudo-item.
const CurrentLocationName = "My Location"

// PlaceResult is a single search hit: what the map shows as a marker.
type PlaceResult struct {
	Name       string         `json:"name"`
	Title      string         `json:"title"`
	Coordinate geo.Coordinate `json:"coordinate"`
	// CurrentLocation marks the pseudo-item standing for the user's own position.
	CurrentLocation bool `json:"current_location"`
}

// CurrentLocationPlace returns the selectable pseudo-item for origin.
func CurrentLocationPlace(origin geo.Coordinate) PlaceResult {
	return PlaceResult{
		Name:            CurrentLocationName,
		Coordinate:      origin,
		CurrentLocation: true,
	}
}

// Label returns the name, falling back to the title and then the coordinate.
func (p PlaceResult) Label() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.Title != "":
		return p.Title
	default:
		return p.Coordinate.String()
	}
}
