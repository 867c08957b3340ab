package mapview

import (
	"context"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/geo"
)

// Searcher resolves a free-text query to places, biased toward a region.
type Searcher interface {
	// Search returns places in provider ranking order.
	Search(ctx context.Context, query string, bias geo.Region) ([]PlaceResult, error)
}

// Router computes a single driving route.
type Router interface {
	// Route returns the route from origin to destination. The returned
	// Destination is filled in by the caller.
	Route(ctx context.Context, origin, destination geo.Coordinate) (*RouteResult, error)
}
