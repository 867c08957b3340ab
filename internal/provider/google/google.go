// Package google implements place search and driving routes with the Google
// Maps Platform APIs.
package google

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"googlemaps.github.io/maps"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/geo"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/mapview"
)

// Client serves both the Searcher and Router contracts from one Maps client.
type Client struct {
	maps *maps.Client
}

// NewClient creates a Google Maps client. Extra maps options (such as
// maps.WithBaseURL) are passed through.
func NewClient(apiKey string, opts ...maps.ClientOption) (*Client, error) {
	opts = append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)
	c, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Client{maps: c}, nil
}

// Search runs a Places text search biased to a circle covering the region.
func (c *Client) Search(ctx context.Context, query string, bias geo.Region) ([]mapview.PlaceResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	radius := math.Max(bias.LatitudinalMeters, bias.LongitudinalMeters) / 2
	resp, err := c.maps.TextSearch(ctx, &maps.TextSearchRequest{
		Query:    query,
		Location: &maps.LatLng{Lat: bias.Center.Latitude, Lng: bias.Center.Longitude},
		Radius:   uint(radius),
	})
	if err != nil {
		return nil, fmt.Errorf("maps text search: %w", err)
	}

	places := make([]mapview.PlaceResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		loc := r.Geometry.Location
		coord, err := geo.NewCoordinate(loc.Lat, loc.Lng)
		if err != nil {
			continue
		}
		places = append(places, mapview.PlaceResult{
			Name:       r.Name,
			Title:      r.FormattedAddress,
			Coordinate: coord,
		})
	}
	return places, nil
}

// Route asks the Directions API for a driving route and decodes its overview
// polyline.
func (c *Client) Route(ctx context.Context, origin, destination geo.Coordinate) (*mapview.RouteResult, error) {
	routes, _, err := c.maps.Directions(ctx, &maps.DirectionsRequest{
		Origin:      latLngString(origin),
		Destination: latLngString(destination),
		Mode:        maps.TravelModeDriving,
	})
	if err != nil {
		return nil, fmt.Errorf("maps directions: %w", err)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("no route found")
	}

	best := routes[0]
	points, err := best.OverviewPolyline.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("route polyline has %d points", len(points))
	}

	line := make(orb.LineString, len(points))
	for i, p := range points {
		line[i] = orb.Point{p.Lng, p.Lat}
	}

	var meters int
	var travel time.Duration
	for _, leg := range best.Legs {
		meters += leg.Distance.Meters
		travel += leg.Duration
	}
	return mapview.NewRouteResult(line, mapview.PlaceResult{}, float64(meters), travel), nil
}

func latLngString(c geo.Coordinate) string {
	return fmt.Sprintf("%f,%f", c.Latitude, c.Longitude)
}
