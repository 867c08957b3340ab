package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/geo"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/mapview"
)

// DefaultOSRMURL is the public OSRM demo server.
const DefaultOSRMURL = "https://router.project-osrm.org"

type osrmResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Geometry json.RawMessage `json:"geometry"`
	Distance float64         `json:"distance"`
	Duration float64         `json:"duration"`
}

// Router computes driving routes with OSRM.
type Router struct {
	client  *httpClient
	baseURL string
	profile string
}

// NewRouter creates an OSRM router using the driving profile.
func NewRouter(baseURL, email string, opts ...Option) *Router {
	if baseURL == "" {
		baseURL = DefaultOSRMURL
	}
	return &Router{
		client:  newHTTPClient(email, opts...),
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: "driving",
	}
}

// Route returns the fastest route from origin to destination with its full
// geometry.
func (r *Router) Route(ctx context.Context, origin, destination geo.Coordinate) (*mapview.RouteResult, error) {
	requestURL := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=full&geometries=geojson&alternatives=false&steps=false",
		r.baseURL, r.profile,
		origin.Longitude, origin.Latitude,
		destination.Longitude, destination.Latitude,
	)

	var resp osrmResponse
	if err := r.client.getJSON(ctx, requestURL, &resp); err != nil {
		return nil, fmt.Errorf("osrm route: %w", err)
	}
	if resp.Code != "Ok" {
		return nil, fmt.Errorf("osrm route: %s: %s", resp.Code, resp.Message)
	}
	if len(resp.Routes) == 0 {
		return nil, fmt.Errorf("osrm route: no routes returned")
	}

	best := resp.Routes[0]
	geom, err := geojson.UnmarshalGeometry(best.Geometry)
	if err != nil {
		return nil, fmt.Errorf("osrm route geometry: %w", err)
	}
	line, ok := geom.Geometry().(orb.LineString)
	if !ok || len(line) < 2 {
		return nil, fmt.Errorf("osrm route geometry: expected a line string, got %s", geom.Type)
	}

	expected := time.Duration(best.Duration * float64(time.Second))
	return mapview.NewRouteResult(line, mapview.PlaceResult{}, best.Distance, expected), nil
}
