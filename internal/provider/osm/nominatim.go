package osm

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/geo"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/mapview"
)

const (
	// DefaultNominatimURL is the public Nominatim API endpoint.
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	// DefaultSearchLimit is how many places a search returns.
	DefaultSearchLimit = 20
)

// nominatimResult is a single hit from the search endpoint (format=jsonv2).
type nominatimResult struct {
	PlaceID     int64   `json:"place_id"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
}

// Searcher resolves free-text queries with Nominatim.
type Searcher struct {
	client  *httpClient
	baseURL string
	limit   int
}

// NewSearcher creates a Nominatim searcher. email is included in the
// User-Agent header per the OSM usage policy.
func NewSearcher(baseURL, email string, opts ...Option) *Searcher {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	return &Searcher{
		client:  newHTTPClient(email, opts...),
		baseURL: strings.TrimRight(baseURL, "/"),
		limit:   DefaultSearchLimit,
	}
}

// Search returns places matching query, preferring those inside bias. The
// bias is a viewbox hint, not a filter.
func (s *Searcher) Search(ctx context.Context, query string, bias geo.Region) ([]mapview.PlaceResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	b := bias.Bound()
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", strconv.Itoa(s.limit))
	params.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f", b.Min.Lon(), b.Max.Lat(), b.Max.Lon(), b.Min.Lat()))
	params.Set("bounded", "0")

	var raw []nominatimResult
	if err := s.client.getJSON(ctx, fmt.Sprintf("%s/search?%s", s.baseURL, params.Encode()), &raw); err != nil {
		return nil, fmt.Errorf("nominatim search: %w", err)
	}

	places := make([]mapview.PlaceResult, 0, len(raw))
	for _, r := range raw {
		p, err := toPlace(r)
		if err != nil {
			continue
		}
		places = append(places, p)
	}
	return places, nil
}

func toPlace(r nominatimResult) (mapview.PlaceResult, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return mapview.PlaceResult{}, fmt.Errorf("invalid latitude %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return mapview.PlaceResult{}, fmt.Errorf("invalid longitude %q: %w", r.Lon, err)
	}
	coord, err := geo.NewCoordinate(lat, lon)
	if err != nil {
		return mapview.PlaceResult{}, err
	}

	name := r.Name
	if name == "" {
		// display_name is "name, street, city, ..."; its first component is the best label.
		name, _, _ = strings.Cut(r.DisplayName, ",")
		name = strings.TrimSpace(name)
	}
	return mapview.PlaceResult{
		Name:       name,
		Title:      r.DisplayName,
		Coordinate: coord,
	}, nil
}
