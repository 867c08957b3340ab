// Package provider builds the search and route providers selected by config.
package provider

import (
	"fmt"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/config"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/mapview"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/provider/google"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/provider/osm"
)

// New returns the Searcher and Router for cfg.Name.
func New(cfg config.ProviderConfig) (mapview.Searcher, mapview.Router, error) {
	switch cfg.Name {
	case config.ProviderOSM, "":
		opts := []osm.Option{osm.WithRateLimit(cfg.RatePerSecond), osm.WithMaxRetries(cfg.MaxRetries)}
		return osm.NewSearcher(cfg.NominatimURL, cfg.ContactEmail, opts...),
			osm.NewRouter(cfg.OSRMURL, cfg.ContactEmail, opts...),
			nil
	case config.ProviderGoogle:
		client, err := google.NewClient(cfg.GoogleAPIKey)
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}
