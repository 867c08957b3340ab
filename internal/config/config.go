package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/geo"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/config"
)

// Provider names.
const (
	ProviderOSM    = "osm"
	ProviderGoogle = "google"
)

// ProviderConfig selects and configures the search and route providers.
type ProviderConfig struct {
	Name string

	NominatimURL  string
	OSRMURL       string
	ContactEmail  string
	RatePerSecond float64
	MaxRetries    int

	GoogleAPIKey string
}

// MapConfig holds the view defaults every session starts from.
type MapConfig struct {
	Origin              geo.Coordinate
	RegionSpanMeters    float64
	GuardStaleResponses bool
	CallTimeout         time.Duration
	SessionIdleTTL      time.Duration
	JanitorInterval     time.Duration
}

// ServiceConfig holds all configuration for the map search service.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	DBConfig       config.DatabaseConfig
	JWTConfig      config.JWTConfig
	KafkaConfig    config.KafkaConfig
	Provider       ProviderConfig
	Map            MapConfig
	EventsEnabled  bool
	HistoryEnabled bool
}

// Load reads configuration from environment variables (MAPSEARCH_*).
func Load() (*ServiceConfig, error) {
	v, err := config.Load("MAPSEARCH")
	if err != nil {
		return nil, err
	}
	setDefaults(v)

	origin, err := geo.NewCoordinate(v.GetFloat64("origin_lat"), v.GetFloat64("origin_lon"))
	if err != nil {
		return nil, fmt.Errorf("invalid origin: %w", err)
	}

	cfg := &ServiceConfig{
		Port:        config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:      config.GetAppEnv(v),
		DBConfig:    config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:   config.LoadJWTConfig(v),
		KafkaConfig: config.LoadKafkaConfig(v),
		Provider: ProviderConfig{
			Name:          strings.ToLower(v.GetString("provider")),
			NominatimURL:  v.GetString("nominatim_url"),
			OSRMURL:       v.GetString("osrm_url"),
			ContactEmail:  v.GetString("contact_email"),
			RatePerSecond: v.GetFloat64("provider_rate_per_second"),
			MaxRetries:    v.GetInt("provider_max_retries"),
			GoogleAPIKey:  v.GetString("google_api_key"),
		},
		Map: MapConfig{
			Origin:              origin,
			RegionSpanMeters:    v.GetFloat64("region_span_meters"),
			GuardStaleResponses: v.GetBool("guard_stale_responses"),
			CallTimeout:         v.GetDuration("provider_call_timeout"),
			SessionIdleTTL:      v.GetDuration("session_idle_ttl"),
			JanitorInterval:     v.GetDuration("session_janitor_interval"),
		},
		EventsEnabled:  v.GetBool("events_enabled"),
		HistoryEnabled: v.GetBool("history_enabled"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_port", "8080")
	v.SetDefault("provider", ProviderOSM)
	v.SetDefault("nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("osrm_url", "https://router.project-osrm.org")
	v.SetDefault("provider_rate_per_second", 1.0)
	v.SetDefault("provider_max_retries", 2)
	v.SetDefault("origin_lat", geo.DefaultOriginLatitude)
	v.SetDefault("origin_lon", geo.DefaultOriginLongitude)
	v.SetDefault("region_span_meters", geo.DefaultRegionSpanMeters)
	v.SetDefault("guard_stale_responses", false)
	v.SetDefault("provider_call_timeout", "10s")
	v.SetDefault("session_idle_ttl", "30m")
	v.SetDefault("session_janitor_interval", "1m")
	v.SetDefault("events_enabled", true)
	v.SetDefault("history_enabled", true)
}

func (c *ServiceConfig) validate() error {
	switch c.Provider.Name {
	case ProviderOSM:
	case ProviderGoogle:
		if c.Provider.GoogleAPIKey == "" {
			return fmt.Errorf("MAPSEARCH_GOOGLE_API_KEY is required when provider is %q", ProviderGoogle)
		}
	default:
		return fmt.Errorf("unknown provider %q (want %q or %q)", c.Provider.Name, ProviderOSM, ProviderGoogle)
	}
	if c.Map.RegionSpanMeters <= 0 {
		return fmt.Errorf("region span must be positive, got %v", c.Map.RegionSpanMeters)
	}
	return nil
}
