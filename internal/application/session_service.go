package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/geo"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/mapview"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/domain"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/presentation"
)

// CreateSessionRequest optionally overrides the session's current location.
// The bias region is then centred on it.
type CreateSessionRequest struct {
	OriginLat *float64 `json:"origin_lat"`
	OriginLon *float64 `json:"origin_lon"`
}

// SearchRequest submits a query. Wait blocks until the response is applied.
type SearchRequest struct {
	Query string `json:"query"`
	Wait  bool   `json:"wait"`
}

// SelectRequest selects a result by index, or the current location.
type SelectRequest struct {
	Index           *int `json:"index"`
	CurrentLocation bool `json:"current_location"`
}

// DirectionsRequest asks for a route to the selection.
type DirectionsRequest struct {
	Wait bool `json:"wait"`
}

// PlaceDTO is the response representation of a place.
type PlaceDTO struct {
	Name            string  `json:"name"`
	Title           string  `json:"title,omitempty"`
	Latitude        float64 `json:"lat"`
	Longitude       float64 `json:"lon"`
	CurrentLocation bool    `json:"current_location,omitempty"`
}

// CameraDTO is the response representation of the camera.
type CameraDTO struct {
	Kind               string              `json:"kind"`
	Center             geo.Coordinate      `json:"center"`
	LatitudinalMeters  float64             `json:"latitudinal_meters,omitempty"`
	LongitudinalMeters float64             `json:"longitudinal_meters,omitempty"`
	Bounds             presentation.Bounds `json:"bounds"`
	Animated           bool                `json:"animated"`
}

// RouteDTO is the response representation of a route.
type RouteDTO struct {
	Destination           PlaceDTO            `json:"destination"`
	DistanceMeters        float64             `json:"distance_meters"`
	ExpectedTravelSeconds int64               `json:"expected_travel_seconds"`
	Bounds                presentation.Bounds `json:"bounds"`
	Polyline              [][2]float64        `json:"polyline"`
}

// ViewStateDTO is the response representation of a session's view state.
type ViewStateDTO struct {
	SessionID           uuid.UUID  `json:"session_id"`
	Phase               string     `json:"phase"`
	Origin              PlaceDTO   `json:"origin"`
	SearchText          string     `json:"search_text"`
	Camera              CameraDTO  `json:"camera"`
	Results             []PlaceDTO `json:"results"`
	Markers             []PlaceDTO `json:"markers"`
	Selection           *PlaceDTO  `json:"selection,omitempty"`
	DetailVisible       bool       `json:"detail_visible"`
	DirectionsRequested bool       `json:"directions_requested"`
	RouteDisplaying     bool       `json:"route_displaying"`
	Route               *RouteDTO  `json:"route,omitempty"`
}

// DirectionsResultDTO reports whether a route invocation was started.
type DirectionsResultDTO struct {
	Started bool          `json:"started"`
	State   *ViewStateDTO `json:"state"`
}

// SessionServiceConfig holds defaults applied to every new session.
type SessionServiceConfig struct {
	Origin              geo.Coordinate
	RegionSpanMeters    float64
	GuardStaleResponses bool
	CallTimeout         time.Duration
	SettleTimeout       time.Duration
	Provider            string
}

// SessionService is the application service orchestrating map sessions.
type SessionService struct {
	registry  *SessionRegistry
	searcher  mapview.Searcher
	router    mapview.Router
	publisher EventPublisher
	cfg       SessionServiceConfig
	logger    *zap.Logger
}

// NewSessionService creates a new SessionService. publisher may be nil.
func NewSessionService(
	registry *SessionRegistry,
	searcher mapview.Searcher,
	router mapview.Router,
	publisher EventPublisher,
	cfg SessionServiceConfig,
	logger *zap.Logger,
) *SessionService {
	if cfg.RegionSpanMeters <= 0 {
		cfg.RegionSpanMeters = geo.DefaultRegionSpanMeters
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = 15 * time.Second
	}
	return &SessionService{
		registry:  registry,
		searcher:  searcher,
		router:    router,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// CreateSession opens a new map screen.
func (s *SessionService) CreateSession(ctx context.Context, req CreateSessionRequest) (*ViewStateDTO, error) {
	origin := s.cfg.Origin
	if req.OriginLat != nil || req.OriginLon != nil {
		if req.OriginLat == nil || req.OriginLon == nil {
			return nil, domain.NewValidationError("origin_lat and origin_lon must be given together")
		}
		c, err := geo.NewCoordinate(*req.OriginLat, *req.OriginLon)
		if err != nil {
			return nil, domain.NewValidationError(err.Error())
		}
		origin = c
	}
	region := geo.NewRegion(origin, s.cfg.RegionSpanMeters, s.cfg.RegionSpanMeters)

	session := NewSession(uuid.New(), s.searcher, s.router, s.publisher, SessionOptions{
		Origin:              origin,
		BiasRegion:          region,
		GuardStaleResponses: s.cfg.GuardStaleResponses,
		CallTimeout:         s.cfg.CallTimeout,
		Provider:            s.cfg.Provider,
	}, s.logger)
	s.registry.Add(session)

	s.logger.Info("session created",
		zap.String("session_id", session.ID().String()),
		zap.String("origin", origin.String()),
	)
	return s.stateOf(ctx, session)
}

// GetState returns the view state of a session.
func (s *SessionService) GetState(ctx context.Context, id uuid.UUID) (*ViewStateDTO, error) {
	session, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	return s.stateOf(ctx, session)
}

// Search submits a query to a session.
func (s *SessionService) Search(ctx context.Context, id uuid.UUID, req SearchRequest) (*ViewStateDTO, error) {
	session, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	if err := session.SubmitSearch(ctx, req.Query); err != nil {
		return nil, fmt.Errorf("failed to submit search: %w", err)
	}
	if req.Wait {
		if err := s.settle(ctx, session); err != nil {
			return nil, err
		}
	}
	return s.stateOf(ctx, session)
}

// Select selects a result or the current location.
func (s *SessionService) Select(ctx context.Context, id uuid.UUID, req SelectRequest) (*ViewStateDTO, error) {
	session, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}

	switch {
	case req.CurrentLocation && req.Index != nil:
		return nil, domain.NewValidationError("give either index or current_location, not both")
	case req.CurrentLocation:
		err = session.SelectCurrentLocation(ctx)
	case req.Index != nil:
		err = session.Select(ctx, *req.Index)
	default:
		return nil, domain.NewValidationError("index or current_location is required")
	}
	if err != nil {
		return nil, err
	}
	return s.stateOf(ctx, session)
}

// Dismiss hides the detail sheet.
func (s *SessionService) Dismiss(ctx context.Context, id uuid.UUID) (*ViewStateDTO, error) {
	session, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	if err := session.Dismiss(ctx); err != nil {
		return nil, err
	}
	return s.stateOf(ctx, session)
}

// RequestDirections routes to the current selection.
func (s *SessionService) RequestDirections(ctx context.Context, id uuid.UUID, req DirectionsRequest) (*DirectionsResultDTO, error) {
	session, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	started, err := session.RequestDirections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to request directions: %w", err)
	}
	if started && req.Wait {
		if err := s.settle(ctx, session); err != nil {
			return nil, err
		}
	}
	state, err := s.stateOf(ctx, session)
	if err != nil {
		return nil, err
	}
	return &DirectionsResultDTO{Started: started, State: state}, nil
}

// ResetCamera frames the session's bias region again.
func (s *SessionService) ResetCamera(ctx context.Context, id uuid.UUID) (*ViewStateDTO, error) {
	session, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	if err := session.ResetCamera(ctx); err != nil {
		return nil, err
	}
	return s.stateOf(ctx, session)
}

// GetFrame returns the presentation frame of a session.
func (s *SessionService) GetFrame(ctx context.Context, id uuid.UUID) (*presentation.Frame, error) {
	session, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	snap, err := session.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	frame := presentation.Build(snap)
	return &frame, nil
}

// RenderText returns the session's screen as terminal text without colours.
func (s *SessionService) RenderText(ctx context.Context, id uuid.UUID, width, height int) (string, error) {
	frame, err := s.GetFrame(ctx, id)
	if err != nil {
		return "", err
	}
	return presentation.RenderText(*frame, width, height, presentation.PlainStyles()), nil
}

// GetRouteGeoJSON returns the displayed route as a GeoJSON feature collection:
// the polyline, the origin and the destination.
func (s *SessionService) GetRouteGeoJSON(ctx context.Context, id uuid.UUID) (*geojson.FeatureCollection, error) {
	session, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	snap, err := session.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if !snap.RouteDisplaying || snap.Route == nil {
		return nil, domain.NewNotFoundError("route", id.String())
	}
	return RouteFeatureCollection(snap.Origin, snap.Route), nil
}

// DeleteSession closes a session.
func (s *SessionService) DeleteSession(_ context.Context, id uuid.UUID) error {
	if err := s.registry.Remove(id); err != nil {
		return err
	}
	s.logger.Info("session deleted", zap.String("session_id", id.String()))
	return nil
}

// RouteFeatureCollection encodes a route as GeoJSON.
func RouteFeatureCollection(origin geo.Coordinate, route *mapview.RouteResult) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	line := geojson.NewFeature(route.Polyline)
	line.Properties["kind"] = "route"
	line.Properties["destination"] = route.Destination.Label()
	line.Properties["distance_meters"] = route.DistanceMeters
	line.Properties["expected_travel_seconds"] = int64(route.ExpectedTravel / time.Second)
	fc.Append(line)

	start := geojson.NewFeature(origin.Point())
	start.Properties["kind"] = "origin"
	start.Properties["name"] = mapview.CurrentLocationName
	fc.Append(start)

	end := geojson.NewFeature(route.Destination.Coordinate.Point())
	end.Properties["kind"] = "destination"
	end.Properties["name"] = route.Destination.Label()
	if route.Destination.Title != "" {
		end.Properties["title"] = route.Destination.Title
	}
	fc.Append(end)

	fc.BBox = geojson.NewBBox(route.Bounds)
	return fc
}

func (s *SessionService) settle(ctx context.Context, session *Session) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SettleTimeout)
	defer cancel()
	if err := session.Settle(ctx); err != nil {
		return fmt.Errorf("failed waiting for provider response: %w", err)
	}
	return nil
}

func (s *SessionService) stateOf(ctx context.Context, session *Session) (*ViewStateDTO, error) {
	snap, err := session.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read session state: %w", err)
	}
	dto := toViewStateDTO(session.ID(), snap)
	return &dto, nil
}

// --- Helpers ---

func toViewStateDTO(id uuid.UUID, snap mapview.Snapshot) ViewStateDTO {
	phase := mapview.PhaseIdle
	if snap.Selection != nil {
		phase = mapview.PhaseSelected
	}
	dto := ViewStateDTO{
		SessionID:           id,
		Phase:               string(phase),
		Origin:              toPlaceDTO(mapview.CurrentLocationPlace(snap.Origin)),
		SearchText:          snap.SearchText,
		Camera:              toCameraDTO(snap.Camera),
		Results:             toPlaceDTOs(snap.Results),
		Markers:             toPlaceDTOs(snap.Markers),
		DetailVisible:       snap.DetailVisible,
		DirectionsRequested: snap.DirectionsRequested,
		RouteDisplaying:     snap.RouteDisplaying,
	}
	if snap.Selection != nil {
		sel := toPlaceDTO(*snap.Selection)
		dto.Selection = &sel
	}
	if snap.Route != nil {
		dto.Route = toRouteDTO(snap.Route)
	}
	return dto
}

func toPlaceDTO(p mapview.PlaceResult) PlaceDTO {
	return PlaceDTO{
		Name:            p.Label(),
		Title:           p.Title,
		Latitude:        p.Coordinate.Latitude,
		Longitude:       p.Coordinate.Longitude,
		CurrentLocation: p.CurrentLocation,
	}
}

func toPlaceDTOs(places []mapview.PlaceResult) []PlaceDTO {
	dtos := make([]PlaceDTO, len(places))
	for i, p := range places {
		dtos[i] = toPlaceDTO(p)
	}
	return dtos
}

func toCameraDTO(c mapview.Camera) CameraDTO {
	bound := c.Bound()
	dto := CameraDTO{
		Kind:     string(c.Kind),
		Center:   geo.FromPoint(bound.Center()),
		Bounds:   presentation.BoundsFrom(bound),
		Animated: c.Animated,
	}
	if c.Kind == mapview.CameraRegion {
		dto.Center = c.Region.Center
		dto.LatitudinalMeters = c.Region.LatitudinalMeters
		dto.LongitudinalMeters = c.Region.LongitudinalMeters
	}
	return dto
}

func toRouteDTO(r *mapview.RouteResult) *RouteDTO {
	line := make([][2]float64, len(r.Polyline))
	for i, p := range r.Polyline {
		line[i] = [2]float64{p.Lon(), p.Lat()}
	}
	return &RouteDTO{
		Destination:           toPlaceDTO(r.Destination),
		DistanceMeters:        r.DistanceMeters,
		ExpectedTravelSeconds: int64(r.ExpectedTravel / time.Second),
		Bounds:                presentation.BoundsFrom(r.Bounds),
		Polyline:              line,
	}
}
