package events

import (
	"time"

	"github.com/google/uuid"
)

// TopicMapSearchEvents carries every workflow event emitted by the service.
const TopicMapSearchEvents = "mapsearch.events"

// Event types published on TopicMapSearchEvents.
const (
	SearchCompleted = "mapsearch.search.completed"
	RouteComputed   = "mapsearch.route.computed"
	RouteFailed     = "mapsearch.route.failed"
)

// SearchCompletedEvent is emitted when a search response (or failure) has been
// applied to a session. Failed searches are reported with ResultCount 0.
type SearchCompletedEvent struct {
	SessionID   uuid.UUID `json:"session_id"`
	Query       string    `json:"query"`
	ResultCount int       `json:"result_count"`
	Failed      bool      `json:"failed"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// RouteComputedEvent is emitted when a route has been drawn.
type RouteComputedEvent struct {
	SessionID             uuid.UUID `json:"session_id"`
	DestinationName       string    `json:"destination_name"`
	DestinationLat        float64   `json:"destination_lat"`
	DestinationLon        float64   `json:"destination_lon"`
	DistanceMeters        float64   `json:"distance_meters"`
	ExpectedTravelSeconds int64     `json:"expected_travel_seconds"`
	PolylinePoints        int       `json:"polyline_points"`
	OccurredAt            time.Time `json:"occurred_at"`
}

// RouteFailedEvent is emitted when the router could not produce a route.
type RouteFailedEvent struct {
	SessionID       uuid.UUID `json:"session_id"`
	DestinationName string    `json:"destination_name"`
	DestinationLat  float64   `json:"destination_lat"`
	DestinationLon  float64   `json:"destination_lon"`
	OccurredAt      time.Time `json:"occurred_at"`
}
