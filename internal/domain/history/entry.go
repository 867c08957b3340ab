package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a workflow history entry.
type Kind string

const (
	KindSearch       Kind = "search"
	KindSearchFailed Kind = "search_failed"
	KindRoute        Kind = "route"
	KindRouteFailed  Kind = "route_failed"
)

// IsValid returns true if the kind is recognized.
func (k Kind) IsValid() bool {
	switch k {
	case KindSearch, KindSearchFailed, KindRoute, KindRouteFailed:
		return true
	}
	return false
}

// IsSearch reports whether the kind records a search invocation.
func (k Kind) IsSearch() bool {
	return k == KindSearch || k == KindSearchFailed
}

// ParseKind converts a string to a Kind, returning an error if invalid.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("invalid history kind: %s", s)
	}
	return k, nil
}

// Entry is one completed search or route invocation, recorded for analytics.
type Entry struct {
	id          uuid.UUID
	eventID     string
	sessionID   uuid.UUID
	kind        Kind
	query       string
	resultCount int

	destinationName string
	destinationLat  float64
	destinationLon  float64
	distanceMeters  float64
	travelSeconds   int64

	occurredAt time.Time
	createdAt  time.Time
}

// NewSearchEntry records a search invocation; succeeded selects between
// KindSearch and KindSearchFailed. A failed search has no results.
func NewSearchEntry(eventID string, sessionID uuid.UUID, succeeded bool, query string, resultCount int, occurredAt time.Time) (*Entry, error) {
	if eventID == "" {
		return nil, fmt.Errorf("event ID is required")
	}
	if resultCount < 0 {
		return nil, fmt.Errorf("result count cannot be negative")
	}
	kind := KindSearch
	if !succeeded {
		kind = KindSearchFailed
		resultCount = 0
	}
	return &Entry{
		id:          uuid.New(),
		eventID:     eventID,
		sessionID:   sessionID,
		kind:        kind,
		query:       query,
		resultCount: resultCount,
		occurredAt:  occurredAt.UTC(),
		createdAt:   time.Now().UTC(),
	}, nil
}

// NewRouteEntry records a route invocation; succeeded selects between
// KindRoute and KindRouteFailed.
func NewRouteEntry(
	eventID string,
	sessionID uuid.UUID,
	succeeded bool,
	destinationName string,
	destinationLat, destinationLon float64,
	distanceMeters float64,
	travelSeconds int64,
	occurredAt time.Time,
) (*Entry, error) {
	if eventID == "" {
		return nil, fmt.Errorf("event ID is required")
	}
	kind := KindRoute
	if !succeeded {
		kind = KindRouteFailed
	}
	return &Entry{
		id:              uuid.New(),
		eventID:         eventID,
		sessionID:       sessionID,
		kind:            kind,
		destinationName: destinationName,
		destinationLat:  destinationLat,
		destinationLon:  destinationLon,
		distanceMeters:  distanceMeters,
		travelSeconds:   travelSeconds,
		occurredAt:      occurredAt.UTC(),
		createdAt:       time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds an Entry from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	eventID string,
	sessionID uuid.UUID,
	kind Kind,
	query string,
	resultCount int,
	destinationName string,
	destinationLat, destinationLon float64,
	distanceMeters float64,
	travelSeconds int64,
	occurredAt, createdAt time.Time,
) *Entry {
	return &Entry{
		id:              id,
		eventID:         eventID,
		sessionID:       sessionID,
		kind:            kind,
		query:           query,
		resultCount:     resultCount,
		destinationName: destinationName,
		destinationLat:  destinationLat,
		destinationLon:  destinationLon,
		distanceMeters:  distanceMeters,
		travelSeconds:   travelSeconds,
		occurredAt:      occurredAt,
		createdAt:       createdAt,
	}
}

// Getters.
func (e *Entry) ID() uuid.UUID           { return e.id }
func (e *Entry) EventID() string         { return e.eventID }
func (e *Entry) SessionID() uuid.UUID    { return e.sessionID }
func (e *Entry) Kind() Kind              { return e.kind }
func (e *Entry) Query() string           { return e.query }
func (e *Entry) ResultCount() int        { return e.resultCount }
func (e *Entry) DestinationName() string { return e.destinationName }
func (e *Entry) DestinationLat() float64 { return e.destinationLat }
func (e *Entry) DestinationLon() float64 { return e.destinationLon }
func (e *Entry) DistanceMeters() float64 { return e.distanceMeters }
func (e *Entry) TravelSeconds() int64    { return e.travelSeconds }
func (e *Entry) OccurredAt() time.Time   { return e.occurredAt }
func (e *Entry) CreatedAt() time.Time    { return e.createdAt }
