//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/application"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/geo"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/mapview"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/events"
)

var cafeA = mapview.PlaceResult{
	Name:       "Cafe A",
	Title:      "100 Biscayne Blvd, Miami",
	Coordinate: geo.Coordinate{Latitude: 25.7750, Longitude: -80.1880},
}

// TestSearchAndRoute_ProjectedIntoHistory drives a session through search,
// selection and directions, and verifies that the published workflow events
// end up in workflow_history via the consumer.
func TestSearchAndRoute_ProjectedIntoHistory(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupMapSearchStack(t, infra.DB, infra.KafkaBrokers, []mapview.PlaceResult{cafeA})
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	// Start the consumer.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	state, err := stack.Sessions.CreateSession(ctx, application.CreateSessionRequest{})
	require.NoError(t, err)
	id := state.SessionID

	_, err = stack.Sessions.Search(ctx, id, application.SearchRequest{Query: "coffee", Wait: true})
	require.NoError(t, err)
	_, err = stack.Sessions.Select(ctx, id, application.SelectRequest{CurrentLocation: false, Index: intPtr(0)})
	require.NoError(t, err)
	dir, err := stack.Sessions.RequestDirections(ctx, id, application.DirectionsRequest{Wait: true})
	require.NoError(t, err)
	require.True(t, dir.State.RouteDisplaying)

	// Assert: RouteComputed event on mapsearch.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicMapSearchEvents, events.RouteComputed, 15*time.Second)
	var computed events.RouteComputedEvent
	require.NoError(t, ce.ParseData(&computed))
	assert.Equal(t, id, computed.SessionID)
	assert.Equal(t, "Cafe A", computed.DestinationName)
	assert.Equal(t, int64(180), computed.ExpectedTravelSeconds)

	// Assert: both events were projected.
	rows := waitForHistory(t, infra.DB, id, 2, 15*time.Second)
	assert.Equal(t, "search", rows[0].Kind)
	assert.Equal(t, "coffee", rows[0].Query)
	assert.Equal(t, 1, rows[0].ResultCount)
	assert.Equal(t, "route", rows[1].Kind)
	assert.Equal(t, int64(180), rows[1].TravelSeconds)

	top, err := stack.History.TopQueries(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, top)
	assert.Equal(t, "coffee", top[0].Query)
}

// TestDuplicateEvent_RecordedOnce verifies that redelivered events are
// deduplicated by CloudEvent ID.
func TestDuplicateEvent_RecordedOnce(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupMapSearchStack(t, infra.DB, infra.KafkaBrokers, nil)
	defer stack.CleanupProducer()

	ctx := context.Background()
	sessionID := uuid.New()
	evt := events.SearchCompletedEvent{SessionID: sessionID, Query: "tea", ResultCount: 0, OccurredAt: time.Now().UTC()}

	require.NoError(t, stack.History.RecordSearch(ctx, "evt-dup", evt))
	require.NoError(t, stack.History.RecordSearch(ctx, "evt-dup", evt))

	rows := waitForHistory(t, infra.DB, sessionID, 1, 5*time.Second)
	assert.Len(t, rows, 1)

	stats, err := stack.History.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ByKind["search"])
}

// TestMalformedEvent_Skipped verifies the consumer skips garbage and keeps
// projecting later events.
func TestMalformedEvent_Skipped(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupMapSearchStack(t, infra.DB, infra.KafkaBrokers, nil)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second)

	publishTestEvent(t, infra.KafkaBrokers, events.TopicMapSearchEvents, "test", events.RouteFailed, "not an object")

	sessionID := uuid.New()
	publishTestEvent(t, infra.KafkaBrokers, events.TopicMapSearchEvents, "test", events.RouteFailed, events.RouteFailedEvent{
		SessionID:       sessionID,
		DestinationName: "Nowhere",
		OccurredAt:      time.Now().UTC(),
	})

	rows := waitForHistory(t, infra.DB, sessionID, 1, 15*time.Second)
	assert.Equal(t, "route_failed", rows[0].Kind)
}

func intPtr(i int) *int { return &i }
