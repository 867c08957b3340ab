package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/geo"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/mapview"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/domain"
)

func newTestSessionService(t *testing.T) (*SessionService, *fakeSearcher) {
	t.Helper()
	searcher := newFakeSearcher()
	searcher.results["coffee"] = []mapview.PlaceResult{cafeA, cafeB}
	registry := NewSessionRegistry(time.Hour, zap.NewNop())
	t.Cleanup(registry.CloseAll)

	svc := NewSessionService(registry, searcher, &fakeRouter{fn: routeTo}, nil, SessionServiceConfig{
		Origin:      geo.DefaultOrigin(),
		CallTimeout: time.Second,
		Provider:    "fake",
	}, zap.NewNop())
	return svc, searcher
}

func intPtr(i int) *int { return &i }

func TestSessionService_CreateSession(t *testing.T) {
	svc, _ := newTestSessionService(t)

	state, err := svc.CreateSession(context.Background(), CreateSessionRequest{})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, state.SessionID)
	assert.Equal(t, "idle", state.Phase)
	assert.Equal(t, "region", state.Camera.Kind)
	assert.Equal(t, geo.DefaultRegionSpanMeters, state.Camera.LatitudinalMeters)
	assert.Equal(t, geo.DefaultOriginLatitude, state.Origin.Latitude)
	assert.True(t, state.Origin.CurrentLocation)
	assert.Empty(t, state.Results)
}

func TestSessionService_CreateSessionWithOrigin(t *testing.T) {
	svc, _ := newTestSessionService(t)
	lat, lon := 40.7128, -74.006

	state, err := svc.CreateSession(context.Background(), CreateSessionRequest{OriginLat: &lat, OriginLon: &lon})
	require.NoError(t, err)
	assert.Equal(t, lat, state.Camera.Center.Latitude)
	assert.Equal(t, lon, state.Origin.Longitude)

	_, err = svc.CreateSession(context.Background(), CreateSessionRequest{OriginLat: &lat})
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))

	bad := 200.0
	_, err = svc.CreateSession(context.Background(), CreateSessionRequest{OriginLat: &lat, OriginLon: &bad})
	assert.True(t, errors.As(err, &verr))
}

func TestSessionService_FullWorkflow(t *testing.T) {
	svc, _ := newTestSessionService(t)
	ctx := context.Background()

	state, err := svc.CreateSession(ctx, CreateSessionRequest{})
	require.NoError(t, err)
	id := state.SessionID

	state, err = svc.Search(ctx, id, SearchRequest{Query: "coffee", Wait: true})
	require.NoError(t, err)
	require.Len(t, state.Results, 2)
	assert.Len(t, state.Markers, 2)

	state, err = svc.Select(ctx, id, SelectRequest{Index: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, "selected", state.Phase)
	assert.True(t, state.DetailVisible)
	require.NotNil(t, state.Selection)
	assert.Equal(t, "Cafe A", state.Selection.Name)

	frame, err := svc.GetFrame(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, frame.Sheet)
	assert.Equal(t, 340, frame.Sheet.Height)

	_, err = svc.GetRouteGeoJSON(ctx, id)
	var nf *domain.NotFoundError
	assert.True(t, errors.As(err, &nf))

	dir, err := svc.RequestDirections(ctx, id, DirectionsRequest{Wait: true})
	require.NoError(t, err)
	assert.True(t, dir.Started)
	assert.True(t, dir.State.RouteDisplaying)
	assert.False(t, dir.State.DetailVisible)
	assert.Equal(t, "rect", dir.State.Camera.Kind)
	require.NotNil(t, dir.State.Route)
	assert.Len(t, dir.State.Route.Polyline, 3)
	assert.Equal(t, int64(120), dir.State.Route.ExpectedTravelSeconds)

	fc, err := svc.GetRouteGeoJSON(ctx, id)
	require.NoError(t, err)
	require.Len(t, fc.Features, 3)
	assert.Equal(t, "route", fc.Features[0].Properties["kind"])
	assert.Equal(t, "Cafe A", fc.Features[2].Properties["name"])

	text, err := svc.RenderText(ctx, id, 60, 24)
	require.NoError(t, err)
	assert.Contains(t, text, "Cafe A")

	require.NoError(t, svc.DeleteSession(ctx, id))
	_, err = svc.GetState(ctx, id)
	assert.True(t, errors.As(err, &nf))
}

func TestSessionService_SelectValidation(t *testing.T) {
	svc, _ := newTestSessionService(t)
	ctx := context.Background()
	state, err := svc.CreateSession(ctx, CreateSessionRequest{})
	require.NoError(t, err)

	var verr *domain.ValidationError

	_, err = svc.Select(ctx, state.SessionID, SelectRequest{})
	assert.True(t, errors.As(err, &verr))

	_, err = svc.Select(ctx, state.SessionID, SelectRequest{Index: intPtr(0), CurrentLocation: true})
	assert.True(t, errors.As(err, &verr))

	_, err = svc.Select(ctx, state.SessionID, SelectRequest{Index: intPtr(0)})
	assert.True(t, errors.As(err, &verr), "no results yet")

	state, err = svc.Select(ctx, state.SessionID, SelectRequest{CurrentLocation: true})
	require.NoError(t, err)
	require.NotNil(t, state.Selection)
	assert.Equal(t, mapview.CurrentLocationName, state.Selection.Name)
}

func TestSessionService_DirectionsWithoutSelection(t *testing.T) {
	svc, _ := newTestSessionService(t)
	ctx := context.Background()
	state, err := svc.CreateSession(ctx, CreateSessionRequest{})
	require.NoError(t, err)

	dir, err := svc.RequestDirections(ctx, state.SessionID, DirectionsRequest{Wait: true})
	require.NoError(t, err)
	assert.False(t, dir.Started)
	assert.False(t, dir.State.DirectionsRequested)
	assert.Nil(t, dir.State.Route)
}

func TestSessionService_UnknownSession(t *testing.T) {
	svc, _ := newTestSessionService(t)

	_, err := svc.GetState(context.Background(), uuid.New())
	var nf *domain.NotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.Error(t, svc.DeleteSession(context.Background(), uuid.New()))
}
