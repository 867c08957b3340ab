package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/application"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/geo"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/history"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/mapview"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/events"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var cafeA = mapview.PlaceResult{Name: "Cafe A", Title: "1 Main St", Coordinate: geo.Coordinate{Latitude: 25.7820, Longitude: -80.1880}}

type stubSearcher struct{}

func (stubSearcher) Search(_ context.Context, query string, _ geo.Region) ([]mapview.PlaceResult, error) {
	if query == "coffee" {
		return []mapview.PlaceResult{cafeA}, nil
	}
	return nil, nil
}

type stubRouter struct{}

func (stubRouter) Route(_ context.Context, origin, destination geo.Coordinate) (*mapview.RouteResult, error) {
	line := orb.LineString{origin.Point(), destination.Point()}
	return mapview.NewRouteResult(line, mapview.PlaceResult{}, 120, time.Minute), nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

func newSessionRouter(t *testing.T) *gin.Engine {
	t.Helper()
	registry := application.NewSessionRegistry(time.Hour, zap.NewNop())
	t.Cleanup(registry.CloseAll)
	svc := application.NewSessionService(registry, stubSearcher{}, stubRouter{}, nil, application.SessionServiceConfig{
		Origin:   geo.DefaultOrigin(),
		Provider: "stub",
	}, zap.NewNop())

	r := gin.New()
	NewSessionHandler(svc).RegisterRoutes(&r.RouterGroup)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) application.ViewStateDTO {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.True(t, env.Success, w.Body.String())
	var state application.ViewStateDTO
	require.NoError(t, json.Unmarshal(env.Data, &state))
	return state
}

func TestSessionHandler_Workflow(t *testing.T) {
	r := newSessionRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	state := decodeState(t, w)
	base := "/api/v1/sessions/" + state.SessionID.String()

	w = do(t, r, http.MethodPost, base+"/search", map[string]interface{}{"query": "coffee", "wait": true})
	require.Equal(t, http.StatusOK, w.Code)
	state = decodeState(t, w)
	require.Len(t, state.Results, 1)

	w = do(t, r, http.MethodPost, base+"/select", map[string]interface{}{"index": 0})
	require.Equal(t, http.StatusOK, w.Code)
	state = decodeState(t, w)
	assert.True(t, state.DetailVisible)

	w = do(t, r, http.MethodGet, base+"/frame", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"height":340`)

	w = do(t, r, http.MethodGet, base+"/route.geojson", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, base+"/directions", map[string]interface{}{"wait": true})
	require.Equal(t, http.StatusOK, w.Code)
	var dirEnv envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dirEnv))
	var dir application.DirectionsResultDTO
	require.NoError(t, json.Unmarshal(dirEnv.Data, &dir))
	assert.True(t, dir.Started)
	assert.True(t, dir.State.RouteDisplaying)

	w = do(t, r, http.MethodGet, base+"/route.geojson", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"FeatureCollection"`)

	w = do(t, r, http.MethodGet, base+"/frame.txt?width=50&height=20", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Cafe A")

	w = do(t, r, http.MethodPost, base+"/camera/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "region", decodeState(t, w).Camera.Kind)

	w = do(t, r, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_AsyncSearchIsAccepted(t *testing.T) {
	r := newSessionRouter(t)
	state := decodeState(t, do(t, r, http.MethodPost, "/api/v1/sessions", nil))

	w := do(t, r, http.MethodPost, "/api/v1/sessions/"+state.SessionID.String()+"/search", map[string]interface{}{"query": "coffee"})

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestSessionHandler_Errors(t *testing.T) {
	r := newSessionRouter(t)
	state := decodeState(t, do(t, r, http.MethodPost, "/api/v1/sessions", map[string]float64{"origin_lat": 40.7, "origin_lon": -74.0}))
	assert.Equal(t, 40.7, state.Origin.Latitude)
	base := "/api/v1/sessions/" + state.SessionID.String()

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"bad id", http.MethodGet, "/api/v1/sessions/not-a-uuid", nil, http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/api/v1/sessions/" + uuid.New().String(), nil, http.StatusNotFound},
		{"select out of range", http.MethodPost, base + "/select", map[string]int{"index": 5}, http.StatusBadRequest},
		{"select nothing", http.MethodPost, base + "/select", map[string]int{}, http.StatusBadRequest},
		{"bad search body", http.MethodPost, base + "/search", "not an object", http.StatusBadRequest},
		{"bad text size", http.MethodGet, base + "/frame.txt?width=0", nil, http.StatusBadRequest},
		{"half origin", http.MethodPost, "/api/v1/sessions", map[string]float64{"origin_lat": 1}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestSessionHandler_DirectionsWithoutSelection(t *testing.T) {
	r := newSessionRouter(t)
	state := decodeState(t, do(t, r, http.MethodPost, "/api/v1/sessions", nil))

	w := do(t, r, http.MethodPost, "/api/v1/sessions/"+state.SessionID.String()+"/directions", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"started":false`)
}

type memoryHistory struct {
	entries []*history.Entry
}

func (m *memoryHistory) Save(_ context.Context, e *history.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryHistory) ListRecent(_ context.Context, _ history.Kind, _, _ int) ([]*history.Entry, int64, error) {
	return m.entries, int64(len(m.entries)), nil
}

func (m *memoryHistory) CountByKind(_ context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, e := range m.entries {
		counts[string(e.Kind())]++
	}
	return counts, nil
}

func (m *memoryHistory) TopQueries(_ context.Context, _ int) ([]history.QueryCount, error) {
	return []history.QueryCount{{Query: "coffee", Count: int64(len(m.entries))}}, nil
}

func TestAdminHistoryHandler(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour, time.Hour)
	svc := application.NewHistoryService(&memoryHistory{}, zap.NewNop())
	require.NoError(t, svc.RecordSearch(context.Background(), "evt-1", events.SearchCompletedEvent{
		SessionID: uuid.New(), Query: "coffee", ResultCount: 1, OccurredAt: time.Now(),
	}))

	r := gin.New()
	NewAdminHistoryHandler(svc).RegisterRoutes(&r.RouterGroup, jwtManager)

	adminToken, err := jwtManager.GenerateAccessToken(uuid.New(), auth.RoleAdmin)
	require.NoError(t, err)
	userToken, err := jwtManager.GenerateAccessToken(uuid.New(), auth.RoleUser)
	require.NoError(t, err)

	w := do(t, r, http.MethodGet, "/api/v1/admin/history", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/admin/history", nil, "Authorization", "Bearer "+userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/admin/history?page=1&limit=10", nil, "Authorization", "Bearer "+adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(1), env.Meta.Total)

	w = do(t, r, http.MethodGet, "/api/v1/admin/history?kind=bogus", nil, "Authorization", "Bearer "+adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/admin/stats/history", nil, "Authorization", "Bearer "+adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"search":1`)

	w = do(t, r, http.MethodGet, "/api/v1/admin/stats/queries", nil, "Authorization", "Bearer "+adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "coffee")
}
