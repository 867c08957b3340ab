package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/application"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/response"
)

const (
	defaultTextWidth  = 80
	defaultTextHeight = 24
	maxTextDimension  = 400
)

// SessionHandler handles HTTP requests for map sessions.
type SessionHandler struct {
	service *application.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(service *application.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// RegisterRoutes registers all session routes on the given router group.
func (h *SessionHandler) RegisterRoutes(r *gin.RouterGroup) {
	sessions := r.Group("/api/v1/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("/:id", h.GetState)
		sessions.DELETE("/:id", h.DeleteSession)
		sessions.POST("/:id/search", h.Search)
		sessions.POST("/:id/select", h.Select)
		sessions.POST("/:id/dismiss", h.Dismiss)
		sessions.POST("/:id/directions", h.RequestDirections)
		sessions.POST("/:id/camera/reset", h.ResetCamera)
		sessions.GET("/:id/frame", h.GetFrame)
		sessions.GET("/:id/frame.txt", h.GetFrameText)
		sessions.GET("/:id/route.geojson", h.GetRouteGeoJSON)
	}
}

// CreateSession handles POST /api/v1/sessions. The body is optional.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req application.CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	result, err := h.service.CreateSession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetState handles GET /api/v1/sessions/:id.
func (h *SessionHandler) GetState(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	result, err := h.service.GetState(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Search handles POST /api/v1/sessions/:id/search. Without wait=true the
// search runs in the background and the response is 202 Accepted.
func (h *SessionHandler) Search(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req application.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Search(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if req.Wait {
		response.Success(c, result)
		return
	}
	response.Accepted(c, result)
}

// Select handles POST /api/v1/sessions/:id/select.
func (h *SessionHandler) Select(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req application.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Select(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Dismiss handles POST /api/v1/sessions/:id/dismiss.
func (h *SessionHandler) Dismiss(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	result, err := h.service.Dismiss(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RequestDirections handles POST /api/v1/sessions/:id/directions.
func (h *SessionHandler) RequestDirections(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req application.DirectionsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	result, err := h.service.RequestDirections(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Started && !req.Wait {
		response.Accepted(c, result)
		return
	}
	response.Success(c, result)
}

// ResetCamera handles POST /api/v1/sessions/:id/camera/reset.
func (h *SessionHandler) ResetCamera(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	result, err := h.service.ResetCamera(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetFrame handles GET /api/v1/sessions/:id/frame.
func (h *SessionHandler) GetFrame(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	frame, err := h.service.GetFrame(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, frame)
}

// GetFrameText handles GET /api/v1/sessions/:id/frame.txt?width=&height=.
func (h *SessionHandler) GetFrameText(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	width, ok := dimension(c, "width", defaultTextWidth)
	if !ok {
		return
	}
	height, ok := dimension(c, "height", defaultTextHeight)
	if !ok {
		return
	}

	text, err := h.service.RenderText(c.Request.Context(), id, width, height)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.String(http.StatusOK, text+"\n")
}

// GetRouteGeoJSON handles GET /api/v1/sessions/:id/route.geojson. The body
// is a bare GeoJSON FeatureCollection so map tooling can consume it directly.
func (h *SessionHandler) GetRouteGeoJSON(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	fc, err := h.service.GetRouteGeoJSON(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	body, err := fc.MarshalJSON()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "application/geo+json", body)
}

// DeleteSession handles DELETE /api/v1/sessions/:id.
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteSession(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session ID")
		return uuid.Nil, false
	}
	return id, true
}

func dimension(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 || v > maxTextDimension {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}
