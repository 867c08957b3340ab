package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/application"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/middleware"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/response"
)

// AdminHistoryHandler handles admin HTTP requests for the workflow history.
type AdminHistoryHandler struct {
	service *application.HistoryService
}

// NewAdminHistoryHandler creates a new AdminHistoryHandler.
func NewAdminHistoryHandler(service *application.HistoryService) *AdminHistoryHandler {
	return &AdminHistoryHandler{service: service}
}

// RegisterRoutes registers admin history routes.
func (h *AdminHistoryHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/history", h.ListHistory)
		admin.GET("/stats/history", h.HistoryStats)
		admin.GET("/stats/queries", h.TopQueries)
	}
}

// ListHistory handles GET /api/v1/admin/history?kind=&page=&limit=.
func (h *AdminHistoryHandler) ListHistory(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListRecent(c.Request.Context(), c.Query("kind"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// HistoryStats handles GET /api/v1/admin/stats/history.
func (h *AdminHistoryHandler) HistoryStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// TopQueries handles GET /api/v1/admin/stats/queries?limit=.
func (h *AdminHistoryHandler) TopQueries(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	top, err := h.service.TopQueries(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, top)
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
