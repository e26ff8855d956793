package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/norar1/fireportal/internal/errors"
	"github.com/norar1/fireportal/internal/models"
	"github.com/norar1/fireportal/internal/services"
)

// DashboardHandler serves the summary counts behind the dashboard cards.
type DashboardHandler struct {
	permits services.PermitService
}

// NewDashboardHandler creates a new DashboardHandler instance.
func NewDashboardHandler(permits services.PermitService) *DashboardHandler {
	return &DashboardHandler{permits: permits}
}

// StatsResponse holds review-state counts keyed by permit type.
type StatsResponse struct {
	Stats   map[models.PermitType]models.StatusCounts `json:"stats"`
	Success bool                                      `json:"success"`
}

// Stats handles GET /api/dashboard/stats.
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.permits.Stats(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to load dashboard stats", err)
		return
	}

	c.JSON(http.StatusOK, StatsResponse{Success: true, Stats: stats})
}
