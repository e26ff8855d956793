package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/norar1/fireportal/internal/analytics"
	apierrors "github.com/norar1/fireportal/internal/errors"
	"github.com/norar1/fireportal/internal/models"
	"github.com/norar1/fireportal/internal/services"
)

// FireHandler handles the fire incident endpoints under /api/firecases.
type FireHandler struct {
	service services.FireIncidentService
}

// NewFireHandler creates a new FireHandler instance.
func NewFireHandler(service services.FireIncidentService) *FireHandler {
	mustRegisterValidators()
	return &FireHandler{
		service: service,
	}
}

// FireIncidentRequest is the payload of an incident create or update.
// A blank year is filled from date by the service.
type FireIncidentRequest struct {
	Date       models.Date   `json:"date"`
	DamageCost models.Amount `json:"damageCost"`
	Barangay   string        `json:"barangay" binding:"required,barangay"`
	Purok      string        `json:"purok" binding:"required,purok"`
	Year       string        `json:"year" binding:"omitempty,len=4,numeric"`
}

func (r FireIncidentRequest) incident() *models.FireIncident {
	return &models.FireIncident{
		Barangay:   r.Barangay,
		Purok:      r.Purok,
		Date:       r.Date,
		Year:       r.Year,
		DamageCost: r.DamageCost,
	}
}

// FiresResponse is the incident list response.
type FiresResponse struct {
	Fires   []models.FireIncident `json:"fires"`
	Success bool                  `json:"success"`
}

// FireResponse is returned by single-incident mutations.
type FireResponse struct {
	Fire    *models.FireIncident `json:"fire,omitempty"`
	Message string               `json:"message"`
	Success bool                 `json:"success"`
}

// AnalyticsResponse wraps the aggregate views.
type AnalyticsResponse struct {
	Analytics *analytics.Report `json:"analytics"`
	Success   bool              `json:"success"`
}

func fireError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrFireIncidentNotFound):
		apierrors.NotFound(c, "Fire incident not found")
	case errors.Is(err, services.ErrInvalidFireIncident):
		apierrors.BadRequest(c, err.Error(), nil)
	default:
		apierrors.InternalServerError(c, fallback, err)
	}
}

// List handles GET /api/firecases/getFire.
func (h *FireHandler) List(c *gin.Context) {
	fires, err := h.service.List(c.Request.Context())
	if err != nil {
		fireError(c, err, "Failed to load fire incidents")
		return
	}

	c.JSON(http.StatusOK, FiresResponse{Success: true, Fires: fires})
}

// Create handles POST /api/firecases/createFire.
func (h *FireHandler) Create(c *gin.Context) {
	var req FireIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err, "Invalid fire incident payload")
		return
	}

	f := req.incident()
	if err := h.service.Create(c.Request.Context(), f); err != nil {
		fireError(c, err, "Failed to report fire incident")
		return
	}

	c.JSON(http.StatusCreated, FireResponse{
		Success: true,
		Message: "Fire incident reported",
		Fire:    f,
	})
}

// Update handles PUT /api/firecases/updateFire/:id.
func (h *FireHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req FireIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err, "Invalid fire incident payload")
		return
	}

	f := req.incident()
	f.ID = id
	updated, err := h.service.Update(c.Request.Context(), f)
	if err != nil {
		fireError(c, err, "Failed to update fire incident")
		return
	}

	c.JSON(http.StatusOK, FireResponse{
		Success: true,
		Message: "Fire incident updated",
		Fire:    updated,
	})
}

// Delete handles DELETE /api/firecases/deleteFire/:id.
func (h *FireHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		fireError(c, err, "Failed to delete fire incident")
		return
	}

	c.JSON(http.StatusOK, FireResponse{Success: true, Message: "Fire incident deleted"})
}

// Analytics handles GET /api/firecases/analytics.
func (h *FireHandler) Analytics(c *gin.Context) {
	report, err := h.service.Analytics(c.Request.Context())
	if err != nil {
		fireError(c, err, "Failed to compute fire analytics")
		return
	}

	c.JSON(http.StatusOK, AnalyticsResponse{Success: true, Analytics: report})
}
