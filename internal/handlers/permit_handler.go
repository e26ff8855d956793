package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apierrors "github.com/norar1/fireportal/internal/errors"
	"github.com/norar1/fireportal/internal/export"
	"github.com/norar1/fireportal/internal/listing"
	"github.com/norar1/fireportal/internal/middleware"
	"github.com/norar1/fireportal/internal/models"
	"github.com/norar1/fireportal/internal/services"
)

// PermitHandler handles the permit endpoints shared by every permit type.
// The type comes from the :type path segment.
type PermitHandler struct {
	service services.PermitService
}

// NewPermitHandler creates a new PermitHandler instance.
func NewPermitHandler(service services.PermitService) *PermitHandler {
	mustRegisterValidators()
	return &PermitHandler{
		service: service,
	}
}

// PermitFields are the fields common to every permit submission.
type PermitFields struct {
	DateReceived models.Date `json:"date_received"`
	Email        string      `json:"email" binding:"omitempty,email,max=255"`
}

// BuildingRequest is the payload of a building permit create or update.
type BuildingRequest struct {
	PermitFields
	models.BuildingDetails
}

// OccupancyRequest is the payload of an occupancy permit create or update.
type OccupancyRequest struct {
	PermitFields
	models.OccupancyDetails
}

// FSICRequest is the payload of a business FSIC permit create or update.
type FSICRequest struct {
	PermitFields
	models.FSICDetails
}

// StatusRequest is the payload of PUT /UpdateStatus/:id.
type StatusRequest struct {
	Status models.Status `json:"status" binding:"required,permit_status"`
}

// PaymentRequest is the payload of PUT /UpdatePaymentStatus/:id.
type PaymentRequest struct {
	LastPaymentDate *models.Date         `json:"last_payment_date"`
	PaymentStatus   models.PaymentStatus `json:"payment_status" binding:"required,oneof=not_paid paid"`
}

// ExportRequest holds the optional report filters.
type ExportRequest struct {
	Month int `form:"month" binding:"omitempty,min=1,max=12"`
	Year  int `form:"year" binding:"omitempty,min=1900,max=9999"`
}

// PermitsResponse is the list and search response.
type PermitsResponse struct {
	Permits []models.Permit `json:"permits"`
	Success bool            `json:"success"`
}

// PermitResponse is returned by single-permit mutations.
type PermitResponse struct {
	Permit  *models.Permit `json:"permit,omitempty"`
	Message string         `json:"message"`
	Success bool           `json:"success"`
}

// StatusResponse is returned by a status change.
type StatusResponse struct {
	Permit    *models.Permit `json:"permit"`
	Message   string         `json:"message"`
	Success   bool           `json:"success"`
	EmailSent bool           `json:"email_sent"`
}

// permitType resolves the :type path segment, answering 404 when unknown.
func permitType(c *gin.Context) (models.PermitType, bool) {
	t, err := models.ParsePermitType(c.Param("type"))
	if err != nil {
		apierrors.NotFound(c, "Unknown permit type: "+c.Param("type"))
		return "", false
	}
	return t, true
}

// pathID parses the :id path segment, answering 400 when malformed.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid record id", map[string]interface{}{
			"id": c.Param("id"),
		})
		return uuid.Nil, false
	}
	return id, true
}

// bindPermit decodes the type-specific payload into a Permit.
func bindPermit(c *gin.Context, t models.PermitType) (*models.Permit, bool) {
	p := &models.Permit{Type: t}
	var (
		fields PermitFields
		err    error
	)

	switch t {
	case models.PermitBuilding:
		var req BuildingRequest
		err = c.ShouldBindJSON(&req)
		fields, p.Building = req.PermitFields, &req.BuildingDetails
	case models.PermitOccupancy:
		var req OccupancyRequest
		err = c.ShouldBindJSON(&req)
		fields, p.Occupancy = req.PermitFields, &req.OccupancyDetails
	case models.PermitFSIC:
		var req FSICRequest
		err = c.ShouldBindJSON(&req)
		fields, p.FSIC = req.PermitFields, &req.FSICDetails
	}
	if err != nil {
		apierrors.BindError(c, err, "Invalid permit payload")
		return nil, false
	}

	p.DateReceived = fields.DateReceived
	p.Email = fields.Email
	return p, true
}

// permitError maps service errors to HTTP responses.
func permitError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrPermitNotFound):
		apierrors.NotFound(c, "Permit not found")
	case errors.Is(err, services.ErrInvalidPermitType):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidPermit),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPaymentStatus):
		apierrors.BadRequest(c, err.Error(), nil)
	default:
		apierrors.InternalServerError(c, fallback, err)
	}
}

// List handles GET /api/:type/GetPermit.
func (h *PermitHandler) List(c *gin.Context) {
	t, ok := permitType(c)
	if !ok {
		return
	}

	permits, err := h.service.List(c.Request.Context(), t)
	if err != nil {
		permitError(c, err, "Failed to load permits")
		return
	}

	c.JSON(http.StatusOK, PermitsResponse{Success: true, Permits: permits})
}

// Search handles GET /api/:type/search?query=.
func (h *PermitHandler) Search(c *gin.Context) {
	t, ok := permitType(c)
	if !ok {
		return
	}

	permits, err := h.service.Search(c.Request.Context(), t, c.Query("query"))
	if err != nil {
		permitError(c, err, "Failed to search permits")
		return
	}

	c.JSON(http.StatusOK, PermitsResponse{Success: true, Permits: permits})
}

// Create handles POST /api/:type/CreatePermit.
func (h *PermitHandler) Create(c *gin.Context) {
	t, ok := permitType(c)
	if !ok {
		return
	}
	p, ok := bindPermit(c, t)
	if !ok {
		return
	}

	if err := h.service.Create(c.Request.Context(), p); err != nil {
		permitError(c, err, "Failed to submit permit application")
		return
	}

	c.JSON(http.StatusCreated, PermitResponse{
		Success: true,
		Message: t.Label() + " permit application submitted",
		Permit:  p,
	})
}

// Update handles PUT /api/:type/UpdatePermit/:id.
func (h *PermitHandler) Update(c *gin.Context) {
	t, ok := permitType(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, ok := bindPermit(c, t)
	if !ok {
		return
	}
	p.ID = id

	updated, err := h.service.Update(c.Request.Context(), p)
	if err != nil {
		permitError(c, err, "Failed to update permit")
		return
	}

	c.JSON(http.StatusOK, PermitResponse{
		Success: true,
		Message: "Permit updated successfully",
		Permit:  updated,
	})
}

// UpdateStatus handles PUT /api/:type/UpdateStatus/:id.
func (h *PermitHandler) UpdateStatus(c *gin.Context) {
	t, ok := permitType(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err, "Invalid status payload")
		return
	}

	change, err := h.service.UpdateStatus(c.Request.Context(), t, id, req.Status)
	if err != nil {
		permitError(c, err, "Failed to update permit status")
		return
	}

	if change.NotifyErr != nil {
		if log := middleware.GetLogger(c); log != nil {
			log.Warn("Status saved without email notification", map[string]interface{}{
				"error": change.NotifyErr.Error(),
			})
		}
	}

	c.JSON(http.StatusOK, StatusResponse{
		Success:   true,
		Message:   change.Message,
		Permit:    change.Permit,
		EmailSent: change.Notified,
	})
}

// UpdatePayment handles PUT /api/:type/UpdatePaymentStatus/:id.
func (h *PermitHandler) UpdatePayment(c *gin.Context) {
	t, ok := permitType(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err, "Invalid payment payload")
		return
	}

	updated, err := h.service.UpdatePayment(c.Request.Context(), t, id, req.PaymentStatus, req.LastPaymentDate)
	if err != nil {
		permitError(c, err, "Failed to update payment status")
		return
	}

	c.JSON(http.StatusOK, PermitResponse{
		Success: true,
		Message: "Payment status set to " + updated.PaymentStatus.Label(),
		Permit:  updated,
	})
}

// Delete handles DELETE /api/:type/DeletePermit/:id.
func (h *PermitHandler) Delete(c *gin.Context) {
	t, ok := permitType(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), t, id); err != nil {
		permitError(c, err, "Failed to delete permit")
		return
	}

	c.JSON(http.StatusOK, PermitResponse{Success: true, Message: "Permit deleted successfully"})
}

// Export handles GET /api/:type/export?month=&year= and streams an xlsx report.
func (h *PermitHandler) Export(c *gin.Context) {
	t, ok := permitType(c)
	if !ok {
		return
	}

	var req ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		apierrors.BindError(c, err, "Invalid export filters")
		return
	}

	var buf bytes.Buffer
	criteria := listing.Criteria{Month: time.Month(req.Month), Year: req.Year}
	rows, err := h.service.Export(c.Request.Context(), t, criteria, &buf)
	if err != nil {
		permitError(c, err, "Failed to export permits")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.FileName(t)+`"`)
	c.Header("X-Row-Count", strconv.Itoa(rows))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
