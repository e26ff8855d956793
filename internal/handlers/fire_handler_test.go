package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/norar1/fireportal/internal/analytics"
	apierrors "github.com/norar1/fireportal/internal/errors"
	"github.com/norar1/fireportal/internal/logger"
	"github.com/norar1/fireportal/internal/middleware"
	"github.com/norar1/fireportal/internal/models"
	"github.com/norar1/fireportal/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockFireIncidentService is a mock implementation of services.FireIncidentService.
type MockFireIncidentService struct {
	mock.Mock
}

func (m *MockFireIncidentService) incident(args mock.Arguments) (*models.FireIncident, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FireIncident), args.Error(1)
}

func (m *MockFireIncidentService) List(ctx context.Context) ([]models.FireIncident, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FireIncident), args.Error(1)
}

func (m *MockFireIncidentService) Get(ctx context.Context, id uuid.UUID) (*models.FireIncident, error) {
	return m.incident(m.Called(ctx, id))
}

func (m *MockFireIncidentService) Create(ctx context.Context, f *models.FireIncident) error {
	return m.Called(ctx, f).Error(0)
}

func (m *MockFireIncidentService) Update(ctx context.Context, f *models.FireIncident) (*models.FireIncident, error) {
	return m.incident(m.Called(ctx, f))
}

func (m *MockFireIncidentService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockFireIncidentService) Analytics(ctx context.Context) (*analytics.Report, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analytics.Report), args.Error(1)
}

func setupFireTestRouter(service services.FireIncidentService) *gin.Engine {
	router := setupTestRouter()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Nop()))
	RegisterRoutes(router, Handlers{Fires: NewFireHandler(service)})
	return router
}

func TestFireHandler_List(t *testing.T) {
	service := new(MockFireIncidentService)
	router := setupFireTestRouter(service)

	fire := models.FireIncident{
		ID:         uuid.New(),
		Barangay:   "Santa Cruz",
		Purok:      "Purok 2",
		Date:       models.NewDate(2025, time.March, 9),
		Year:       "2025",
		DamageCost: models.Pesos(500000),
	}
	service.On("List", mock.Anything).Return([]models.FireIncident{fire}, nil)

	w := doJSON(router, http.MethodGet, "/api/firecases/getFire", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var raw struct {
		Success bool `json:"success"`
		Fires   []struct {
			DamageCost string `json:"damageCost"`
			Date       string `json:"date"`
			Year       string `json:"year"`
		} `json:"fires"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&raw))
	assert.True(t, raw.Success)
	require.Len(t, raw.Fires, 1)
	assert.Equal(t, "500000 PHP", raw.Fires[0].DamageCost)
	assert.Equal(t, "2025-03-09", raw.Fires[0].Date)
	assert.Equal(t, "2025", raw.Fires[0].Year)
}

func TestFireHandler_Create(t *testing.T) {
	service := new(MockFireIncidentService)
	router := setupFireTestRouter(service)

	service.On("Create", mock.Anything, mock.MatchedBy(func(f *models.FireIncident) bool {
		return f.Barangay == "San Isidro" &&
			f.Purok == "Purok 4" &&
			f.DamageCost.Major() == 1500000 &&
			f.Date.Equal(models.NewDate(2025, time.January, 15))
	})).Return(nil)

	w := doJSON(router, http.MethodPost, "/api/firecases/createFire", map[string]string{
		"barangay":   "San Isidro",
		"purok":      "Purok 4",
		"date":       "2025-01-15",
		"damageCost": "1,500,000 PHP",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	service.AssertExpectations(t)
}

func TestFireHandler_CreateValidation(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]string
		badField string
	}{
		{"unknown barangay", map[string]string{"barangay": "Atlantis", "purok": "Purok 1"}, "barangay"},
		{"unknown purok", map[string]string{"barangay": "San Isidro", "purok": "Purok 7"}, "purok"},
		{"missing barangay", map[string]string{"purok": "Purok 1"}, "barangay"},
		{"two digit year", map[string]string{"barangay": "San Isidro", "purok": "Purok 1", "year": "25"}, "year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockFireIncidentService)
			router := setupFireTestRouter(service)

			w := doJSON(router, http.MethodPost, "/api/firecases/createFire", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var response apierrors.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Contains(t, response.Error.Details, tt.badField)
			service.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestFireHandler_CreateMissingDate(t *testing.T) {
	service := new(MockFireIncidentService)
	router := setupFireTestRouter(service)

	service.On("Create", mock.Anything, mock.Anything).
		Return(errors.Join(services.ErrInvalidFireIncident, errors.New("date is required")))

	w := doJSON(router, http.MethodPost, "/api/firecases/createFire", map[string]string{
		"barangay": "San Isidro",
		"purok":    "Purok 1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFireHandler_UpdateAndDelete(t *testing.T) {
	service := new(MockFireIncidentService)
	router := setupFireTestRouter(service)

	id := uuid.New()
	service.On("Update", mock.Anything, mock.MatchedBy(func(f *models.FireIncident) bool {
		return f.ID == id
	})).Return(nil, services.ErrFireIncidentNotFound)
	service.On("Delete", mock.Anything, id).Return(nil)

	w := doJSON(router, http.MethodPut, "/api/firecases/updateFire/"+id.String(), map[string]string{
		"barangay": "San Isidro",
		"purok":    "Purok 1",
		"date":     "2025-02-01",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/firecases/deleteFire/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Fire incident deleted"}`, w.Body.String())
}

func TestFireHandler_Analytics(t *testing.T) {
	service := new(MockFireIncidentService)
	router := setupFireTestRouter(service)

	report := &analytics.Report{
		Overall: analytics.Overall{TotalCases: 2, TotalDamage: 750000, AverageDamage: 375000, CurrentYearCases: 1},
		Seasonal: []analytics.SeasonalSummary{
			{Season: analytics.DrySeason, CaseCount: 1},
			{Season: analytics.WetSeason, CaseCount: 1},
		},
	}
	service.On("Analytics", mock.Anything).Return(report, nil)

	w := doJSON(router, http.MethodGet, "/api/firecases/analytics", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response AnalyticsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.True(t, response.Success)
	assert.Equal(t, 2, response.Analytics.Overall.TotalCases)
	assert.Equal(t, analytics.DrySeason, response.Analytics.Seasonal[0].Season)
}
