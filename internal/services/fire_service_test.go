package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/norar1/fireportal/internal/analytics"
	"github.com/norar1/fireportal/internal/logger"
	"github.com/norar1/fireportal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockFireIncidentRepository is a mock implementation of FireIncidentRepository for testing
type MockFireIncidentRepository struct {
	mock.Mock
}

func (m *MockFireIncidentRepository) incident(args mock.Arguments) (*models.FireIncident, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FireIncident), args.Error(1)
}

func (m *MockFireIncidentRepository) List(ctx context.Context) ([]models.FireIncident, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FireIncident), args.Error(1)
}

func (m *MockFireIncidentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.FireIncident, error) {
	return m.incident(m.Called(ctx, id))
}

func (m *MockFireIncidentRepository) Create(ctx context.Context, f *models.FireIncident) error {
	return m.Called(ctx, f).Error(0)
}

func (m *MockFireIncidentRepository) Update(ctx context.Context, f *models.FireIncident) (*models.FireIncident, error) {
	return m.incident(m.Called(ctx, f))
}

func (m *MockFireIncidentRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func newTestFireService(repo *MockFireIncidentRepository) FireIncidentService {
	analyzer := analytics.NewAnalyzerWithClock(logger.Nop(), func() time.Time { return fixedNow })
	return NewFireIncidentService(repo, analyzer, logger.Nop())
}

func validIncident() *models.FireIncident {
	return &models.FireIncident{
		Barangay:   "Santa Cruz",
		Purok:      "Purok 2",
		Date:       models.NewDate(2025, time.March, 9),
		DamageCost: models.ParseAmount("500000 PHP"),
	}
}

func TestFireCreate_DefaultsYearFromDate(t *testing.T) {
	repo := new(MockFireIncidentRepository)
	service := newTestFireService(repo)
	ctx := context.Background()

	f := validIncident()
	repo.On("Create", ctx, f).Return(nil)

	require.NoError(t, service.Create(ctx, f))
	assert.Equal(t, "2025", f.Year)
	assert.NotEqual(t, uuid.Nil, f.ID)
	repo.AssertExpectations(t)
}

func TestFireCreate_KeepsExplicitYear(t *testing.T) {
	repo := new(MockFireIncidentRepository)
	service := newTestFireService(repo)
	ctx := context.Background()

	f := validIncident()
	f.Year = "2024"
	repo.On("Create", ctx, f).Return(nil)

	require.NoError(t, service.Create(ctx, f))
	assert.Equal(t, "2024", f.Year)
}

func TestFireCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *models.FireIncident)
	}{
		{"unknown barangay", func(f *models.FireIncident) { f.Barangay = "Atlantis" }},
		{"unknown purok", func(f *models.FireIncident) { f.Purok = "Purok 9" }},
		{"missing date", func(f *models.FireIncident) { f.Date = models.Date{} }},
		{"short year", func(f *models.FireIncident) { f.Year = "25" }},
		{"non-numeric year", func(f *models.FireIncident) { f.Year = "20x5" }},
		{"negative damage", func(f *models.FireIncident) { f.DamageCost.Minor = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockFireIncidentRepository)
			service := newTestFireService(repo)

			f := validIncident()
			tt.mutate(f)

			err := service.Create(context.Background(), f)
			assert.ErrorIs(t, err, ErrInvalidFireIncident)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestFireUpdate_NotFound(t *testing.T) {
	repo := new(MockFireIncidentRepository)
	service := newTestFireService(repo)
	ctx := context.Background()

	f := validIncident()
	f.ID = uuid.New()
	repo.On("Update", ctx, f).Return(nil, nil)

	_, err := service.Update(ctx, f)
	assert.ErrorIs(t, err, ErrFireIncidentNotFound)
}

func TestFireGetAndDelete(t *testing.T) {
	repo := new(MockFireIncidentRepository)
	service := newTestFireService(repo)
	ctx := context.Background()
	id := uuid.New()

	repo.On("FindByID", ctx, id).Return(nil, nil)
	_, err := service.Get(ctx, id)
	assert.ErrorIs(t, err, ErrFireIncidentNotFound)

	repo.On("Delete", ctx, id).Return(false, nil)
	assert.ErrorIs(t, service.Delete(ctx, id), ErrFireIncidentNotFound)
}

func TestFireAnalytics(t *testing.T) {
	repo := new(MockFireIncidentRepository)
	service := newTestFireService(repo)
	ctx := context.Background()

	a := validIncident()
	a.Year = "2025"
	b := validIncident()
	b.Date = models.NewDate(2024, time.August, 1)
	b.Year = "2024"
	repo.On("List", ctx).Return([]models.FireIncident{*a, *b}, nil)

	report, err := service.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Overall.TotalCases)
	assert.Equal(t, 1, report.Overall.CurrentYearCases)
	assert.Equal(t, int64(1000000), report.Overall.TotalDamage)
	assert.Len(t, report.Monthly, 12)
}

func TestFireAnalytics_RepositoryError(t *testing.T) {
	repo := new(MockFireIncidentRepository)
	service := newTestFireService(repo)
	ctx := context.Background()

	dbErr := errors.New("timeout")
	repo.On("List", ctx).Return(nil, dbErr)

	_, err := service.Analytics(ctx)
	assert.ErrorIs(t, err, dbErr)
}
