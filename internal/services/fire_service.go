package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/norar1/fireportal/internal/analytics"
	"github.com/norar1/fireportal/internal/logger"
	"github.com/norar1/fireportal/internal/models"
	"github.com/norar1/fireportal/internal/repository"
)

// Fire incident errors
var (
	ErrFireIncidentNotFound = errors.New("fire incident not found")
	ErrInvalidFireIncident  = errors.New("invalid fire incident")
)

// FireIncidentService defines the interface for fire incident business logic.
type FireIncidentService interface {
	List(ctx context.Context) ([]models.FireIncident, error)

	// Get returns ErrFireIncidentNotFound when no incident matches.
	Get(ctx context.Context, id uuid.UUID) (*models.FireIncident, error)

	// Create validates and stores a new incident. A blank year is taken
	// from the incident date.
	Create(ctx context.Context, f *models.FireIncident) error

	// Update validates and replaces an incident.
	Update(ctx context.Context, f *models.FireIncident) (*models.FireIncident, error)

	// Delete returns ErrFireIncidentNotFound when no incident matches.
	Delete(ctx context.Context, id uuid.UUID) error

	// Analytics aggregates every stored incident.
	Analytics(ctx context.Context) (*analytics.Report, error)
}

type fireIncidentService struct {
	repo     repository.FireIncidentRepository
	analyzer *analytics.Analyzer
	log      *logger.Logger
}

// NewFireIncidentService creates a new instance of FireIncidentService.
func NewFireIncidentService(repo repository.FireIncidentRepository, analyzer *analytics.Analyzer, log *logger.Logger) FireIncidentService {
	return &fireIncidentService{
		repo:     repo,
		analyzer: analyzer,
		log:      log,
	}
}

// normalizeIncident fills defaults and checks the fixed vocabularies.
func normalizeIncident(f *models.FireIncident) error {
	f.Barangay = strings.TrimSpace(f.Barangay)
	f.Purok = strings.TrimSpace(f.Purok)
	f.Year = strings.TrimSpace(f.Year)

	if !models.IsBarangay(f.Barangay) {
		return fmt.Errorf("%w: unknown barangay %q", ErrInvalidFireIncident, f.Barangay)
	}
	if !models.IsPurok(f.Purok) {
		return fmt.Errorf("%w: unknown purok %q", ErrInvalidFireIncident, f.Purok)
	}
	if f.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidFireIncident)
	}
	if f.Year == "" {
		f.Year = strconv.Itoa(f.Date.Year())
	}
	if len(f.Year) != 4 {
		return fmt.Errorf("%w: year must have four digits, got %q", ErrInvalidFireIncident, f.Year)
	}
	if _, ok := f.YearNumber(); !ok {
		return fmt.Errorf("%w: year must be numeric, got %q", ErrInvalidFireIncident, f.Year)
	}
	if f.DamageCost.Minor < 0 {
		return fmt.Errorf("%w: damage cost cannot be negative", ErrInvalidFireIncident)
	}
	if f.DamageCost.Currency == "" {
		f.DamageCost.Currency = models.DefaultCurrency
	}
	return nil
}

func (s *fireIncidentService) List(ctx context.Context) ([]models.FireIncident, error) {
	incidents, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error("Failed to list fire incidents", err, nil)
		return nil, fmt.Errorf("failed to list fire incidents: %w", err)
	}
	return incidents, nil
}

func (s *fireIncidentService) Get(ctx context.Context, id uuid.UUID) (*models.FireIncident, error) {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query fire incident: %w", err)
	}
	if f == nil {
		return nil, ErrFireIncidentNotFound
	}
	return f, nil
}

func (s *fireIncidentService) Create(ctx context.Context, f *models.FireIncident) error {
	if err := normalizeIncident(f); err != nil {
		s.log.Warn("Rejected fire incident", map[string]interface{}{
			"reason": err.Error(),
		})
		return err
	}
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}

	if err := s.repo.Create(ctx, f); err != nil {
		s.log.Error("Failed to create fire incident", err, map[string]interface{}{
			"barangay": f.Barangay,
		})
		return fmt.Errorf("failed to create fire incident: %w", err)
	}

	s.log.Info("Fire incident reported", map[string]interface{}{
		"incident_id": f.ID.String(),
		"barangay":    f.Barangay,
		"purok":       f.Purok,
		"date":        f.Date.String(),
		"damage":      f.DamageCost.String(),
	})
	return nil
}

func (s *fireIncidentService) Update(ctx context.Context, f *models.FireIncident) (*models.FireIncident, error) {
	if err := normalizeIncident(f); err != nil {
		s.log.Warn("Rejected fire incident update", map[string]interface{}{
			"incident_id": f.ID.String(),
			"reason":      err.Error(),
		})
		return nil, err
	}

	updated, err := s.repo.Update(ctx, f)
	if err != nil {
		s.log.Error("Failed to update fire incident", err, map[string]interface{}{
			"incident_id": f.ID.String(),
		})
		return nil, fmt.Errorf("failed to update fire incident: %w", err)
	}
	if updated == nil {
		return nil, ErrFireIncidentNotFound
	}

	s.log.Info("Fire incident updated", map[string]interface{}{
		"incident_id": f.ID.String(),
	})
	return updated, nil
}

func (s *fireIncidentService) Delete(ctx context.Context, id uuid.UUID) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.log.Error("Failed to delete fire incident", err, map[string]interface{}{
			"incident_id": id.String(),
		})
		return fmt.Errorf("failed to delete fire incident: %w", err)
	}
	if !removed {
		return ErrFireIncidentNotFound
	}

	s.log.Info("Fire incident deleted", map[string]interface{}{
		"incident_id": id.String(),
	})
	return nil
}

func (s *fireIncidentService) Analytics(ctx context.Context) (*analytics.Report, error) {
	incidents, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	report := s.analyzer.Analyze(incidents)
	return &report, nil
}
