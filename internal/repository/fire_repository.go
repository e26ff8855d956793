package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/norar1/fireportal/internal/database"
	"github.com/norar1/fireportal/internal/models"
)

// FireIncidentRepository defines the interface for fire incident data access.
type FireIncidentRepository interface {
	// List returns every incident, most recent first.
	List(ctx context.Context) ([]models.FireIncident, error)

	// FindByID returns nil, nil when no incident matches.
	FindByID(ctx context.Context, id uuid.UUID) (*models.FireIncident, error)

	// Create inserts f and fills in its timestamps.
	Create(ctx context.Context, f *models.FireIncident) error

	// Update replaces every field of the incident with id f.ID.
	// Returns nil, nil when no incident matches.
	Update(ctx context.Context, f *models.FireIncident) (*models.FireIncident, error)

	// Delete removes an incident, reporting whether one was removed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type fireIncidentRepository struct {
	db *database.Database
}

// NewFireIncidentRepository creates a new instance of FireIncidentRepository.
func NewFireIncidentRepository(db *database.Database) FireIncidentRepository {
	return &fireIncidentRepository{
		db: db,
	}
}

const fireColumns = `
	id,
	barangay,
	purok,
	incident_date,
	year,
	damage_cost_minor,
	damage_currency,
	created_at,
	updated_at`

func scanFireIncident(row pgx.Row) (*models.FireIncident, error) {
	var (
		f    models.FireIncident
		date *time.Time
	)

	err := row.Scan(
		&f.ID,
		&f.Barangay,
		&f.Purok,
		&date,
		&f.Year,
		&f.DamageCost.Minor,
		&f.DamageCost.Currency,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if date != nil {
		f.Date = models.DateOf(*date)
	}
	return &f, nil
}

func (r *fireIncidentRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*models.FireIncident, error) {
	f, err := scanFireIncident(r.db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return f, nil
}

func (r *fireIncidentRepository) List(ctx context.Context) ([]models.FireIncident, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+fireColumns+`
		FROM fire_incidents
		ORDER BY incident_date DESC NULLS LAST, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list fire incidents: %w", err)
	}
	defer rows.Close()

	incidents := []models.FireIncident{}
	for rows.Next() {
		f, err := scanFireIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fire incident row: %w", err)
		}
		incidents = append(incidents, *f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fire incident rows: %w", err)
	}

	return incidents, nil
}

func (r *fireIncidentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.FireIncident, error) {
	f, err := r.queryOne(ctx, `SELECT `+fireColumns+` FROM fire_incidents WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query fire incident %s: %w", id, err)
	}
	return f, nil
}

func (r *fireIncidentRepository) Create(ctx context.Context, f *models.FireIncident) error {
	query := `
		INSERT INTO fire_incidents (
			id, barangay, purok, incident_date, year, damage_cost_minor, damage_currency
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.Pool.QueryRow(ctx, query,
		f.ID,
		f.Barangay,
		f.Purok,
		models.TimePtr(f.Date.Ptr()),
		f.Year,
		f.DamageCost.Minor,
		currencyOf(f.DamageCost),
	).Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert fire incident: %w", err)
	}
	return nil
}

func (r *fireIncidentRepository) Update(ctx context.Context, f *models.FireIncident) (*models.FireIncident, error) {
	query := `
		UPDATE fire_incidents
		SET barangay = $2,
			purok = $3,
			incident_date = $4,
			year = $5,
			damage_cost_minor = $6,
			damage_currency = $7,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + fireColumns

	updated, err := r.queryOne(ctx, query,
		f.ID,
		f.Barangay,
		f.Purok,
		models.TimePtr(f.Date.Ptr()),
		f.Year,
		f.DamageCost.Minor,
		currencyOf(f.DamageCost),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update fire incident %s: %w", f.ID, err)
	}
	return updated, nil
}

func (r *fireIncidentRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM fire_incidents WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete fire incident %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func currencyOf(a models.Amount) string {
	if a.Currency == "" {
		return models.DefaultCurrency
	}
	return a.Currency
}
