package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/norar1/fireportal/internal/database"
	"github.com/norar1/fireportal/internal/models"
)

// PermitRepository defines the interface for permit data access operations.
// Every method is scoped to one permit type; an id belonging to another
// type is treated as not found.
type PermitRepository interface {
	// List returns every permit of the type, most recently received first.
	List(ctx context.Context, permitType models.PermitType) ([]models.Permit, error)

	// Search returns permits whose descriptive fields contain query
	// (case-insensitive), most recently received first.
	Search(ctx context.Context, permitType models.PermitType, query string) ([]models.Permit, error)

	// FindByID returns nil, nil when no permit matches.
	FindByID(ctx context.Context, permitType models.PermitType, id uuid.UUID) (*models.Permit, error)

	// Create inserts p and fills in its timestamps.
	Create(ctx context.Context, p *models.Permit) error

	// Update replaces the descriptive fields, received date and contact of p.
	// Review and payment state are not touched. Returns nil, nil when no
	// permit matches.
	Update(ctx context.Context, p *models.Permit) (*models.Permit, error)

	// UpdateStatus sets the review state. Returns nil, nil when no permit matches.
	UpdateStatus(ctx context.Context, permitType models.PermitType, id uuid.UUID, status models.Status) (*models.Permit, error)

	// UpdatePayment sets the payment state and payment date together.
	// Returns nil, nil when no permit matches.
	UpdatePayment(ctx context.Context, permitType models.PermitType, id uuid.UUID, status models.PaymentStatus, paidOn *models.Date) (*models.Permit, error)

	// Delete removes a permit, reporting whether one was removed.
	Delete(ctx context.Context, permitType models.PermitType, id uuid.UUID) (bool, error)

	// CountByStatus tallies permits of every type by review state.
	CountByStatus(ctx context.Context) (map[models.PermitType]models.StatusCounts, error)
}

// permitRepository is the concrete implementation of PermitRepository.
type permitRepository struct {
	db *database.Database
}

// NewPermitRepository creates a new instance of PermitRepository.
func NewPermitRepository(db *database.Database) PermitRepository {
	return &permitRepository{
		db: db,
	}
}

const permitColumns = `
	id,
	permit_type,
	date_received,
	status,
	payment_status,
	last_payment_date,
	email,
	details,
	created_at,
	updated_at`

// scanPermit reads one row selected with permitColumns.
func scanPermit(row pgx.Row) (*models.Permit, error) {
	var (
		p           models.Permit
		received    time.Time
		paidOn      *time.Time
		details     []byte
		permitType  string
		status      string
		paymentStat string
	)

	err := row.Scan(
		&p.ID,
		&permitType,
		&received,
		&status,
		&paymentStat,
		&paidOn,
		&p.Email,
		&details,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Type = models.PermitType(permitType)
	p.Status = models.Status(status)
	p.PaymentStatus = models.PaymentStatus(paymentStat)
	p.DateReceived = models.DateOf(received)
	p.LastPaymentDate = models.DatePtrFromTime(paidOn)

	if err := p.SetDetailsJSON(details); err != nil {
		return nil, fmt.Errorf("failed to decode details of permit %s: %w", p.ID, err)
	}

	return &p, nil
}

// searchText is the lowercase haystack stored alongside each permit.
func searchText(p *models.Permit) string {
	return strings.ToLower(strings.Join(p.SearchFields(), " "))
}

func (r *permitRepository) queryPermits(ctx context.Context, query string, args ...interface{}) ([]models.Permit, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	permits := []models.Permit{}
	for rows.Next() {
		p, err := scanPermit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan permit row: %w", err)
		}
		permits = append(permits, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating permit rows: %w", err)
	}

	return permits, nil
}

// queryPermit runs a single-row query, mapping no rows to nil, nil.
func (r *permitRepository) queryPermit(ctx context.Context, query string, args ...interface{}) (*models.Permit, error) {
	p, err := scanPermit(r.db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *permitRepository) List(ctx context.Context, permitType models.PermitType) ([]models.Permit, error) {
	query := `SELECT ` + permitColumns + `
		FROM permits
		WHERE permit_type = $1
		ORDER BY date_received DESC, created_at DESC`

	permits, err := r.queryPermits(ctx, query, string(permitType))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s permits: %w", permitType, err)
	}
	return permits, nil
}

func (r *permitRepository) Search(ctx context.Context, permitType models.PermitType, query string) ([]models.Permit, error) {
	sql := `SELECT ` + permitColumns + `
		FROM permits
		WHERE permit_type = $1
		  AND strpos(search_text, $2) > 0
		ORDER BY date_received DESC, created_at DESC`

	permits, err := r.queryPermits(ctx, sql, string(permitType), strings.ToLower(strings.TrimSpace(query)))
	if err != nil {
		return nil, fmt.Errorf("failed to search %s permits for %q: %w", permitType, query, err)
	}
	return permits, nil
}

func (r *permitRepository) FindByID(ctx context.Context, permitType models.PermitType, id uuid.UUID) (*models.Permit, error) {
	query := `SELECT ` + permitColumns + `
		FROM permits
		WHERE permit_type = $1 AND id = $2`

	p, err := r.queryPermit(ctx, query, string(permitType), id)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s permit %s: %w", permitType, id, err)
	}
	return p, nil
}

func (r *permitRepository) Create(ctx context.Context, p *models.Permit) error {
	details, err := p.DetailsJSON()
	if err != nil {
		return fmt.Errorf("failed to encode permit details: %w", err)
	}

	query := `
		INSERT INTO permits (
			id, permit_type, date_received, status, payment_status,
			last_payment_date, email, details, search_text
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err = r.db.Pool.QueryRow(ctx, query,
		p.ID,
		string(p.Type),
		p.DateReceived.Time,
		string(p.Status),
		string(p.PaymentStatus),
		models.TimePtr(p.LastPaymentDate),
		p.Email,
		details,
		searchText(p),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert %s permit: %w", p.Type, err)
	}
	return nil
}

func (r *permitRepository) Update(ctx context.Context, p *models.Permit) (*models.Permit, error) {
	details, err := p.DetailsJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode permit details: %w", err)
	}

	query := `
		UPDATE permits
		SET date_received = $3,
			email = $4,
			details = $5,
			search_text = $6,
			updated_at = now()
		WHERE permit_type = $1 AND id = $2
		RETURNING ` + permitColumns

	updated, err := r.queryPermit(ctx, query,
		string(p.Type), p.ID, p.DateReceived.Time, p.Email, details, searchText(p))
	if err != nil {
		return nil, fmt.Errorf("failed to update %s permit %s: %w", p.Type, p.ID, err)
	}
	return updated, nil
}

func (r *permitRepository) UpdateStatus(ctx context.Context, permitType models.PermitType, id uuid.UUID, status models.Status) (*models.Permit, error) {
	query := `
		UPDATE permits
		SET status = $3, updated_at = now()
		WHERE permit_type = $1 AND id = $2
		RETURNING ` + permitColumns

	p, err := r.queryPermit(ctx, query, string(permitType), id, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to update status of %s permit %s: %w", permitType, id, err)
	}
	return p, nil
}

func (r *permitRepository) UpdatePayment(ctx context.Context, permitType models.PermitType, id uuid.UUID, status models.PaymentStatus, paidOn *models.Date) (*models.Permit, error) {
	query := `
		UPDATE permits
		SET payment_status = $3, last_payment_date = $4, updated_at = now()
		WHERE permit_type = $1 AND id = $2
		RETURNING ` + permitColumns

	p, err := r.queryPermit(ctx, query, string(permitType), id, string(status), models.TimePtr(paidOn))
	if err != nil {
		return nil, fmt.Errorf("failed to update payment of %s permit %s: %w", permitType, id, err)
	}
	return p, nil
}

func (r *permitRepository) Delete(ctx context.Context, permitType models.PermitType, id uuid.UUID) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM permits WHERE permit_type = $1 AND id = $2`, string(permitType), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s permit %s: %w", permitType, id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *permitRepository) CountByStatus(ctx context.Context) (map[models.PermitType]models.StatusCounts, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT permit_type, status, count(*)
		FROM permits
		GROUP BY permit_type, status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count permits: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.PermitType]models.StatusCounts, len(models.PermitTypes))
	for _, t := range models.PermitTypes {
		counts[t] = models.StatusCounts{}
	}

	for rows.Next() {
		var (
			permitType, status string
			n                  int
		)
		if err := rows.Scan(&permitType, &status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan permit count: %w", err)
		}
		c := counts[models.PermitType(permitType)]
		c.AddN(models.Status(status), n)
		counts[models.PermitType(permitType)] = c
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating permit counts: %w", err)
	}

	return counts, nil
}
