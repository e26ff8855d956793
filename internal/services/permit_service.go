package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/norar1/fireportal/internal/export"
	"github.com/norar1/fireportal/internal/listing"
	"github.com/norar1/fireportal/internal/logger"
	"github.com/norar1/fireportal/internal/models"
	"github.com/norar1/fireportal/internal/notify"
	"github.com/norar1/fireportal/internal/repository"
)

// Service-level errors
var (
	ErrPermitNotFound       = errors.New("permit not found")
	ErrInvalidPermit        = errors.New("invalid permit")
	ErrInvalidPermitType    = errors.New("invalid permit type")
	ErrInvalidStatus        = errors.New("status must be one of pending, approved, rejected")
	ErrInvalidPaymentStatus = errors.New("payment_status must be one of not_paid, paid")
)

// StatusChange is the outcome of a review decision.
type StatusChange struct {
	// NotifyErr is set when the applicant email could not be sent.
	// The status change itself is kept.
	NotifyErr error
	Permit    *models.Permit
	Message   string
	Notified  bool
}

// PermitService defines the interface for permit business logic operations.
type PermitService interface {
	// List returns every permit of the type, most recently received first.
	List(ctx context.Context, permitType models.PermitType) ([]models.Permit, error)

	// Search matches query against the descriptive fields. A blank query
	// behaves like List.
	Search(ctx context.Context, permitType models.PermitType, query string) ([]models.Permit, error)

	// Get returns ErrPermitNotFound when no permit matches.
	Get(ctx context.Context, permitType models.PermitType, id uuid.UUID) (*models.Permit, error)

	// Create stores a new application as pending and unpaid.
	Create(ctx context.Context, p *models.Permit) error

	// Update replaces the descriptive fields of an existing permit.
	// Review and payment state are kept.
	Update(ctx context.Context, p *models.Permit) (*models.Permit, error)

	// UpdateStatus records a review decision and emails the applicant when
	// the new status is approved or rejected.
	UpdateStatus(ctx context.Context, permitType models.PermitType, id uuid.UUID, status models.Status) (*StatusChange, error)

	// UpdatePayment sets the payment state. Paid permits are stamped with
	// paidOn, or today when paidOn is nil; unpaid permits lose their date.
	UpdatePayment(ctx context.Context, permitType models.PermitType, id uuid.UUID, status models.PaymentStatus, paidOn *models.Date) (*models.Permit, error)

	// Delete returns ErrPermitNotFound when no permit matches.
	Delete(ctx context.Context, permitType models.PermitType, id uuid.UUID) error

	// Export writes the xlsx report of the permits selected by c to w and
	// returns the number of rows written.
	Export(ctx context.Context, permitType models.PermitType, c listing.Criteria, w io.Writer) (int, error)

	// Stats tallies every permit type by review state.
	Stats(ctx context.Context) (map[models.PermitType]models.StatusCounts, error)
}

type permitService struct {
	repo   repository.PermitRepository
	sender notify.Sender
	log    *logger.Logger
	now    func() time.Time
}

// NewPermitService creates a new instance of PermitService.
func NewPermitService(repo repository.PermitRepository, sender notify.Sender, log *logger.Logger) PermitService {
	return NewPermitServiceWithClock(repo, sender, log, time.Now)
}

// NewPermitServiceWithClock creates a PermitService that reads the date from now.
func NewPermitServiceWithClock(repo repository.PermitRepository, sender notify.Sender, log *logger.Logger, now func() time.Time) PermitService {
	return &permitService{
		repo:   repo,
		sender: sender,
		log:    log,
		now:    now,
	}
}

func checkType(t models.PermitType) error {
	if _, err := models.ParsePermitType(string(t)); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidPermitType, t)
	}
	return nil
}

func (s *permitService) today() models.Date {
	return models.DateOf(s.now())
}

func (s *permitService) List(ctx context.Context, permitType models.PermitType) ([]models.Permit, error) {
	if err := checkType(permitType); err != nil {
		return nil, err
	}

	permits, err := s.repo.List(ctx, permitType)
	if err != nil {
		s.log.Error("Failed to list permits", err, map[string]interface{}{
			"permit_type": string(permitType),
		})
		return nil, fmt.Errorf("failed to list permits: %w", err)
	}

	s.log.Debug("Listed permits", map[string]interface{}{
		"permit_type": string(permitType),
		"count":       len(permits),
	})
	return permits, nil
}

func (s *permitService) Search(ctx context.Context, permitType models.PermitType, query string) ([]models.Permit, error) {
	if strings.TrimSpace(query) == "" {
		return s.List(ctx, permitType)
	}
	if err := checkType(permitType); err != nil {
		return nil, err
	}

	permits, err := s.repo.Search(ctx, permitType, query)
	if err != nil {
		s.log.Error("Failed to search permits", err, map[string]interface{}{
			"permit_type": string(permitType),
			"query":       query,
		})
		return nil, fmt.Errorf("failed to search permits: %w", err)
	}

	s.log.Info("Permit search completed", map[string]interface{}{
		"permit_type": string(permitType),
		"query":       query,
		"count":       len(permits),
	})
	return permits, nil
}

func (s *permitService) Get(ctx context.Context, permitType models.PermitType, id uuid.UUID) (*models.Permit, error) {
	if err := checkType(permitType); err != nil {
		return nil, err
	}

	p, err := s.repo.FindByID(ctx, permitType, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query permit: %w", err)
	}
	if p == nil {
		return nil, ErrPermitNotFound
	}
	return p, nil
}

func (s *permitService) Create(ctx context.Context, p *models.Permit) error {
	if err := checkType(p.Type); err != nil {
		return err
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.DateReceived.IsZero() {
		p.DateReceived = s.today()
	}
	// Submissions always start a fresh review
	p.Status = models.StatusPending
	p.PaymentStatus = models.PaymentNotPaid
	p.LastPaymentDate = nil

	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPermit, err)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("Failed to create permit", err, map[string]interface{}{
			"permit_type": string(p.Type),
		})
		return fmt.Errorf("failed to create permit: %w", err)
	}

	s.log.Info("Permit application received", map[string]interface{}{
		"permit_type": string(p.Type),
		"permit_id":   p.ID.String(),
		"name":        p.Name(),
	})
	return nil
}

func (s *permitService) Update(ctx context.Context, p *models.Permit) (*models.Permit, error) {
	existing, err := s.Get(ctx, p.Type, p.ID)
	if err != nil {
		return nil, err
	}

	// Review and payment state only change through their own operations
	p.Status = existing.Status
	p.PaymentStatus = existing.PaymentStatus
	p.LastPaymentDate = existing.LastPaymentDate
	if p.DateReceived.IsZero() {
		p.DateReceived = existing.DateReceived
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPermit, err)
	}

	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		s.log.Error("Failed to update permit", err, map[string]interface{}{
			"permit_type": string(p.Type),
			"permit_id":   p.ID.String(),
		})
		return nil, fmt.Errorf("failed to update permit: %w", err)
	}
	if updated == nil {
		return nil, ErrPermitNotFound
	}

	s.log.Info("Permit updated", map[string]interface{}{
		"permit_type": string(p.Type),
		"permit_id":   p.ID.String(),
	})
	return updated, nil
}

func (s *permitService) UpdateStatus(ctx context.Context, permitType models.PermitType, id uuid.UUID, status models.Status) (*StatusChange, error) {
	if err := checkType(permitType); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidStatus, status)
	}

	p, err := s.repo.UpdateStatus(ctx, permitType, id, status)
	if err != nil {
		s.log.Error("Failed to update permit status", err, map[string]interface{}{
			"permit_type": string(permitType),
			"permit_id":   id.String(),
			"status":      string(status),
		})
		return nil, fmt.Errorf("failed to update permit status: %w", err)
	}
	if p == nil {
		return nil, ErrPermitNotFound
	}

	change := &StatusChange{
		Permit:  p,
		Message: fmt.Sprintf("Permit status updated to %s", status),
	}

	s.log.Info("Permit status updated", map[string]interface{}{
		"permit_type": string(permitType),
		"permit_id":   id.String(),
		"status":      string(status),
	})

	if !status.Notifies() || p.Email == "" {
		return change, nil
	}

	notice := notify.StatusNotice{
		DecidedOn:  s.today(),
		Recipient:  p.Email,
		PermitName: p.Name(),
		PermitType: permitType,
		Status:     status,
	}
	if err := s.sender.SendStatusChange(ctx, notice); err != nil {
		s.log.Error("Failed to send status notification", err, map[string]interface{}{
			"permit_type": string(permitType),
			"permit_id":   id.String(),
			"recipient":   p.Email,
		})
		change.NotifyErr = err
		change.Message += ", but the email notification could not be sent"
		return change, nil
	}

	change.Notified = true
	change.Message += " and the applicant was notified by email"
	return change, nil
}

func (s *permitService) UpdatePayment(ctx context.Context, permitType models.PermitType, id uuid.UUID, status models.PaymentStatus, paidOn *models.Date) (*models.Permit, error) {
	if err := checkType(permitType); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidPaymentStatus, status)
	}

	day := s.today()
	if paidOn != nil && !paidOn.IsZero() {
		day = *paidOn
	}
	var change models.Permit
	change.MarkPaid(status, day)
	stamp := change.LastPaymentDate

	p, err := s.repo.UpdatePayment(ctx, permitType, id, status, stamp)
	if err != nil {
		s.log.Error("Failed to update payment status", err, map[string]interface{}{
			"permit_type":    string(permitType),
			"permit_id":      id.String(),
			"payment_status": string(status),
		})
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	if p == nil {
		return nil, ErrPermitNotFound
	}

	fields := map[string]interface{}{
		"permit_type":    string(permitType),
		"permit_id":      id.String(),
		"payment_status": string(status),
	}
	if stamp != nil {
		fields["last_payment_date"] = stamp.String()
	}
	s.log.Info("Payment status updated", fields)
	return p, nil
}

func (s *permitService) Delete(ctx context.Context, permitType models.PermitType, id uuid.UUID) error {
	if err := checkType(permitType); err != nil {
		return err
	}

	removed, err := s.repo.Delete(ctx, permitType, id)
	if err != nil {
		s.log.Error("Failed to delete permit", err, map[string]interface{}{
			"permit_type": string(permitType),
			"permit_id":   id.String(),
		})
		return fmt.Errorf("failed to delete permit: %w", err)
	}
	if !removed {
		return ErrPermitNotFound
	}

	s.log.Info("Permit deleted", map[string]interface{}{
		"permit_type": string(permitType),
		"permit_id":   id.String(),
	})
	return nil
}

func (s *permitService) Export(ctx context.Context, permitType models.PermitType, c listing.Criteria, w io.Writer) (int, error) {
	all, err := s.List(ctx, permitType)
	if err != nil {
		return 0, err
	}

	selected := export.Select(all, c)
	if err := export.Write(w, permitType, selected); err != nil {
		return 0, fmt.Errorf("failed to export permits: %w", err)
	}

	s.log.Info("Permit report exported", map[string]interface{}{
		"permit_type": string(permitType),
		"month":       int(c.Month),
		"year":        c.Year,
		"rows":        len(selected),
	})
	return len(selected), nil
}

func (s *permitService) Stats(ctx context.Context) (map[models.PermitType]models.StatusCounts, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.log.Error("Failed to count permits", err, nil)
		return nil, fmt.Errorf("failed to count permits: %w", err)
	}
	return counts, nil
}
