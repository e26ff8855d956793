// Package portal is the administrator side of the permit system: it keeps
// the loaded permit and incident collections, applies review and payment
// decisions through the Record Store, and shapes the results for display.
//
// Every collaborator is an interface so the package runs against the REST
// client in production and against fakes in tests.
package portal

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/norar1/fireportal/internal/client"
	"github.com/norar1/fireportal/internal/models"
)

// PermitStore is the permit half of the Record Store API.
type PermitStore interface {
	ListPermits(ctx context.Context, t models.PermitType) ([]models.Permit, error)
	SearchPermits(ctx context.Context, t models.PermitType, query string) ([]models.Permit, error)
	CreatePermit(ctx context.Context, p *models.Permit) (*models.Permit, error)
	UpdatePermit(ctx context.Context, p *models.Permit) error
	UpdateStatus(ctx context.Context, t models.PermitType, id uuid.UUID, status models.Status) (*client.StatusResult, error)
	UpdatePayment(ctx context.Context, t models.PermitType, id uuid.UUID, status models.PaymentStatus, paidOn *models.Date) error
	DeletePermit(ctx context.Context, t models.PermitType, id uuid.UUID) error
}

// StatsStore serves the per-type review counts.
type StatsStore interface {
	Stats(ctx context.Context) (map[models.PermitType]models.StatusCounts, error)
}

// FireStore is the fire incident half of the Record Store API.
type FireStore interface {
	ListFires(ctx context.Context) ([]models.FireIncident, error)
	CreateFire(ctx context.Context, f *models.FireIncident) (*models.FireIncident, error)
	UpdateFire(ctx context.Context, f *models.FireIncident) error
	DeleteFire(ctx context.Context, id uuid.UUID) error
}

var (
	_ PermitStore = (*client.Client)(nil)
	_ StatsStore  = (*client.Client)(nil)
	_ FireStore   = (*client.Client)(nil)
)

// Portal errors
var (
	// ErrBusy is returned while another change to the same record is in flight.
	ErrBusy = errors.New("a change to this record is already in progress")
	// ErrDeclined is returned when the administrator does not confirm an action.
	ErrDeclined = errors.New("action not confirmed")
	// ErrUnknownRecord is returned by Get for ids missing from the loaded collection.
	ErrUnknownRecord = errors.New("record is not in the loaded collection")
)

// Confirmer asks the administrator to approve a consequential action.
type Confirmer interface {
	Confirm(message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(message string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(message string) bool {
	return f(message)
}

// AlwaysConfirm accepts every prompt.
var AlwaysConfirm Confirmer = ConfirmFunc(func(string) bool { return true })

// Level is the tone of a Notice.
type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "success"
}

// Notice is the dismissible banner shown after an action.
type Notice struct {
	Action  string
	Message string
	Level   Level
}

func (n Notice) String() string {
	return fmt.Sprintf("[%s] %s", n.Level, n.Message)
}

func success(action, message string) Notice {
	return Notice{Action: action, Message: message, Level: LevelSuccess}
}

func failure(action, message string) Notice {
	return Notice{Action: action, Message: message, Level: LevelError}
}

// reason extracts the text worth showing for err. Server-provided messages
// win over transport details.
func reason(err error) string {
	var ce *client.Error
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return err.Error()
}
