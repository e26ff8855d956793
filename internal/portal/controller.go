package portal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/norar1/fireportal/internal/logger"
	"github.com/norar1/fireportal/internal/models"
)

// DeleteConfirmation is the prompt shown before a permit is deleted.
const DeleteConfirmation = "Are you sure you want to delete this record?"

// ControllerConfig wires a Controller.
type ControllerConfig struct {
	Store   PermitStore
	Manager *Manager
	Confirm Confirmer

	// RefreshStats runs once after every successful status change, edit or delete.
	RefreshStats func(ctx context.Context)

	Log *logger.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Controller applies administrator decisions to the permits of one type.
// Every attempt, failed or not, is followed by a reload of the collection;
// nothing is changed locally ahead of the server.
type Controller struct {
	store        PermitStore
	manager      *Manager
	confirm      Confirmer
	refreshStats func(ctx context.Context)
	log          *logger.Logger
	now          func() time.Time

	mu   sync.Mutex
	busy map[uuid.UUID]struct{}
}

// NewController creates a Controller for the manager's permit type.
func NewController(cfg ControllerConfig) *Controller {
	c := &Controller{
		store:        cfg.Store,
		manager:      cfg.Manager,
		confirm:      cfg.Confirm,
		refreshStats: cfg.RefreshStats,
		log:          cfg.Log,
		now:          cfg.Now,
		busy:         make(map[uuid.UUID]struct{}),
	}
	if c.confirm == nil {
		c.confirm = AlwaysConfirm
	}
	if c.refreshStats == nil {
		c.refreshStats = func(context.Context) {}
	}
	if c.log == nil {
		c.log = logger.Nop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// StatusConfirmation is the prompt shown before a review decision.
func StatusConfirmation(name string, status models.Status) string {
	msg := fmt.Sprintf("Are you sure you want to %s the permit for %s?", status.Verb(), name)
	if status.Notifies() {
		msg += " An email notification will be sent to the user."
	}
	return msg
}

// Busy reports whether a change to id is in flight.
func (c *Controller) Busy(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.busy[id]
	return ok
}

func (c *Controller) acquire(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.busy[id]; ok {
		return false
	}
	c.busy[id] = struct{}{}
	return true
}

func (c *Controller) release(id uuid.UUID) {
	c.mu.Lock()
	delete(c.busy, id)
	c.mu.Unlock()
}

// SetStatus asks for confirmation, then records a review decision.
// A declined prompt sends nothing and returns ErrDeclined.
func (c *Controller) SetStatus(ctx context.Context, id uuid.UUID, status models.Status) (Notice, error) {
	const action = "update status"

	if !status.Valid() {
		err := fmt.Errorf("unknown status %q", status)
		return failure(action, "Failed to update status: "+err.Error()), err
	}

	name := "this record"
	if p, ok := c.manager.Find(id); ok && p.Name() != "" {
		name = p.Name()
	}
	if !c.confirm.Confirm(StatusConfirmation(name, status)) {
		return Notice{}, ErrDeclined
	}

	return c.apply(ctx, id, action, func() (string, error) {
		result, err := c.store.UpdateStatus(ctx, c.manager.Type(), id, status)
		if err != nil {
			return "", err
		}
		if result.Message != "" {
			return result.Message, nil
		}
		return "Permit status updated to " + string(status), nil
	}, "Failed to update status: ", true)
}

// SetPaymentStatus records a payment decision without confirmation.
// Paid permits are stamped with today's date; unpaid permits lose their date.
// Review counts do not change, so stats are not refreshed.
func (c *Controller) SetPaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) (Notice, error) {
	const action = "update payment status"

	if !status.Valid() {
		err := fmt.Errorf("unknown payment status %q", status)
		return failure(action, "Failed to update payment status: "+err.Error()), err
	}

	var paidOn *models.Date
	if status == models.PaymentPaid {
		paidOn = models.DateOf(c.now()).Ptr()
	}

	return c.apply(ctx, id, action, func() (string, error) {
		if err := c.store.UpdatePayment(ctx, c.manager.Type(), id, status, paidOn); err != nil {
			return "", err
		}
		return "Payment status set to " + status.Label(), nil
	}, "Failed to update payment status: ", false)
}

// Create submits p as a new application of the manager's type. On success
// p.ID holds the id the server assigned.
func (c *Controller) Create(ctx context.Context, p *models.Permit) (Notice, error) {
	p.Type = c.manager.Type()
	return c.apply(ctx, uuid.Nil, "create permit", func() (string, error) {
		created, err := c.store.CreatePermit(ctx, p)
		if err != nil {
			return "", err
		}
		p.ID = created.ID
		return p.Type.Label() + " permit application submitted", nil
	}, "Failed to submit permit: ", true)
}

// Update saves edited descriptive fields of p.
func (c *Controller) Update(ctx context.Context, p *models.Permit) (Notice, error) {
	p.Type = c.manager.Type()
	return c.apply(ctx, p.ID, "update permit", func() (string, error) {
		if err := c.store.UpdatePermit(ctx, p); err != nil {
			return "", err
		}
		return "Permit updated successfully", nil
	}, "Failed to update permit: ", true)
}

// Delete asks for confirmation, then removes the permit.
func (c *Controller) Delete(ctx context.Context, id uuid.UUID) (Notice, error) {
	if !c.confirm.Confirm(DeleteConfirmation) {
		return Notice{}, ErrDeclined
	}
	return c.apply(ctx, id, "delete permit", func() (string, error) {
		if err := c.store.DeletePermit(ctx, c.manager.Type(), id); err != nil {
			return "", err
		}
		return "Permit deleted successfully", nil
	}, "Failed to delete permit: ", true)
}

// apply runs one guarded write, reloads the collection whatever the outcome,
// and refreshes stats after a success when stats is set.
func (c *Controller) apply(ctx context.Context, id uuid.UUID, action string, write func() (string, error), failPrefix string, stats bool) (Notice, error) {
	if !c.acquire(id) {
		return failure(action, ErrBusy.Error()), ErrBusy
	}
	defer c.release(id)

	message, err := write()
	c.manager.Load(ctx)

	if err != nil {
		c.log.Warn("Permit change failed", map[string]interface{}{
			"action":      action,
			"permit_id":   id.String(),
			"permit_type": string(c.manager.Type()),
			"error":       err.Error(),
		})
		return failure(action, failPrefix+reason(err)), err
	}

	c.log.Info("Permit changed", map[string]interface{}{
		"action":      action,
		"permit_id":   id.String(),
		"permit_type": string(c.manager.Type()),
	})
	if stats {
		c.refreshStats(ctx)
	}
	return success(action, message), nil
}
