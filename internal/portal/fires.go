package portal

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/norar1/fireportal/internal/analytics"
	"github.com/norar1/fireportal/internal/logger"
	"github.com/norar1/fireportal/internal/models"
)

// DeleteFireConfirmation is the prompt shown before an incident is deleted.
const DeleteFireConfirmation = "Are you sure you want to delete this fire incident?"

// FireBoard holds the loaded fire incidents and reports them.
type FireBoard struct {
	store    FireStore
	confirm  Confirmer
	analyzer *analytics.Analyzer
	log      *logger.Logger

	mu        sync.RWMutex
	incidents []models.FireIncident
	lastErr   error
}

// NewFireBoard creates an empty incident board.
func NewFireBoard(store FireStore, confirm Confirmer, analyzer *analytics.Analyzer, log *logger.Logger) *FireBoard {
	if confirm == nil {
		confirm = AlwaysConfirm
	}
	if log == nil {
		log = logger.Nop()
	}
	return &FireBoard{
		store:     store,
		confirm:   confirm,
		analyzer:  analyzer,
		log:       log,
		incidents: []models.FireIncident{},
	}
}

// Load replaces the incidents with the server list. On failure the board is
// empty and the returned notice says so.
func (b *FireBoard) Load(ctx context.Context) ([]models.FireIncident, *Notice) {
	fires, err := b.store.ListFires(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastErr = err
	if err != nil {
		b.log.Warn("Fire incidents unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		b.incidents = []models.FireIncident{}
		n := failure("load fire incidents", "Failed to fetch fire cases")
		return []models.FireIncident{}, &n
	}
	if fires == nil {
		fires = []models.FireIncident{}
	}
	b.incidents = fires
	return slices.Clone(fires), nil
}

// Incidents returns a copy of the loaded incidents.
func (b *FireBoard) Incidents() []models.FireIncident {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.incidents)
}

// Get returns a copy of the loaded incident with id, or ErrUnknownRecord.
func (b *FireBoard) Get(id uuid.UUID) (models.FireIncident, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, f := range b.incidents {
		if f.ID == id {
			return f, nil
		}
	}
	return models.FireIncident{}, fmt.Errorf("%w: fire incident %s", ErrUnknownRecord, id)
}

// LastError is the failure of the most recent Load, or nil.
func (b *FireBoard) LastError() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastErr
}

// Save reports f when it has no id, otherwise updates it, then reloads.
func (b *FireBoard) Save(ctx context.Context, f *models.FireIncident) (Notice, error) {
	var (
		notice Notice
		err    error
	)
	if f.ID == uuid.Nil {
		_, err = b.store.CreateFire(ctx, f)
		notice = success("report fire incident", "Fire incident reported successfully!")
		if err != nil {
			notice = failure("report fire incident", "Failed to report fire incident")
		}
	} else {
		err = b.store.UpdateFire(ctx, f)
		notice = success("update fire incident", "Fire incident updated successfully!")
		if err != nil {
			notice = failure("update fire incident", "Failed to update fire incident")
		}
	}

	if err != nil {
		b.log.Warn("Fire incident save failed", map[string]interface{}{
			"fire_id": f.ID.String(),
			"error":   err.Error(),
		})
	}
	b.Load(ctx)
	return notice, err
}

// Delete asks for confirmation, then removes the incident and reloads.
func (b *FireBoard) Delete(ctx context.Context, id uuid.UUID) (Notice, error) {
	if !b.confirm.Confirm(DeleteFireConfirmation) {
		return Notice{}, ErrDeclined
	}

	err := b.store.DeleteFire(ctx, id)
	b.Load(ctx)
	if err != nil {
		b.log.Warn("Fire incident delete failed", map[string]interface{}{
			"fire_id": id.String(),
			"error":   err.Error(),
		})
		return failure("delete fire incident", "Failed to delete fire incident"), err
	}
	return success("delete fire incident", "Fire incident deleted successfully!"), nil
}

// Report aggregates the loaded incidents.
func (b *FireBoard) Report() analytics.Report {
	return b.analyzer.Analyze(b.Incidents())
}
