package portal

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/norar1/fireportal/internal/listing"
	"github.com/norar1/fireportal/internal/logger"
	"github.com/norar1/fireportal/internal/models"
)

// Manager holds the loaded permit collection of one permit type.
// Load and Search never fail: on error they leave an empty collection and
// record the error for LastError.
type Manager struct {
	store      PermitStore
	log        *logger.Logger
	permitType models.PermitType

	mu      sync.RWMutex
	records []models.Permit
	lastErr error
}

// NewManager creates an empty collection for permit type t.
func NewManager(store PermitStore, t models.PermitType, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		store:      store,
		log:        log.WithPermitType(string(t)),
		permitType: t,
		records:    []models.Permit{},
	}
}

// Type returns the permit type the collection holds.
func (m *Manager) Type() models.PermitType {
	return m.permitType
}

// Load replaces the collection with the full server list, newest first.
func (m *Manager) Load(ctx context.Context) []models.Permit {
	permits, err := m.store.ListPermits(ctx, m.permitType)
	return m.replace("load", permits, err)
}

// Search replaces the collection with the server-side matches for query.
// A blank query is a Load.
func (m *Manager) Search(ctx context.Context, query string) []models.Permit {
	query = strings.TrimSpace(query)
	if query == "" {
		return m.Load(ctx)
	}
	permits, err := m.store.SearchPermits(ctx, m.permitType, query)
	return m.replace("search", permits, err)
}

func (m *Manager) replace(op string, permits []models.Permit, err error) []models.Permit {
	if err != nil {
		m.log.Warn("Permit collection unavailable", map[string]interface{}{
			"op":    op,
			"error": err.Error(),
		})
		permits = nil
	}
	sorted := listing.Sort(permits)

	m.mu.Lock()
	m.records = sorted
	m.lastErr = err
	m.mu.Unlock()

	return slices.Clone(sorted)
}

// Records returns a copy of the collection, newest first.
func (m *Manager) Records() []models.Permit {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.records)
}

// Filter returns the records matching c, newest first.
func (m *Manager) Filter(c listing.Criteria) []models.Permit {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return listing.Filter(m.records, c)
}

// Standing splits the unapproved records into paid-this-year and overdue.
func (m *Manager) Standing(year int) listing.Standing {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return listing.ClassifyOverdue(m.records, year)
}

// Find returns a copy of the record with id.
func (m *Manager) Find(id uuid.UUID) (models.Permit, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.records {
		if p.ID == id {
			return p, true
		}
	}
	return models.Permit{}, false
}

// Get is Find reporting a missing id as ErrUnknownRecord.
func (m *Manager) Get(id uuid.UUID) (models.Permit, error) {
	p, ok := m.Find(id)
	if !ok {
		return models.Permit{}, fmt.Errorf("%w: %s permit %s", ErrUnknownRecord, m.permitType, id)
	}
	return p, nil
}

// LastError is the failure of the most recent Load or Search, or nil.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}
