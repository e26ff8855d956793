package portal

import (
	"context"
	"fmt"
	"sync"

	"github.com/norar1/fireportal/internal/logger"
	"github.com/norar1/fireportal/internal/models"
	"golang.org/x/sync/errgroup"
)

// Viewport widths at which the sidebar opens and closes.
const (
	DesktopWidth = 1024
	MobileWidth  = 768
)

// Layout is the dashboard chrome state.
type Layout struct {
	SidebarOpen bool
	Mobile      bool
}

// Resize derives the layout for a viewport width. The sidebar opens at
// DesktopWidth and wider, closes below MobileWidth, and keeps its state
// in between.
func (l Layout) Resize(width int) Layout {
	switch {
	case width >= DesktopWidth:
		l.SidebarOpen = true
	case width < MobileWidth:
		l.SidebarOpen = false
	}
	l.Mobile = width < MobileWidth
	return l
}

// Card is one summary card of the dashboard.
type Card struct {
	Label  string
	Type   models.PermitType
	Counts models.StatusCounts
}

// Total is the number of permits on the card.
func (c Card) Total() int {
	return c.Counts.Total()
}

// Summary is everything the dashboard cards show.
type Summary struct {
	Cards     []Card
	FireCases int
}

// Dashboard loads the summary cards.
type Dashboard struct {
	stats StatsStore
	fires FireStore
	log   *logger.Logger

	mu      sync.RWMutex
	summary Summary
	lastErr error
}

// NewDashboard creates a dashboard with zeroed cards for every permit type.
func NewDashboard(stats StatsStore, fires FireStore, log *logger.Logger) *Dashboard {
	if log == nil {
		log = logger.Nop()
	}
	return &Dashboard{
		stats:   stats,
		fires:   fires,
		log:     log,
		summary: Summary{Cards: cards(nil)},
	}
}

func cards(counts map[models.PermitType]models.StatusCounts) []Card {
	out := make([]Card, 0, len(models.PermitTypes))
	for _, t := range models.PermitTypes {
		out = append(out, Card{Label: t.Label(), Type: t, Counts: counts[t]})
	}
	return out
}

// Refresh fetches the permit counts and the fire case count concurrently.
// On failure the previous summary is kept.
func (d *Dashboard) Refresh(ctx context.Context) error {
	var (
		counts map[models.PermitType]models.StatusCounts
		fires  []models.FireIncident
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = d.stats.Stats(gctx)
		if err != nil {
			return fmt.Errorf("permit counts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		fires, err = d.fires.ListFires(gctx)
		if err != nil {
			return fmt.Errorf("fire cases: %w", err)
		}
		return nil
	})

	err := g.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastErr = err
	if err != nil {
		d.log.Warn("Dashboard refresh failed", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	d.summary = Summary{Cards: cards(counts), FireCases: len(fires)}
	return nil
}

// RefreshStats adapts Refresh to the Controller callback, which has no
// error path of its own.
func (d *Dashboard) RefreshStats(ctx context.Context) {
	_ = d.Refresh(ctx)
}

// Summary returns the last loaded summary.
func (d *Dashboard) Summary() Summary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := d.summary
	s.Cards = append([]Card(nil), s.Cards...)
	return s
}

// LastError is the failure of the most recent Refresh, or nil.
func (d *Dashboard) LastError() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastErr
}
