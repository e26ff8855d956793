// Package listing holds the pure list operations shared by every permit view:
// month/year filtering, newest-first ordering, payment standing, row
// classification and pagination.
package listing

import (
	"slices"
	"time"

	"github.com/norar1/fireportal/internal/models"
)

// Criteria narrows a permit list by the month and year of date_received.
// Zero fields are unset.
type Criteria struct {
	Month time.Month
	Year  int
}

// Active reports whether any filter is set.
func (c Criteria) Active() bool {
	return c.Month != 0 || c.Year != 0
}

// Matches reports whether p satisfies every set field.
func (c Criteria) Matches(p *models.Permit) bool {
	if c.Month != 0 && p.DateReceived.Month() != c.Month {
		return false
	}
	if c.Year != 0 && p.DateReceived.Year() != c.Year {
		return false
	}
	return true
}

// Sort returns a copy of records ordered by date_received, most recent first.
// Records received the same day keep their relative order.
func Sort(records []models.Permit) []models.Permit {
	sorted := slices.Clone(records)
	if sorted == nil {
		sorted = []models.Permit{}
	}
	slices.SortStableFunc(sorted, func(a, b models.Permit) int {
		return b.DateReceived.Compare(a.DateReceived.Time)
	})
	return sorted
}

// Filter returns the sorted records matching c. records is not modified.
func Filter(records []models.Permit, c Criteria) []models.Permit {
	kept := make([]models.Permit, 0, len(records))
	for i := range records {
		if c.Matches(&records[i]) {
			kept = append(kept, records[i])
		}
	}
	return Sort(kept)
}

// PaidThisYear reports whether p was paid with a payment dated in year.
func PaidThisYear(p *models.Permit, year int) bool {
	return p.PaidInYear(year)
}

// Overdue reports whether p is unpaid, or was last paid before year.
// Approved permits are never overdue.
func Overdue(p *models.Permit, year int) bool {
	if p.Status == models.StatusApproved {
		return false
	}
	return !PaidThisYear(p, year)
}

// Standing splits the non-approved permits by payment.
type Standing struct {
	PaidThisYear []models.Permit
	Overdue      []models.Permit
}

// ClassifyOverdue partitions the non-approved records into paid-this-year
// and overdue, keeping the input order within each group.
func ClassifyOverdue(records []models.Permit, year int) Standing {
	s := Standing{PaidThisYear: []models.Permit{}, Overdue: []models.Permit{}}
	for i := range records {
		p := &records[i]
		if p.Status == models.StatusApproved {
			continue
		}
		if PaidThisYear(p, year) {
			s.PaidThisYear = append(s.PaidThisYear, *p)
		} else {
			s.Overdue = append(s.Overdue, *p)
		}
	}
	return s
}

// RowClass is the visual treatment of a row in a permit table.
type RowClass string

const (
	RowApproved  RowClass = "approved"
	RowPaid      RowClass = "paid"
	RowAttention RowClass = "attention"
)

// ClassifyRow picks the row class: approved wins over paid-this-year, which
// wins over the default needs-attention state.
func ClassifyRow(p *models.Permit, year int) RowClass {
	switch {
	case p.Status == models.StatusApproved:
		return RowApproved
	case PaidThisYear(p, year):
		return RowPaid
	}
	return RowAttention
}
