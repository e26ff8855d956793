package portal

import (
	"io"

	"github.com/norar1/fireportal/internal/export"
	"github.com/norar1/fireportal/internal/listing"
	"github.com/norar1/fireportal/internal/models"
)

// Pager tracks the current page of a table. Pages are 1-based.
type Pager struct {
	size int
	page int
}

// NewPager creates a pager on page 1. A non-positive size uses the default.
func NewPager(size int) *Pager {
	if size <= 0 {
		size = listing.DefaultPageSize
	}
	return &Pager{size: size, page: 1}
}

// Size is the number of rows per page.
func (p *Pager) Size() int { return p.size }

// Page is the current page number.
func (p *Pager) Page() int { return p.page }

// SetSize changes the page size and returns to page 1.
func (p *Pager) SetSize(size int) {
	if size <= 0 {
		size = listing.DefaultPageSize
	}
	p.size = size
	p.page = 1
}

// Reset returns to page 1.
func (p *Pager) Reset() {
	p.page = 1
}

// Go moves to page, clamped to the pages total items fill.
func (p *Pager) Go(page, total int) {
	p.page = listing.ClampPage(page, total, p.size)
}

// CanPrev reports whether a previous page exists.
func (p *Pager) CanPrev() bool {
	return p.page > 1
}

// CanNext reports whether another page follows for total items.
func (p *Pager) CanNext(total int) bool {
	return p.page < listing.PageCount(total, p.size)
}

// Prev moves back one page when possible.
func (p *Pager) Prev() bool {
	if !p.CanPrev() {
		return false
	}
	p.page--
	return true
}

// Next moves forward one page when possible.
func (p *Pager) Next(total int) bool {
	if !p.CanNext(total) {
		return false
	}
	p.page++
	return true
}

// Window returns the items on the current page.
func Window[T any](p *Pager, items []T) []T {
	return listing.Paginate(items, p.size, listing.ClampPage(p.page, len(items), p.size))
}

// Row is one displayed permit with its highlight.
type Row struct {
	Permit models.Permit
	Class  listing.RowClass
}

// View is a paged, filtered table over a Manager.
type View struct {
	manager  *Manager
	pager    *Pager
	criteria listing.Criteria
}

// NewView creates a view with no filter on page 1.
func NewView(manager *Manager, pageSize int) *View {
	return &View{manager: manager, pager: NewPager(pageSize)}
}

// Pager exposes the view's pager for navigation.
func (v *View) Pager() *Pager {
	return v.pager
}

// Criteria returns the active filter.
func (v *View) Criteria() listing.Criteria {
	return v.criteria
}

// SetFilter changes the month/year filter and returns to page 1.
func (v *View) SetFilter(c listing.Criteria) {
	v.criteria = c
	v.pager.Reset()
}

// SetPageSize changes the page size and returns to page 1.
func (v *View) SetPageSize(size int) {
	v.pager.SetSize(size)
}

// Visible returns every record passing the filter, newest first.
func (v *View) Visible() []models.Permit {
	return v.manager.Filter(v.criteria)
}

// Rows returns the current page with row classes computed for year.
func (v *View) Rows(year int) []Row {
	page := Window(v.pager, v.Visible())
	rows := make([]Row, len(page))
	for i := range page {
		rows[i] = Row{Permit: page[i], Class: listing.ClassifyRow(&page[i], year)}
	}
	return rows
}

// Export writes the report for the view: the whole collection when no filter
// is set, otherwise the filtered records. It returns the number of rows.
func (v *View) Export(w io.Writer) (int, error) {
	records := export.Select(v.manager.Records(), v.criteria)
	if err := export.Write(w, v.manager.Type(), records); err != nil {
		return 0, err
	}
	return len(records), nil
}
