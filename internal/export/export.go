// Package export writes permit collections as xlsx reports.
package export

import (
	"fmt"
	"io"

	"github.com/norar1/fireportal/internal/listing"
	"github.com/norar1/fireportal/internal/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MissingDate is written when a permit has no payment date.
const MissingDate = "N/A"

// Column is one report column.
type Column struct {
	Header string
	Width  float64
	Value  func(p *models.Permit) string
}

// FileName returns the download name of a report, e.g. Building_Permits_Report.xlsx.
func FileName(t models.PermitType) string {
	return t.Label() + "_Permits_Report.xlsx"
}

// SheetName returns the worksheet title of a report.
func SheetName(t models.PermitType) string {
	return t.Label() + " Permits"
}

// Select picks the records to export: the full collection when c sets no
// filter, otherwise the filtered subset. The result is always newest first.
func Select(all []models.Permit, c listing.Criteria) []models.Permit {
	if !c.Active() {
		return listing.Sort(all)
	}
	return listing.Filter(all, c)
}

// Write renders records as a single-sheet workbook into w. Records are
// re-sorted newest first regardless of their incoming order.
func Write(w io.Writer, t models.PermitType, records []models.Permit) error {
	f, err := Workbook(t, records)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write %s report: %w", t, err)
	}
	return nil
}

// Workbook builds the report workbook. The caller closes it.
func Workbook(t models.PermitType, records []models.Permit) (*excelize.File, error) {
	columns, err := Columns(t)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := SheetName(t)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to name worksheet: %w", err)
	}

	if err := writeHeader(f, sheet, columns); err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, p := range listing.Sort(records) {
		row := make([]interface{}, len(columns))
		for j, col := range columns {
			row[j] = col.Value(&p)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	return f, nil
}

func writeHeader(f *excelize.File, sheet string, columns []Column) error {
	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col.Header

		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, col.Width); err != nil {
			return fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return nil
}

// ReadRows parses a report back into its header and data rows.
func ReadRows(r io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil, fmt.Errorf("no worksheet found")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("worksheet is empty")
	}
	return rows[0], rows[1:], nil
}

// Columns returns the report columns of a permit type in output order.
func Columns(t models.PermitType) ([]Column, error) {
	var cols []Column
	switch t {
	case models.PermitBuilding:
		cols = []Column{
			{"Date Received", 15, dateReceived},
			{"Owner/Establishment", 25, building(func(b *models.BuildingDetails) string { return b.OwnerEstablishment })},
			{"Location", 25, building(func(b *models.BuildingDetails) string { return b.Location })},
			{"FCODE Fee", 12, building(func(b *models.BuildingDetails) string { return money(b.FCodeFee) })},
			{"OR No.", 15, building(func(b *models.BuildingDetails) string { return b.ORNo })},
			{"Evaluated By", 20, building(func(b *models.BuildingDetails) string { return b.EvaluatedBy })},
			{"Date Released FSEC", 18, building(func(b *models.BuildingDetails) string { return optionalDate(b.DateReleasedFSEC) })},
			{"Control No.", 15, building(func(b *models.BuildingDetails) string { return b.ControlNo })},
		}
	case models.PermitOccupancy:
		cols = []Column{
			{"Date Received", 15, dateReceived},
			{"Owner/Establishment", 25, occupancy(func(o *models.OccupancyDetails) string { return o.OwnerEstablishment })},
			{"Location", 25, occupancy(func(o *models.OccupancyDetails) string { return o.Location })},
			{"FCODE Fee", 12, occupancy(func(o *models.OccupancyDetails) string { return money(o.FCodeFee) })},
			{"OR No.", 15, occupancy(func(o *models.OccupancyDetails) string { return o.ORNo })},
			{"Evaluated By", 20, occupancy(func(o *models.OccupancyDetails) string { return o.EvaluatedBy })},
			{"Date Released FSIC", 18, occupancy(func(o *models.OccupancyDetails) string { return optionalDate(o.DateReleasedFSIC) })},
			{"Control No.", 15, occupancy(func(o *models.OccupancyDetails) string { return o.ControlNo })},
		}
	case models.PermitFSIC:
		cols = []Column{
			{"Date Received", 15, dateReceived},
			{"Business Name", 25, fsic(func(f *models.FSICDetails) string { return f.BusinessName })},
			{"Owner", 22, fsic(func(f *models.FSICDetails) string { return f.Owner })},
			{"Contact Number", 15, fsic(func(f *models.FSICDetails) string { return f.ContactNumber })},
			{"Barangay", 20, fsic(func(f *models.FSICDetails) string { return f.Brgy })},
			{"Complete Address", 30, fsic(func(f *models.FSICDetails) string { return f.CompleteAddress })},
			{"Floor Area", 12, fsic(func(f *models.FSICDetails) string { return f.FloorArea })},
			{"No. of Storeys", 12, fsic(func(f *models.FSICDetails) string { return f.NoOfStoreys })},
			{"Rental", 8, fsic(func(f *models.FSICDetails) string { return f.Rental })},
			{"Nature of Business", 22, fsic(func(f *models.FSICDetails) string { return f.NatureOfBusiness })},
			{"BIR TIN", 16, fsic(func(f *models.FSICDetails) string { return f.BIRTIN })},
			{"Expiry", 14, fsic(func(f *models.FSICDetails) string { return optionalDate(f.Expiry) })},
			{"Amount Paid", 12, fsic(func(f *models.FSICDetails) string { return money(f.AmountPaid) })},
			{"OR Number", 15, fsic(func(f *models.FSICDetails) string { return f.ORNumber })},
			{"Type of Occupancy", 20, fsic(func(f *models.FSICDetails) string { return f.TypeOfOccupancy })},
			{"Date Released", 15, fsic(func(f *models.FSICDetails) string { return optionalDate(f.DateReleased) })},
		}
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownPermitType, t)
	}

	return append(cols,
		Column{"Status", 12, status},
		Column{"Payment Status", 20, func(p *models.Permit) string { return p.PaymentStatus.Label() }},
		Column{"Payment Date", 18, paymentDate},
	), nil
}

func dateReceived(p *models.Permit) string {
	return p.DateReceived.String()
}

func status(p *models.Permit) string {
	if p.Status == "" {
		return string(models.StatusPending)
	}
	return string(p.Status)
}

func paymentDate(p *models.Permit) string {
	if p.LastPaymentDate == nil || p.LastPaymentDate.IsZero() {
		return MissingDate
	}
	return p.LastPaymentDate.String()
}

func optionalDate(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func money(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}

func building(get func(*models.BuildingDetails) string) func(*models.Permit) string {
	return func(p *models.Permit) string {
		if p.Building == nil {
			return ""
		}
		return get(p.Building)
	}
}

func occupancy(get func(*models.OccupancyDetails) string) func(*models.Permit) string {
	return func(p *models.Permit) string {
		if p.Occupancy == nil {
			return ""
		}
		return get(p.Occupancy)
	}
}

func fsic(get func(*models.FSICDetails) string) func(*models.Permit) string {
	return func(p *models.Permit) string {
		if p.FSIC == nil {
			return ""
		}
		return get(p.FSIC)
	}
}
