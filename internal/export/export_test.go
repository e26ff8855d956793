package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/norar1/fireportal/internal/listing"
	"github.com/norar1/fireportal/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildingPermit(owner string, received models.Date, paidOn *models.Date) models.Permit {
	p := models.Permit{
		ID:            uuid.New(),
		Type:          models.PermitBuilding,
		DateReceived:  received,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentNotPaid,
		Building: &models.BuildingDetails{
			OwnerEstablishment: owner,
			Location:           "Santa Cruz, Lubao",
			FCodeFee:           decimal.RequireFromString("1500.5"),
			ORNo:               "OR-" + owner,
			EvaluatedBy:        "FO1 Dela Cruz",
			ControlNo:          "CN-" + owner,
		},
	}
	if paidOn != nil {
		p.MarkPaid(models.PaymentPaid, *paidOn)
	}
	return p
}

func sampleBuildings() []models.Permit {
	paid := models.NewDate(2025, time.June, 1)
	released := models.NewDate(2025, time.June, 3)

	a := buildingPermit("Alpha Store", models.NewDate(2025, time.January, 10), nil)
	b := buildingPermit("Bravo Mart", models.NewDate(2025, time.June, 2), &paid)
	b.Status = models.StatusApproved
	b.Building.DateReleasedFSEC = &released
	c := buildingPermit("Charlie Bakery", models.NewDate(2024, time.June, 20), nil)
	c.Status = ""

	return []models.Permit{a, b, c}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Building_Permits_Report.xlsx", FileName(models.PermitBuilding))
	assert.Equal(t, "Occupancy_Permits_Report.xlsx", FileName(models.PermitOccupancy))
	assert.Equal(t, "FSIC_Permits_Report.xlsx", FileName(models.PermitFSIC))
}

func TestColumns_BuildingHeader(t *testing.T) {
	cols, err := Columns(models.PermitBuilding)
	require.NoError(t, err)

	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.Header
	}
	assert.Equal(t, []string{
		"Date Received", "Owner/Establishment", "Location", "FCODE Fee", "OR No.",
		"Evaluated By", "Date Released FSEC", "Control No.", "Status",
		"Payment Status", "Payment Date",
	}, headers)

	_, err = Columns("warehouse")
	assert.ErrorIs(t, err, models.ErrUnknownPermitType)
}

func TestWrite_RoundTrip(t *testing.T) {
	records := sampleBuildings()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, models.PermitBuilding, records))

	header, rows, err := ReadRows(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "Date Received", header[0])
	require.Len(t, rows, len(records))

	// Newest first, regardless of input order
	assert.Equal(t, []string{
		"2025-06-02", "Bravo Mart", "Santa Cruz, Lubao", "1500.50", "OR-Bravo Mart",
		"FO1 Dela Cruz", "2025-06-03", "CN-Bravo Mart", "approved", "Paid", "2025-06-01",
	}, rows[0])
	assert.Equal(t, "Alpha Store", rows[1][1])
	assert.Equal(t, "Not Paid", rows[1][9])
	assert.Equal(t, "N/A", rows[1][10])

	// Missing status defaults to pending
	assert.Equal(t, "Charlie Bakery", rows[2][1])
	assert.Equal(t, "pending", rows[2][8])
}

func TestWorkbook_BoldHeader(t *testing.T) {
	f, err := Workbook(models.PermitOccupancy, nil)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	sheet := SheetName(models.PermitOccupancy)
	styleID, err := f.GetCellStyle(sheet, "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)

	value, err := f.GetCellValue(sheet, "G1")
	require.NoError(t, err)
	assert.Equal(t, "Date Released FSIC", value)
}

func TestSelect(t *testing.T) {
	records := sampleBuildings()

	all := Select(records, listing.Criteria{})
	require.Len(t, all, 3)
	assert.Equal(t, "Bravo Mart", all[0].Name())

	june := Select(records, listing.Criteria{Month: time.June})
	require.Len(t, june, 2)
	assert.Equal(t, "Bravo Mart", june[0].Name())
	assert.Equal(t, "Charlie Bakery", june[1].Name())

	june2025 := Select(records, listing.Criteria{Month: time.June, Year: 2025})
	require.Len(t, june2025, 1)
}

func TestWrite_FilteredRoundTrip(t *testing.T) {
	records := sampleBuildings()
	selected := Select(records, listing.Criteria{Year: 2025})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, models.PermitBuilding, selected))

	_, rows, err := ReadRows(&buf)
	require.NoError(t, err)
	require.Len(t, rows, len(selected))
	for i, p := range selected {
		assert.Equal(t, p.DateReceived.String(), rows[i][0])
		assert.Equal(t, p.Name(), rows[i][1])
	}
}

func TestWrite_FSIC(t *testing.T) {
	expiry := models.NewDate(2026, time.January, 1)
	p := models.Permit{
		ID:            uuid.New(),
		Type:          models.PermitFSIC,
		DateReceived:  models.NewDate(2025, time.February, 14),
		Status:        models.StatusRejected,
		PaymentStatus: models.PaymentNotPaid,
		FSIC: &models.FSICDetails{
			BusinessName:  "Sari-Sari ni Aling Nena",
			Owner:         "Nena Santos",
			ContactNumber: "09171234567",
			Brgy:          "Remedios",
			Rental:        "Y",
			Expiry:        &expiry,
			AmountPaid:    decimal.NewFromInt(800),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, models.PermitFSIC, []models.Permit{p}))

	header, rows, err := ReadRows(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Business Name", header[1])
	assert.Equal(t, "Sari-Sari ni Aling Nena", rows[0][1])
	assert.Equal(t, "09171234567", rows[0][3])
	assert.Equal(t, "2026-01-01", rows[0][11])
	assert.Equal(t, "800.00", rows[0][12])
	assert.Equal(t, "rejected", rows[0][16])
	assert.Equal(t, "N/A", rows[0][18])
}
