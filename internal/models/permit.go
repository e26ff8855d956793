package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PermitType identifies one of the three permit families handled by the station.
// Its value doubles as the REST path segment.
type PermitType string

const (
	PermitBuilding  PermitType = "building"
	PermitOccupancy PermitType = "occupancy"
	PermitFSIC      PermitType = "businessfsic"
)

// PermitTypes lists every permit type in dashboard order.
var PermitTypes = []PermitType{PermitBuilding, PermitOccupancy, PermitFSIC}

// ErrUnknownPermitType is returned when a path segment names no permit type.
var ErrUnknownPermitType = errors.New("unknown permit type")

// ParsePermitType maps a path segment to its PermitType.
func ParsePermitType(s string) (PermitType, error) {
	switch t := PermitType(strings.ToLower(strings.TrimSpace(s))); t {
	case PermitBuilding, PermitOccupancy, PermitFSIC:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPermitType, s)
}

// Label is the human-readable name used in report titles and file names.
func (t PermitType) Label() string {
	switch t {
	case PermitBuilding:
		return "Building"
	case PermitOccupancy:
		return "Occupancy"
	case PermitFSIC:
		return "FSIC"
	}
	return string(t)
}

// Status is the review state of a permit application.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the three review states.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Verb describes the transition into s, as shown in confirmation prompts.
func (s Status) Verb() string {
	switch s {
	case StatusApproved:
		return "approve"
	case StatusRejected:
		return "reject"
	}
	return "set to pending"
}

// Notifies reports whether moving a permit into s emails the applicant.
func (s Status) Notifies() bool {
	return s == StatusApproved || s == StatusRejected
}

// PaymentStatus tracks whether the permit fee has been settled.
type PaymentStatus string

const (
	PaymentNotPaid PaymentStatus = "not_paid"
	PaymentPaid    PaymentStatus = "paid"
)

// Valid reports whether p is a known payment state.
func (p PaymentStatus) Valid() bool {
	return p == PaymentNotPaid || p == PaymentPaid
}

// Label renders the payment state for reports.
func (p PaymentStatus) Label() string {
	if p == PaymentPaid {
		return "Paid"
	}
	return "Not Paid"
}

// BuildingDetails holds the fields of a building permit (FSEC) application.
type BuildingDetails struct {
	OwnerEstablishment string          `json:"owner_establishment" binding:"required,max=255"`
	Location           string          `json:"location" binding:"required,max=500"`
	FCodeFee           decimal.Decimal `json:"fcode_fee"`
	ORNo               string          `json:"or_no" binding:"max=64"`
	EvaluatedBy        string          `json:"evaluated_by" binding:"max=255"`
	DateReleasedFSEC   *Date           `json:"date_released_fsec"`
	ControlNo          string          `json:"control_no" binding:"max=64"`
	PermitFee          decimal.Decimal `json:"permit_fee"`
}

// OccupancyDetails holds the fields of an occupancy permit application.
type OccupancyDetails struct {
	OwnerEstablishment string          `json:"owner_establishment" binding:"required,max=255"`
	Location           string          `json:"location" binding:"required,max=500"`
	FCodeFee           decimal.Decimal `json:"fcode_fee"`
	ORNo               string          `json:"or_no" binding:"max=64"`
	EvaluatedBy        string          `json:"evaluated_by" binding:"max=255"`
	DateReleasedFSIC   *Date           `json:"date_released_fsic"`
	ControlNo          string          `json:"control_no" binding:"max=64"`
}

// FSICDetails holds the fields of a business Fire Safety Inspection
// Certificate application.
type FSICDetails struct {
	ContactNumber    string          `json:"contact_number" binding:"omitempty,numeric,max=11"`
	BusinessName     string          `json:"business_name" binding:"required,max=255"`
	Owner            string          `json:"owner" binding:"required,max=255"`
	Brgy             string          `json:"brgy" binding:"omitempty,barangay"`
	CompleteAddress  string          `json:"complete_address" binding:"max=500"`
	FloorArea        string          `json:"floor_area" binding:"max=32"`
	NoOfStoreys      string          `json:"no_of_storeys" binding:"max=8"`
	Rental           string          `json:"rental" binding:"omitempty,oneof=Y N"`
	NatureOfBusiness string          `json:"nature_of_business" binding:"max=255"`
	BIRTIN           string          `json:"bir_tin" binding:"max=32"`
	Expiry           *Date           `json:"expiry"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	ORNumber         string          `json:"or_number" binding:"max=64"`
	TypeOfOccupancy  string          `json:"type_of_occupancy" binding:"max=128"`
	DateReleased     *Date           `json:"date_released"`
}

// Permit is a single permit application of any type. Exactly one of the
// detail blocks is set, matching Type.
type Permit struct {
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	DateReceived    Date              `json:"date_received"`
	LastPaymentDate *Date             `json:"last_payment_date"`
	Building        *BuildingDetails  `json:"building,omitempty"`
	Occupancy       *OccupancyDetails `json:"occupancy,omitempty"`
	FSIC            *FSICDetails      `json:"fsic,omitempty"`
	Type            PermitType        `json:"type"`
	Status          Status            `json:"status"`
	PaymentStatus   PaymentStatus     `json:"payment_status"`
	Email           string            `json:"email,omitempty"`
	ID              uuid.UUID         `json:"id"`
}

// Permit invariant violations.
var (
	ErrDetailsMismatch     = errors.New("permit details do not match permit type")
	ErrPaymentDateMismatch = errors.New("last_payment_date must be set exactly when payment_status is paid")
)

// Validate checks the cross-field invariants of a permit.
func (p *Permit) Validate() error {
	if !p.Status.Valid() {
		return fmt.Errorf("invalid status %q", p.Status)
	}
	if !p.PaymentStatus.Valid() {
		return fmt.Errorf("invalid payment status %q", p.PaymentStatus)
	}
	paid := p.PaymentStatus == PaymentPaid
	hasDate := p.LastPaymentDate != nil && !p.LastPaymentDate.IsZero()
	if paid != hasDate {
		return ErrPaymentDateMismatch
	}
	switch p.Type {
	case PermitBuilding:
		if p.Building == nil || p.Occupancy != nil || p.FSIC != nil {
			return ErrDetailsMismatch
		}
	case PermitOccupancy:
		if p.Occupancy == nil || p.Building != nil || p.FSIC != nil {
			return ErrDetailsMismatch
		}
	case PermitFSIC:
		if p.FSIC == nil || p.Building != nil || p.Occupancy != nil {
			return ErrDetailsMismatch
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPermitType, p.Type)
	}
	return nil
}

// Name returns the owner or establishment the permit was filed for.
func (p *Permit) Name() string {
	switch {
	case p.Building != nil:
		return p.Building.OwnerEstablishment
	case p.Occupancy != nil:
		return p.Occupancy.OwnerEstablishment
	case p.FSIC != nil:
		if p.FSIC.BusinessName != "" {
			return p.FSIC.BusinessName
		}
		return p.FSIC.Owner
	}
	return ""
}

// PaidInYear reports whether the permit is paid with a payment dated in year.
func (p *Permit) PaidInYear(year int) bool {
	if p.PaymentStatus != PaymentPaid || p.LastPaymentDate == nil || p.LastPaymentDate.IsZero() {
		return false
	}
	return p.LastPaymentDate.Year() == year
}

// MarkPaid sets the payment state, stamping on when paid and clearing the
// payment date otherwise.
func (p *Permit) MarkPaid(status PaymentStatus, on Date) {
	p.PaymentStatus = status
	if status == PaymentPaid {
		p.LastPaymentDate = on.Ptr()
		return
	}
	p.LastPaymentDate = nil
}

// SearchFields returns the descriptive text a search query is matched against.
func (p *Permit) SearchFields() []string {
	switch {
	case p.Building != nil:
		b := p.Building
		return []string{b.OwnerEstablishment, b.Location, b.ORNo, b.EvaluatedBy, b.ControlNo}
	case p.Occupancy != nil:
		o := p.Occupancy
		return []string{o.OwnerEstablishment, o.Location, o.ORNo, o.EvaluatedBy, o.ControlNo}
	case p.FSIC != nil:
		f := p.FSIC
		return []string{f.BusinessName, f.Owner, f.Brgy, f.CompleteAddress, f.NatureOfBusiness, f.ORNumber, f.BIRTIN}
	}
	return nil
}

// DetailsJSON encodes the type-specific block for storage.
func (p *Permit) DetailsJSON() ([]byte, error) {
	var v interface{}
	switch p.Type {
	case PermitBuilding:
		v = p.Building
	case PermitOccupancy:
		v = p.Occupancy
	case PermitFSIC:
		v = p.FSIC
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPermitType, p.Type)
	}
	return json.Marshal(v)
}

// SetDetailsJSON decodes a stored type-specific block according to p.Type.
func (p *Permit) SetDetailsJSON(data []byte) error {
	p.Building, p.Occupancy, p.FSIC = nil, nil, nil
	switch p.Type {
	case PermitBuilding:
		p.Building = &BuildingDetails{}
		return json.Unmarshal(data, p.Building)
	case PermitOccupancy:
		p.Occupancy = &OccupancyDetails{}
		return json.Unmarshal(data, p.Occupancy)
	case PermitFSIC:
		p.FSIC = &FSICDetails{}
		return json.Unmarshal(data, p.FSIC)
	}
	return fmt.Errorf("%w: %q", ErrUnknownPermitType, p.Type)
}

// StatusCounts tallies permits of one type by review state.
type StatusCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// Add counts one permit in state s. Unknown states are ignored.
func (c *StatusCounts) Add(s Status) {
	c.AddN(s, 1)
}

// AddN counts n permits in state s.
func (c *StatusCounts) AddN(s Status, n int) {
	switch s {
	case StatusPending:
		c.Pending += n
	case StatusApproved:
		c.Approved += n
	case StatusRejected:
		c.Rejected += n
	}
}

// Total is the number of permits counted.
func (c StatusCounts) Total() int {
	return c.Pending + c.Approved + c.Rejected
}
