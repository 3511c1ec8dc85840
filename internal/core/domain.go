package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// EmptyRevenueCode and EmptyRevenueLabel mark the stub emitted for a centre
	// without payments in the requested range.
	EmptyRevenueCode  = "N/A"
	EmptyRevenueLabel = "No Payments (Custom Range)"
)

type (
	// PaymentRecord is a single collection received by a centre.
	PaymentRecord struct {
		ID            int64
		Amount        decimal.Decimal
		PaymentDate   time.Time
		CentreID      int64
		CategoryID    int64 // zero when the payment carries no revenue category
		Description   string
		ControlNumber string
	}

	Centre struct {
		ID   int64
		Name string
		Code string
	}

	// RevenueCategory is a GFS classification with its configured markup.
	RevenueCategory struct {
		ID            int64
		Code          string
		Description   string
		MarkupPercent string
	}

	// Allocation is the per-centre, per-bucket distribution of a period's receipts.
	Allocation struct {
		CentreID               int64
		CentreName             string
		RevenueCode            string
		RevenueCodeDescription string
		PeriodDate             *time.Time

		OriginalAmount                      decimal.Decimal
		ExpenditureAmount                   decimal.Decimal
		ProfitAmountPerCentreReport         decimal.Decimal
		DifferenceOnMarkup                  decimal.Decimal
		ContributionToCentralFund           decimal.Decimal
		FacilitationOfCentralActivities     decimal.Decimal
		FacilitationOfZonalActivities       decimal.Decimal
		FacilitationOfCentreActivities      decimal.Decimal
		SupportToProductionUnit             decimal.Decimal
		ContributionToCentreFund            decimal.Decimal
		DepreciationIncentiveToFacilitators decimal.Decimal
		RemittedToCentre                    decimal.Decimal
	}

	// AllocationRun is a persisted, closed period.
	AllocationRun struct {
		ID        string
		Start     time.Time
		End       time.Time
		Month     int
		Year      int
		Trigger   string
		CreatedAt time.Time
	}
)

var (
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrNotFound         = errors.New("not found")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyCode        = errors.New("empty code")
)

// IsEmpty reports whether the allocation is a no-payment stub.
func (a Allocation) IsEmpty() bool {
	return a.RevenueCode == EmptyRevenueCode && a.PeriodDate == nil
}

func (p PaymentRecord) Validate() error {
	if p.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if p.PaymentDate.IsZero() {
		return errors.New("payment date cannot be zero")
	}
	if p.CentreID == 0 {
		return errors.New("payment centre is required")
	}
	return nil
}

func (c Centre) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (c RevenueCategory) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return ErrEmptyCode
	}
	if strings.TrimSpace(c.Description) == "" {
		return errors.New("empty category description")
	}
	return nil
}
