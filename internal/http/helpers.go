package http

import (
	"strings"
	"time"

	"centrefunds/internal/allocation"
	"centrefunds/internal/core"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// amountsJSON holds the twelve money columns of an allocation. Decimals
// encode as JSON strings.
type amountsJSON struct {
	OriginalAmount                      decimal.Decimal `json:"originalAmount"`
	ExpenditureAmount                   decimal.Decimal `json:"expenditureAmount"`
	ProfitAmountPerCentreReport         decimal.Decimal `json:"profitAmountPerCentreReport"`
	DifferenceOnMarkup                  decimal.Decimal `json:"differenceOnMarkup"`
	ContributionToCentralFund           decimal.Decimal `json:"contributionToCentralFund"`
	FacilitationOfCentralActivities     decimal.Decimal `json:"facilitationOfCentralActivities"`
	FacilitationOfZonalActivities       decimal.Decimal `json:"facilitationOfZonalActivities"`
	FacilitationOfCentreActivities      decimal.Decimal `json:"facilitationOfCentreActivities"`
	SupportToProductionUnit             decimal.Decimal `json:"supportToProductionUnit"`
	ContributionToCentreFund            decimal.Decimal `json:"contributionToCentreFund"`
	DepreciationIncentiveToFacilitators decimal.Decimal `json:"depreciationIncentiveToFacilitators"`
	RemittedToCentre                    decimal.Decimal `json:"remittedToCentre"`
}

type allocationJSON struct {
	CentreID               int64   `json:"centreId"`
	CentreName             string  `json:"centreName"`
	RevenueCode            string  `json:"revenueCode"`
	RevenueCodeDescription string  `json:"revenueCodeDescription"`
	PeriodDate             *string `json:"periodDate"`
	amountsJSON
}

type statsJSON struct {
	Considered           int `json:"considered"`
	Retained             int `json:"retained"`
	OutOfRange           int `json:"outOfRange"`
	DroppedUnknownCentre int `json:"droppedUnknownCentre"`
	DroppedNoCategory    int `json:"droppedNoCategory"`
	Buckets              int `json:"buckets"`
	EmptyCentres         int `json:"emptyCentres"`
}

type allocationsResponse struct {
	StartDate   string           `json:"startDate"`
	EndDate     string           `json:"endDate"`
	Allocations []allocationJSON `json:"allocations"`
	Stats       *statsJSON       `json:"stats,omitempty"`
}

type totalsResponse struct {
	StartDate   string      `json:"startDate"`
	EndDate     string      `json:"endDate"`
	Allocations int         `json:"allocations"`
	Totals      amountsJSON `json:"totals"`
}

type runJSON struct {
	ID        string `json:"runId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Month     int    `json:"month"`
	Year      int    `json:"year"`
	Trigger   string `json:"trigger"`
	CreatedAt string `json:"createdAt"`
}

type closeResponse struct {
	Status      string           `json:"status"`
	StartDate   string           `json:"startDate"`
	EndDate     string           `json:"endDate"`
	Run         *runJSON         `json:"run,omitempty"`
	Allocations []allocationJSON `json:"allocations,omitempty"`
	ExportError string           `json:"exportError,omitempty"`
}

func toAmountsJSON(a core.Allocation) amountsJSON {
	return amountsJSON{
		OriginalAmount:                      a.OriginalAmount,
		ExpenditureAmount:                   a.ExpenditureAmount,
		ProfitAmountPerCentreReport:         a.ProfitAmountPerCentreReport,
		DifferenceOnMarkup:                  a.DifferenceOnMarkup,
		ContributionToCentralFund:           a.ContributionToCentralFund,
		FacilitationOfCentralActivities:     a.FacilitationOfCentralActivities,
		FacilitationOfZonalActivities:       a.FacilitationOfZonalActivities,
		FacilitationOfCentreActivities:      a.FacilitationOfCentreActivities,
		SupportToProductionUnit:             a.SupportToProductionUnit,
		ContributionToCentreFund:            a.ContributionToCentreFund,
		DepreciationIncentiveToFacilitators: a.DepreciationIncentiveToFacilitators,
		RemittedToCentre:                    a.RemittedToCentre,
	}
}

func toAllocationJSON(a core.Allocation) allocationJSON {
	out := allocationJSON{
		CentreID:               a.CentreID,
		CentreName:             a.CentreName,
		RevenueCode:            a.RevenueCode,
		RevenueCodeDescription: a.RevenueCodeDescription,
		amountsJSON:            toAmountsJSON(a),
	}
	if a.PeriodDate != nil {
		d := a.PeriodDate.Format(dateLayout)
		out.PeriodDate = &d
	}
	return out
}

func toAllocationsJSON(allocs []core.Allocation) []allocationJSON {
	out := make([]allocationJSON, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, toAllocationJSON(a))
	}
	return out
}

func toStatsJSON(s allocation.Stats) *statsJSON {
	return &statsJSON{
		Considered:           s.Considered,
		Retained:             s.Retained,
		OutOfRange:           s.OutOfRange,
		DroppedUnknownCentre: s.DroppedUnknownCentre,
		DroppedNoCategory:    s.DroppedNoCategory,
		Buckets:              s.Buckets,
		EmptyCentres:         s.EmptyCentres,
	}
}

func toRunJSON(run core.AllocationRun) *runJSON {
	return &runJSON{
		ID:        run.ID,
		StartDate: run.Start.Format(dateLayout),
		EndDate:   run.End.Format(dateLayout),
		Month:     run.Month,
		Year:      run.Year,
		Trigger:   run.Trigger,
		CreatedAt: run.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
