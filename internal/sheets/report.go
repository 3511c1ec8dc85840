package sheets

import (
	"strings"

	"centrefunds/internal/allocation"
	"centrefunds/internal/core"
)

const periodDateLayout = "2006-01-02"

// SheetTitle names the report tab of a run, e.g. "Allocations 2024-03-01..2024-03-31".
func SheetTitle(base string, r core.DateRange) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return r.Key()
	}
	return base + " " + r.Key()
}

// Header returns the report header row.
func Header() []any {
	row := []any{"Centre ID", "Centre", "Revenue Code", "Description", "Period Date"}
	for _, col := range core.AmountColumns {
		row = append(row, col)
	}
	return row
}

// Rows renders the header, one row per allocation and a trailing totals row.
// Amounts are written as plain decimal strings so no precision is lost.
func Rows(allocations []core.Allocation) [][]any {
	rows := make([][]any, 0, len(allocations)+2)
	rows = append(rows, Header())
	for _, a := range allocations {
		rows = append(rows, row(a))
	}

	total := allocation.Sum(allocations)
	totals := []any{"", "", total.RevenueCode, total.RevenueCodeDescription, ""}
	for _, v := range total.Amounts() {
		totals = append(totals, v.String())
	}
	return append(rows, totals)
}

func row(a core.Allocation) []any {
	period := ""
	if a.PeriodDate != nil {
		period = a.PeriodDate.Format(periodDateLayout)
	}
	out := []any{a.CentreID, a.CentreName, a.RevenueCode, a.RevenueCodeDescription, period}
	for _, v := range a.Amounts() {
		out = append(out, v.String())
	}
	return out
}
