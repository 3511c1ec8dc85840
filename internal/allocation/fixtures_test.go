package allocation

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"centrefunds/internal/core"
)

const (
	catSplit int64 = iota + 1
	catTuition
	catAppFee
	catMisc
)

var (
	alpha = core.Centre{ID: 1, Name: "Alpha"}
	beta  = core.Centre{ID: 2, Name: "Beta"}
	gamma = core.Centre{ID: 3, Name: "Gamma"}
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 10, 0, 0, 0, time.UTC)
}

func march(t *testing.T) core.DateRange {
	t.Helper()
	r, err := core.ParseDayRange("2024-03-01", "2024-03-31")
	require.NoError(t, err)
	return r
}

func categories(splitMarkup string) []core.RevenueCategory {
	return []core.RevenueCategory{
		{ID: catSplit, Code: core.DefaultSplitCategoryCode, Description: "Vocational Short and Tailor made course fees", MarkupPercent: splitMarkup},
		{ID: catTuition, Code: "142202120086", Description: core.TuitionFeesLabel, MarkupPercent: "10"},
		{ID: catAppFee, Code: "142202540053", Description: core.ApplicationFeeLabel, MarkupPercent: "0.1"},
		{ID: catMisc, Code: "142201610607", Description: "Miscellaneous receipts", MarkupPercent: "20%"},
	}
}

func payment(centre, category int64, amount string, when time.Time, desc string) core.PaymentRecord {
	return core.PaymentRecord{
		Amount:      dec(amount),
		PaymentDate: when,
		CentreID:    centre,
		CategoryID:  category,
		Description: desc,
	}
}

// requireAmount compares decimals by value so scale differences do not matter.
func requireAmount(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func findByCode(t *testing.T, allocs []core.Allocation, centreID int64, code string) core.Allocation {
	t.Helper()
	for _, a := range allocs {
		if a.CentreID == centreID && a.RevenueCode == code {
			return a
		}
	}
	require.Failf(t, "allocation not found", "centre %d code %q", centreID, code)
	return core.Allocation{}
}

// fingerprint renders an allocation with fixed scales for value comparison.
func fingerprint(a core.Allocation) string {
	parts := []string{fmt.Sprint(a.CentreID), a.RevenueCode, a.RevenueCodeDescription}
	if a.PeriodDate != nil {
		parts = append(parts, a.PeriodDate.Format(time.RFC3339))
	} else {
		parts = append(parts, "-")
	}
	for _, v := range a.Amounts() {
		parts = append(parts, v.StringFixed(4))
	}
	return strings.Join(parts, "|")
}
