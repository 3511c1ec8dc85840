// Package core provides the domain types shared by the allocation engine and
// its collaborators.
//
// This file contains helpers for parsing and rounding monetary amounts. All
// money is carried as decimal.Decimal; rounding is half away from zero.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// CentsScale is the scale used for totals and fund distributions.
	CentsScale int32 = 2
	// RatioScale is the scale used for markup fractions and the expenditure division.
	RatioScale int32 = 4
)

// ParseAmount converts a decimal string to a non-negative amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. No rounding
// is applied here; totals are rounded once they are summed.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,345") -> 12.345, nil
//	ParseAmount("-1") -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// RoundCents rounds to two decimal places, half away from zero.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(CentsScale)
}

// FormatAmount renders an amount with exactly two decimals, e.g. "1538.46".
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(CentsScale)
}

// SumAmounts adds the amounts of the given payments without rounding.
func SumAmounts(payments []PaymentRecord) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}
