package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseMarkup normalizes a configured markup ("30%", "30", "0.3", "") into a
// fraction rounded to four decimals.
//
// Values above 1 are whole-number percentages and are divided by 100. Blank,
// malformed and negative input yields zero; the function never fails.
func ParseMarkup(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return decimal.Zero
	}
	parsed, err := decimal.NewFromString(s)
	if err != nil || parsed.IsNegative() {
		return decimal.Zero
	}
	if parsed.GreaterThan(decimal.NewFromInt(1)) {
		return parsed.DivRound(hundred, RatioScale)
	}
	return parsed.Round(RatioScale)
}
