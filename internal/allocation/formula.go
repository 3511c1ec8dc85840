package allocation

import (
	"strings"

	"github.com/shopspring/decimal"

	"centrefunds/internal/core"
)

// Fund shares of the per-centre profit. Each is an independent read-out of the
// same base, so together they exceed 100%.
var (
	RateCentralFund           = decimal.New(30, -2)
	RateCentralActivities     = decimal.New(4, -2)
	RateZonalActivities       = decimal.New(4, -2)
	RateCentreActivities      = decimal.New(2, -2)
	RateProductionUnit        = decimal.Zero
	RateCentreFund            = decimal.New(60, -2)
	RateDepreciationIncentive = decimal.Zero
	RateRemittedToCentre      = decimal.New(62, -2)
)

var one = decimal.NewFromInt(1)

// Compute derives the allocation of one bucket for the given centre.
//
//	total       = round(sum(amount), 2)
//	expenditure = round(total / (1 + markup), 4)
//	profit      = total - expenditure
//	difference  = expenditure - profit
//
// Application fees carry no expenditure. Tuition fees zero out expenditure,
// profit and every fund share but keep the computed difference.
func Compute(centre core.Centre, b Bucket) core.Allocation {
	total := core.RoundCents(core.SumAmounts(b.Payments))

	var expenditure, profit, difference decimal.Decimal
	if strings.EqualFold(b.Label, core.ApplicationFeeLabel) {
		expenditure = decimal.Zero
		profit = total
		difference = total
	} else {
		divisor := one.Add(b.Markup)
		if !divisor.IsPositive() {
			divisor = one
		}
		expenditure = total.DivRound(divisor, core.RatioScale)
		profit = total.Sub(expenditure)
		difference = expenditure.Sub(profit)
	}

	a := core.Allocation{
		CentreID:               centre.ID,
		CentreName:             centre.Name,
		RevenueCode:            b.Code,
		RevenueCodeDescription: strings.TrimSpace(b.Label),
		OriginalAmount:         total,
		DifferenceOnMarkup:     difference,
	}
	if len(b.Payments) > 0 {
		date := b.Payments[0].PaymentDate
		a.PeriodDate = &date
	}

	if strings.EqualFold(b.Label, core.TuitionFeesLabel) {
		return a
	}

	a.ExpenditureAmount = expenditure
	a.ProfitAmountPerCentreReport = profit
	a.ContributionToCentralFund = share(profit, RateCentralFund)
	a.FacilitationOfCentralActivities = share(profit, RateCentralActivities)
	a.FacilitationOfZonalActivities = share(profit, RateZonalActivities)
	a.FacilitationOfCentreActivities = share(profit, RateCentreActivities)
	a.SupportToProductionUnit = share(profit, RateProductionUnit)
	a.ContributionToCentreFund = share(profit, RateCentreFund)
	a.DepreciationIncentiveToFacilitators = share(profit, RateDepreciationIncentive)
	a.RemittedToCentre = share(profit, RateRemittedToCentre)
	return a
}

func share(profit, rate decimal.Decimal) decimal.Decimal {
	return core.RoundCents(profit.Mul(rate))
}
