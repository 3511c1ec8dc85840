package core

import "github.com/shopspring/decimal"

// AmountColumns names the monetary fields of an Allocation in report order.
var AmountColumns = []string{
	"Original Amount",
	"Expenditure Amount",
	"Profit Amount Per Centre Report",
	"Difference On Markup",
	"Contribution To Central Fund",
	"Facilitation Of Central Activities",
	"Facilitation Of Zonal Activities",
	"Facilitation Of Centre Activities",
	"Support To Production Unit",
	"Contribution To Centre Fund",
	"Depreciation Incentive To Facilitators",
	"Remitted To Centre",
}

func (a *Allocation) amountFields() []*decimal.Decimal {
	return []*decimal.Decimal{
		&a.OriginalAmount,
		&a.ExpenditureAmount,
		&a.ProfitAmountPerCentreReport,
		&a.DifferenceOnMarkup,
		&a.ContributionToCentralFund,
		&a.FacilitationOfCentralActivities,
		&a.FacilitationOfZonalActivities,
		&a.FacilitationOfCentreActivities,
		&a.SupportToProductionUnit,
		&a.ContributionToCentreFund,
		&a.DepreciationIncentiveToFacilitators,
		&a.RemittedToCentre,
	}
}

// Amounts returns the monetary fields in AmountColumns order.
func (a Allocation) Amounts() []decimal.Decimal {
	fields := a.amountFields()
	out := make([]decimal.Decimal, len(fields))
	for i, f := range fields {
		out[i] = *f
	}
	return out
}

// SetAmounts assigns the monetary fields from values in AmountColumns order.
// Missing trailing values are left untouched.
func (a *Allocation) SetAmounts(values []decimal.Decimal) {
	for i, f := range a.amountFields() {
		if i >= len(values) {
			return
		}
		*f = values[i]
	}
}

// AddAmounts adds every monetary field of o to a.
func (a *Allocation) AddAmounts(o Allocation) {
	src := o.Amounts()
	for i, f := range a.amountFields() {
		*f = f.Add(src[i])
	}
}
