package allocation

import "centrefunds/internal/core"

// TotalsCode labels the synthetic row returned by Sum.
const TotalsCode = "TOTAL"

// Sum adds every monetary field across allocations. Identity fields of the
// result are blank apart from the code and label.
func Sum(allocs []core.Allocation) core.Allocation {
	total := core.Allocation{RevenueCode: TotalsCode, RevenueCodeDescription: "Total"}
	for _, a := range allocs {
		total.AddAmounts(a)
	}
	return total
}
