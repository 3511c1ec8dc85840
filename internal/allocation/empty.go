package allocation

import "centrefunds/internal/core"

// Empty returns the zero-valued stub for a centre without payments in range.
func Empty(centre core.Centre) core.Allocation {
	return core.Allocation{
		CentreID:               centre.ID,
		CentreName:             centre.Name,
		RevenueCode:            core.EmptyRevenueCode,
		RevenueCodeDescription: core.EmptyRevenueLabel,
	}
}
