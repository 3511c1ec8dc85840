package core

const (
	// DefaultSplitCategoryCode is the combined short-course category whose
	// payments are split into driving and other short courses.
	DefaultSplitCategoryCode = "142301600001"

	ApplicationFeeLabel = "Receipts from Application Fee"
	TuitionFeesLabel    = "Tuition Fees"
)

// DefaultCategories is the revenue category catalog installed on first start.
func DefaultCategories() []RevenueCategory {
	return []RevenueCategory{
		{Code: DefaultSplitCategoryCode, Description: "Vocational Short and Tailor made course fees", MarkupPercent: "0.4"},
		{Code: "142202120086", Description: TuitionFeesLabel, MarkupPercent: "0.1"},
		{Code: "142201610607", Description: "Miscellaneous receipts", MarkupPercent: "0.2"},
		{Code: "142301610001", Description: "Receipt from Vocational Workshop Production", MarkupPercent: "0.3"},
		{Code: "142201360007", Description: "Receipts from Examination Fees", MarkupPercent: "0.1"},
		{Code: "142202540053", Description: ApplicationFeeLabel, MarkupPercent: "0.1"},
		{Code: "141501070049", Description: "Rent - Government Quarter and Offices", MarkupPercent: "0.1"},
		{Code: "142201530014", Description: "Receipt from Annual Fees", MarkupPercent: "0.1"},
		{Code: "142201230004", Description: "Receipts from Full Registration", MarkupPercent: "0.1"},
		{Code: "0", Description: "Extra amount paid", MarkupPercent: "0.1"},
		{Code: "142201220001", Description: "Receipts from Sale of Tender Document", MarkupPercent: "0.1"},
		{Code: "143101010018", Description: "Fines, Penalties and Forfetures", MarkupPercent: "0.1"},
		{Code: "112011010001", Description: "Payroll/Skills and Development Levy", MarkupPercent: "0.1"},
		{Code: "142202110012", Description: "Salary in Lieu of Notice", MarkupPercent: "0.1"},
		{Code: "142201270030", Description: "Receipt from Inspection Fees", MarkupPercent: "0.1"},
	}
}
