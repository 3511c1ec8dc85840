package allocation

import (
	"strings"

	"github.com/shopspring/decimal"

	"centrefunds/internal/core"
)

const (
	DrivingLabel      = "BASIC DRIVING"
	ShortCoursesLabel = "SHORT COURSES"

	drivingSuffix      = "-DRIVING"
	shortCoursesSuffix = "-SHORT COURSES"
)

// DefaultDrivingKeywords mark a payment of the combined category as driving tuition.
var DefaultDrivingKeywords = []string{"DRIVING", "PSV", "PVS"}

// DefaultShortCoursesMarkup is applied to the SHORT COURSES bucket whatever the
// category is configured with.
var DefaultShortCoursesMarkup = decimal.New(30, -2)

// Bucket is a group of payments sharing one centre and one output label.
type Bucket struct {
	Code     string
	Label    string
	Markup   decimal.Decimal
	Payments []core.PaymentRecord
}

// Splitter turns a category's payments into buckets, splitting the combined
// category into driving and short-course buckets.
type Splitter struct {
	Code               string
	Keywords           []string
	ShortCoursesMarkup decimal.Decimal
}

// NewSplitter returns a splitter for the combined category code with the
// default keywords and short-course markup.
func NewSplitter(code string) Splitter {
	return Splitter{
		Code:               code,
		Keywords:           DefaultDrivingKeywords,
		ShortCoursesMarkup: DefaultShortCoursesMarkup,
	}
}

// Applies reports whether cat is the combined category.
func (s Splitter) Applies(cat core.RevenueCategory) bool {
	return s.Code != "" && cat.Code == s.Code
}

// Buckets returns the non-empty buckets for one centre's payments under cat.
func (s Splitter) Buckets(cat core.RevenueCategory, payments []core.PaymentRecord) []Bucket {
	if len(payments) == 0 {
		return nil
	}
	if !s.Applies(cat) {
		return []Bucket{{
			Code:     cat.Code,
			Label:    cat.Description,
			Markup:   core.ParseMarkup(cat.MarkupPercent),
			Payments: payments,
		}}
	}

	var driving, other []core.PaymentRecord
	for _, p := range payments {
		if s.IsDriving(p.Description) {
			driving = append(driving, p)
		} else {
			other = append(other, p)
		}
	}

	buckets := make([]Bucket, 0, 2)
	if len(driving) > 0 {
		buckets = append(buckets, Bucket{
			Code:     cat.Code + drivingSuffix,
			Label:    DrivingLabel,
			Markup:   core.ParseMarkup(cat.MarkupPercent),
			Payments: driving,
		})
	}
	if len(other) > 0 {
		buckets = append(buckets, Bucket{
			Code:     cat.Code + shortCoursesSuffix,
			Label:    ShortCoursesLabel,
			Markup:   s.ShortCoursesMarkup,
			Payments: other,
		})
	}
	return buckets
}

// IsDriving matches the description against the keywords, ignoring case.
func (s Splitter) IsDriving(description string) bool {
	d := strings.ToUpper(strings.TrimSpace(description))
	if d == "" {
		return false
	}
	for _, kw := range s.Keywords {
		if kw != "" && strings.Contains(d, strings.ToUpper(kw)) {
			return true
		}
	}
	return false
}
