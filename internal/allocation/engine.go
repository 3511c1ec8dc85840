// Package allocation computes how each centre's receipts for a period split
// into expenditure and profit, and how that profit is shared across the
// institutional funds.
//
// The engine is pure: callers load payments, centres and categories, hand
// them in as an Input and persist or render the returned allocations. An
// Engine holds no mutable state and is safe for concurrent use.
package allocation

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"centrefunds/internal/core"
)

// Config selects the combined category and how it is split.
type Config struct {
	SplitCategoryCode  string
	DrivingKeywords    []string
	ShortCoursesMarkup decimal.Decimal
}

// DefaultConfig returns the production split rules.
func DefaultConfig() Config {
	return Config{
		SplitCategoryCode:  core.DefaultSplitCategoryCode,
		DrivingKeywords:    DefaultDrivingKeywords,
		ShortCoursesMarkup: DefaultShortCoursesMarkup,
	}
}

// Input is one invocation's snapshot. Range bounds are inclusive.
type Input struct {
	Payments   []core.PaymentRecord
	Centres    []core.Centre
	Categories []core.RevenueCategory
	Range      core.DateRange
}

// Stats counts what happened to the input payments. Dropped payments are a
// data-quality signal for the caller to log.
type Stats struct {
	Considered           int
	Retained             int
	OutOfRange           int
	DroppedUnknownCentre int
	DroppedNoCategory    int
	Buckets              int
	EmptyCentres         int
}

// Result is the engine output, sorted by centre name, centre id and code.
type Result struct {
	Allocations []core.Allocation
	Stats       Stats
}

type Engine struct {
	splitter Splitter
}

func NewEngine(cfg Config) *Engine {
	s := NewSplitter(cfg.SplitCategoryCode)
	if len(cfg.DrivingKeywords) > 0 {
		s.Keywords = cfg.DrivingKeywords
	}
	if !cfg.ShortCoursesMarkup.IsZero() {
		s.ShortCoursesMarkup = cfg.ShortCoursesMarkup
	}
	return &Engine{splitter: s}
}

// Allocate produces at least one allocation per known centre: a stub when the
// centre has no categorised payments in range, otherwise one per bucket.
func (e *Engine) Allocate(in Input) Result {
	g := group(in)
	stats := g.stats

	out := make([]core.Allocation, 0, len(g.centres))
	for _, centre := range g.centres {
		ids := g.categoryIDs(centre.ID)
		if len(ids) == 0 {
			out = append(out, Empty(centre))
			stats.EmptyCentres++
			continue
		}
		for _, id := range ids {
			for _, b := range e.splitter.Buckets(g.categories[id], g.byCentre[centre.ID][id]) {
				out = append(out, Compute(centre, b))
				stats.Buckets++
			}
		}
	}

	SortAllocations(out)
	return Result{Allocations: out, Stats: stats}
}

// SortAllocations orders allocations by centre name, centre id, then revenue code.
func SortAllocations(allocs []core.Allocation) {
	slices.SortStableFunc(allocs, func(a, b core.Allocation) int {
		return cmp.Or(
			cmp.Compare(a.CentreName, b.CentreName),
			cmp.Compare(a.CentreID, b.CentreID),
			cmp.Compare(a.RevenueCode, b.RevenueCode),
		)
	})
}
