package allocation

import (
	"slices"

	"centrefunds/internal/core"
)

// grouping is the two-level centre -> category -> payments index of the
// payments retained for one invocation.
type grouping struct {
	centres    []core.Centre
	categories map[int64]core.RevenueCategory
	byCentre   map[int64]map[int64][]core.PaymentRecord
	stats      Stats
}

func group(in Input) grouping {
	g := grouping{
		centres:    make([]core.Centre, 0, len(in.Centres)),
		categories: make(map[int64]core.RevenueCategory, len(in.Categories)),
		byCentre:   make(map[int64]map[int64][]core.PaymentRecord),
	}

	known := make(map[int64]struct{}, len(in.Centres))
	for _, c := range in.Centres {
		if _, dup := known[c.ID]; dup {
			continue
		}
		known[c.ID] = struct{}{}
		g.centres = append(g.centres, c)
	}
	for _, cat := range in.Categories {
		if _, dup := g.categories[cat.ID]; !dup {
			g.categories[cat.ID] = cat
		}
	}

	for _, p := range in.Payments {
		g.stats.Considered++
		if p.PaymentDate.IsZero() || !in.Range.Contains(p.PaymentDate) {
			g.stats.OutOfRange++
			continue
		}
		if _, ok := known[p.CentreID]; !ok {
			g.stats.DroppedUnknownCentre++
			continue
		}
		if _, ok := g.categories[p.CategoryID]; !ok || p.CategoryID == 0 {
			g.stats.DroppedNoCategory++
			continue
		}
		byCat, ok := g.byCentre[p.CentreID]
		if !ok {
			byCat = make(map[int64][]core.PaymentRecord)
			g.byCentre[p.CentreID] = byCat
		}
		byCat[p.CategoryID] = append(byCat[p.CategoryID], p)
		g.stats.Retained++
	}
	return g
}

// categoryIDs returns the category ids present for a centre in ascending order.
func (g grouping) categoryIDs(centreID int64) []int64 {
	byCat := g.byCentre[centreID]
	ids := make([]int64, 0, len(byCat))
	for id := range byCat {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
