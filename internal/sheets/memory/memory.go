package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"centrefunds/internal/core"
	ports "centrefunds/internal/sheets"
)

// Export is a report captured in process.
type Export struct {
	Run         core.AllocationRun
	Title       string
	Allocations []core.Allocation
	Rows        [][]any
}

// Store keeps exported reports in memory, one per sheet title. A later export
// of the same period replaces the earlier one, as the Sheets adapter does.
type Store struct {
	mu        sync.Mutex
	sheetBase string
	exports   map[string]Export
	order     []string
}

var _ ports.AllocationExporter = (*Store)(nil)

func New(sheetBase string) *Store {
	return &Store{sheetBase: sheetBase, exports: make(map[string]Export)}
}

func (s *Store) Export(ctx context.Context, run core.AllocationRun, allocations []core.Allocation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if run.ID == "" {
		return fmt.Errorf("export: run id is required")
	}

	title := ports.SheetTitle(s.sheetBase, core.DateRange{Start: run.Start, End: run.End})
	export := Export{
		Run:         run,
		Title:       title,
		Allocations: slices.Clone(allocations),
		Rows:        ports.Rows(allocations),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exports[title]; !ok {
		s.order = append(s.order, title)
	}
	s.exports[title] = export
	return nil
}

// Get returns the export stored under a sheet title.
func (s *Store) Get(title string) (Export, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.exports[title]
	return e, ok
}

// Exports returns every stored export in first-export order.
func (s *Store) Exports() []Export {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Export, 0, len(s.order))
	for _, title := range s.order {
		out = append(out, s.exports[title])
	}
	return out
}
