// Package services orchestrates the allocation engine with storage, report
// export and messaging.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"centrefunds/internal/allocation"
	"centrefunds/internal/core"
	"centrefunds/internal/log"
	"centrefunds/internal/sheets"
	"centrefunds/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrPeriodClosed is returned when a range already has a stored run.
var ErrPeriodClosed = errors.New("period already closed")

type (
	PaymentReader interface {
		ListPayments(ctx context.Context, start, end time.Time) ([]core.PaymentRecord, error)
	}

	CentreReader interface {
		ListCentres(ctx context.Context) ([]core.Centre, error)
	}

	CategoryReader interface {
		ListCategories(ctx context.Context) ([]core.RevenueCategory, error)
	}

	RunFinder interface {
		// FindRun returns core.ErrNotFound when [start, end] has not been closed.
		FindRun(ctx context.Context, start, end time.Time) (core.AllocationRun, error)
	}

	RunStore interface {
		RunFinder
		SaveRun(ctx context.Context, run core.AllocationRun, allocations []core.Allocation) error
		ListAllocations(ctx context.Context, start, end time.Time) ([]core.Allocation, error)
		ListRunAllocations(ctx context.Context, runID string) ([]core.Allocation, error)
	}

	// Repository is everything the allocation service reads and writes.
	Repository interface {
		PaymentReader
		CentreReader
		CategoryReader
		RunStore
	}
)

// CloseResult describes a persisted run.
type CloseResult struct {
	Run         core.AllocationRun
	Allocations []core.Allocation
	Stats       allocation.Stats
	// ExportErr is set when the run was stored but the report export failed.
	ExportErr error
}

// AllocationService loads a period's inputs, runs the engine and persists
// closed periods.
type AllocationService struct {
	repo     Repository
	engine   *allocation.Engine
	exporter sheets.AllocationExporter
	logger   *log.Logger

	now   func() time.Time
	newID func() string
}

// NewAllocationService wires the service. exporter may be nil to skip report export.
func NewAllocationService(repo Repository, engine *allocation.Engine, exporter sheets.AllocationExporter, logger *log.Logger) *AllocationService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &AllocationService{
		repo:     repo,
		engine:   engine,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentAllocation),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Preview computes allocations for r without persisting anything.
func (s *AllocationService) Preview(ctx context.Context, r core.DateRange) (allocation.Result, error) {
	in, err := s.load(ctx, r)
	if err != nil {
		return allocation.Result{}, err
	}

	res := s.engine.Allocate(in)
	s.logStats(ctx, r, res.Stats)
	return res, nil
}

func (s *AllocationService) load(ctx context.Context, r core.DateRange) (allocation.Input, error) {
	in := allocation.Input{Range: r}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		payments, err := s.repo.ListPayments(gctx, r.Start, r.End)
		if err != nil {
			return fmt.Errorf("load payments: %w", err)
		}
		in.Payments = payments
		return nil
	})
	g.Go(func() error {
		centres, err := s.repo.ListCentres(gctx)
		if err != nil {
			return fmt.Errorf("load centres: %w", err)
		}
		in.Centres = centres
		return nil
	})
	g.Go(func() error {
		categories, err := s.repo.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		in.Categories = categories
		return nil
	})

	if err := g.Wait(); err != nil {
		return allocation.Input{}, err
	}
	return in, nil
}

func (s *AllocationService) logStats(ctx context.Context, r core.DateRange, st allocation.Stats) {
	fields := log.NewFields().
		WithRange(r).
		WithOperation(log.OpPreview).
		ToSlice()
	fields = append(fields,
		"considered", st.Considered,
		"retained", st.Retained,
		"out_of_range", st.OutOfRange,
		"dropped_unknown_centre", st.DroppedUnknownCentre,
		"dropped_no_category", st.DroppedNoCategory,
		"buckets", st.Buckets,
		"empty_centres", st.EmptyCentres)

	if st.DroppedUnknownCentre > 0 || st.DroppedNoCategory > 0 {
		s.logger.WarnContext(ctx, "Payments dropped from allocation", fields...)
		return
	}
	s.logger.DebugContext(ctx, "Allocation computed", fields...)
}

// Close computes r, stores it as a new run and exports the report. A range
// can be closed once; later attempts return ErrPeriodClosed.
func (s *AllocationService) Close(ctx context.Context, r core.DateRange, trigger string) (CloseResult, error) {
	if existing, err := s.repo.FindRun(ctx, r.Start, r.End); err == nil {
		return CloseResult{Run: existing}, fmt.Errorf("%w: run %s", ErrPeriodClosed, existing.ID)
	} else if !errors.Is(err, core.ErrNotFound) {
		return CloseResult{}, fmt.Errorf("check existing run: %w", err)
	}

	res, err := s.Preview(ctx, r)
	if err != nil {
		return CloseResult{}, err
	}

	run := core.AllocationRun{
		ID:        s.newID(),
		Start:     r.Start,
		End:       r.End,
		Month:     r.Month(),
		Year:      r.Year(),
		Trigger:   trigger,
		CreatedAt: s.now(),
	}

	if err := s.repo.SaveRun(ctx, run, res.Allocations); err != nil {
		if errors.Is(err, storage.ErrRunExists) {
			return CloseResult{Run: run}, fmt.Errorf("%w: %v", ErrPeriodClosed, err)
		}
		return CloseResult{}, fmt.Errorf("save run: %w", err)
	}

	result := CloseResult{Run: run, Allocations: res.Allocations, Stats: res.Stats}

	if s.exporter != nil {
		if err := s.exporter.Export(ctx, run, res.Allocations); err != nil {
			// export can be repeated with Reexport
			result.ExportErr = err
			s.logger.ErrorContext(ctx, "Failed to export allocation report",
				log.NewFields().WithRun(run.ID, trigger).WithError(err).ToSlice()...)
		}
	}

	log.NewStructuredLogger(s.logger).
		LogAllocationRun(ctx, log.OpClose, r, run.ID, trigger, len(res.Allocations))

	return result, nil
}

// ClosePeriod closes r and treats an already closed range as success.
func (s *AllocationService) ClosePeriod(ctx context.Context, r core.DateRange, trigger string) error {
	_, err := s.Close(ctx, r, trigger)
	if errors.Is(err, ErrPeriodClosed) {
		s.logger.InfoContext(ctx, "Period already closed", log.NewFields().WithRange(r).ToSlice()...)
		return nil
	}
	return err
}

// Reexport writes the stored report of the run closing exactly r again.
func (s *AllocationService) Reexport(ctx context.Context, r core.DateRange) error {
	if s.exporter == nil {
		return errors.New("no report exporter configured")
	}

	run, err := s.repo.FindRun(ctx, r.Start, r.End)
	if err != nil {
		return fmt.Errorf("find run: %w", err)
	}

	allocs, err := s.repo.ListRunAllocations(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("load stored allocations: %w", err)
	}

	if err := s.exporter.Export(ctx, run, allocs); err != nil {
		return fmt.Errorf("export run %s: %w", run.ID, err)
	}
	return nil
}

// Stored returns persisted allocations of runs within r.
func (s *AllocationService) Stored(ctx context.Context, r core.DateRange) ([]core.Allocation, error) {
	allocs, err := s.repo.ListAllocations(ctx, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("list stored allocations: %w", err)
	}
	return allocs, nil
}

// Totals sums the previewed allocations of r.
func (s *AllocationService) Totals(ctx context.Context, r core.DateRange) (core.Allocation, error) {
	res, err := s.Preview(ctx, r)
	if err != nil {
		return core.Allocation{}, err
	}
	return allocation.Sum(res.Allocations), nil
}
