package services

import (
	"context"
	"sync"
	"time"

	"centrefunds/internal/core"
	"centrefunds/internal/storage"

	"github.com/shopspring/decimal"
)

type fakeRepo struct {
	mu         sync.Mutex
	payments   []core.PaymentRecord
	centres    []core.Centre
	categories []core.RevenueCategory
	runs       []core.AllocationRun
	stored     map[string][]core.Allocation

	paymentsErr error
	saveErr     error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		centres: []core.Centre{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "Beta"}},
		categories: []core.RevenueCategory{
			{ID: 10, Code: "142201610607", Description: "Miscellaneous receipts", MarkupPercent: "20%"},
		},
		stored: make(map[string][]core.Allocation),
	}
}

func (f *fakeRepo) addPayment(centreID, categoryID int64, amount string, at time.Time) {
	f.payments = append(f.payments, core.PaymentRecord{
		ID:          int64(len(f.payments) + 1),
		Amount:      decimal.RequireFromString(amount),
		PaymentDate: at,
		CentreID:    centreID,
		CategoryID:  categoryID,
	})
}

func (f *fakeRepo) ListPayments(_ context.Context, start, end time.Time) ([]core.PaymentRecord, error) {
	if f.paymentsErr != nil {
		return nil, f.paymentsErr
	}
	var out []core.PaymentRecord
	for _, p := range f.payments {
		if !p.PaymentDate.Before(start) && !p.PaymentDate.After(end) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListCentres(context.Context) ([]core.Centre, error) {
	return f.centres, nil
}

func (f *fakeRepo) ListCategories(context.Context) ([]core.RevenueCategory, error) {
	return f.categories, nil
}

func (f *fakeRepo) FindRun(_ context.Context, start, end time.Time) (core.AllocationRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.runs {
		if r.Start.Equal(start) && r.End.Equal(end) {
			return r, nil
		}
	}
	return core.AllocationRun{}, core.ErrNotFound
}

func (f *fakeRepo) SaveRun(_ context.Context, run core.AllocationRun, allocs []core.Allocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	for _, r := range f.runs {
		if r.Start.Equal(run.Start) && r.End.Equal(run.End) {
			return storage.ErrRunExists
		}
	}
	f.runs = append(f.runs, run)
	f.stored[run.ID] = allocs
	return nil
}

func (f *fakeRepo) ListAllocations(_ context.Context, start, end time.Time) ([]core.Allocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Allocation
	for _, r := range f.runs {
		if !r.Start.Before(start) && !r.End.After(end) {
			out = append(out, f.stored[r.ID]...)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListRunAllocations(_ context.Context, runID string) ([]core.Allocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored[runID], nil
}

type failingExporter struct{ err error }

func (e failingExporter) Export(context.Context, core.AllocationRun, []core.Allocation) error {
	return e.err
}
