package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"centrefunds/internal/allocation"
	"centrefunds/internal/core"
	"centrefunds/internal/log"
	"centrefunds/internal/middleware/ratelimit"
	"centrefunds/internal/middleware/trace"
	"centrefunds/internal/services"

	"github.com/shopspring/decimal"
)

type fakeService struct {
	mu        sync.Mutex
	previews  int
	closes    int
	result    allocation.Result
	stored    []core.Allocation
	previewEr error
	closeErr  error
	closeRun  core.AllocationRun
	exportErr error
}

func (f *fakeService) Preview(ctx context.Context, r core.DateRange) (allocation.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previews++
	return f.result, f.previewEr
}

func (f *fakeService) Close(ctx context.Context, r core.DateRange, trigger string) (services.CloseResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	if f.closeErr != nil {
		return services.CloseResult{Run: f.closeRun}, f.closeErr
	}
	run := f.closeRun
	run.Start, run.End, run.Trigger = r.Start, r.End, trigger
	return services.CloseResult{Run: run, Allocations: f.result.Allocations, ExportErr: f.exportErr}, nil
}

func (f *fakeService) Stored(ctx context.Context, r core.DateRange) ([]core.Allocation, error) {
	return f.stored, nil
}

type fakeQueue struct {
	ranges []core.DateRange
	err    error
}

func (q *fakeQueue) ClosePeriod(ctx context.Context, r core.DateRange, trigger string) error {
	q.ranges = append(q.ranges, r)
	return q.err
}

type fakeRuns struct {
	run core.AllocationRun
	err error
}

func (f fakeRuns) FindRun(ctx context.Context, start, end time.Time) (core.AllocationRun, error) {
	return f.run, f.err
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func sampleResult() allocation.Result {
	period := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	return allocation.Result{
		Allocations: []core.Allocation{
			{
				CentreID: 1, CentreName: "Arusha", RevenueCode: "142202540016",
				RevenueCodeDescription: "Receipts from Food", PeriodDate: &period,
				OriginalAmount:   decimal.RequireFromString("1200"),
				RemittedToCentre: decimal.RequireFromString("1000"),
			},
			{
				CentreID: 2, CentreName: "Moshi", RevenueCode: core.EmptyRevenueCode,
				RevenueCodeDescription: core.EmptyRevenueLabel,
				OriginalAmount:         decimal.Zero,
				RemittedToCentre:       decimal.RequireFromString("0.5"),
			},
		},
		Stats: allocation.Stats{Considered: 3, Retained: 1, OutOfRange: 2, Buckets: 1, EmptyCentres: 1},
	}
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = log.New(log.Config{Component: "test", Handler: log.NewHandler(io.Discard, "text", 0)})
	}
	srv := NewServer(opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

const marchBody = `{"startDate":"2024-03-01","endDate":"2024-03-31"}`

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Options{Service: &fakeService{}, Ready: fakePinger{}})

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
		if rr.Header().Get(trace.RequestIDHeader) == "" {
			t.Fatalf("%s missing request id header", path)
		}
		if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Fatalf("%s missing security headers", path)
		}
	}

	down := newTestServer(t, Options{Service: &fakeService{}, Ready: fakePinger{err: errors.New("db locked")}})
	rr := do(t, down, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d, want 503", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "db locked") {
		t.Fatalf("readyz leaks error detail: %s", rr.Body.String())
	}
}

func TestPreviewReturnsAllocationsAndCaches(t *testing.T) {
	svc := &fakeService{result: sampleResult()}
	srv := newTestServer(t, Options{Service: svc})

	rr := do(t, srv, http.MethodPost, "/api/allocation/all-centres", marchBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	var got struct {
		StartDate   string `json:"startDate"`
		EndDate     string `json:"endDate"`
		Allocations []struct {
			CentreName       string  `json:"centreName"`
			RevenueCode      string  `json:"revenueCode"`
			PeriodDate       *string `json:"periodDate"`
			OriginalAmount   string  `json:"originalAmount"`
			RemittedToCentre string  `json:"remittedToCentre"`
		} `json:"allocations"`
		Stats struct {
			OutOfRange   int `json:"outOfRange"`
			EmptyCentres int `json:"emptyCentres"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.StartDate != "2024-03-01" || got.EndDate != "2024-03-31" {
		t.Errorf("range = %s..%s", got.StartDate, got.EndDate)
	}
	if len(got.Allocations) != 2 {
		t.Fatalf("allocations = %d, want 2", len(got.Allocations))
	}
	first := got.Allocations[0]
	if first.CentreName != "Arusha" || first.OriginalAmount != "1200" || first.RemittedToCentre != "1000" {
		t.Errorf("first allocation = %+v", first)
	}
	if first.PeriodDate == nil || *first.PeriodDate != "2024-03-10" {
		t.Errorf("periodDate = %v", first.PeriodDate)
	}
	if got.Allocations[1].PeriodDate != nil {
		t.Errorf("stub periodDate should be null")
	}
	if got.Stats.OutOfRange != 2 || got.Stats.EmptyCentres != 1 {
		t.Errorf("stats = %+v", got.Stats)
	}

	do(t, srv, http.MethodPost, "/api/allocation/all-centres", marchBody)
	if svc.previews != 1 {
		t.Errorf("previews = %d, want 1 (second call cached)", svc.previews)
	}
}

func TestPreviewRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, Options{Service: &fakeService{}})

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"reversed range", http.MethodPost, `{"startDate":"2024-03-31","endDate":"2024-03-01"}`, http.StatusBadRequest},
		{"missing dates", http.MethodPost, `{}`, http.StatusBadRequest},
		{"broken json", http.MethodPost, `{"startDate":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, "/api/allocation/all-centres", tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status=%d, want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestPreviewServiceErrorIsHidden(t *testing.T) {
	srv := newTestServer(t, Options{Service: &fakeService{previewEr: errors.New("sqlite: disk I/O error")}})

	rr := do(t, srv, http.MethodPost, "/api/allocation/all-centres", marchBody)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "disk") {
		t.Fatalf("internal error leaked: %s", rr.Body.String())
	}

	var body errorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.RequestID == "" || body.RequestID != rr.Header().Get(trace.RequestIDHeader) {
		t.Errorf("request id body=%q header=%q", body.RequestID, rr.Header().Get(trace.RequestIDHeader))
	}
}

func TestStored(t *testing.T) {
	svc := &fakeService{stored: sampleResult().Allocations[:1]}
	srv := newTestServer(t, Options{Service: svc})

	rr := do(t, srv, http.MethodPost, "/api/allocation/get", marchBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"centreName":"Arusha"`) {
		t.Errorf("body = %s", rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), `"stats"`) {
		t.Errorf("stored response should not carry stats")
	}
}

func TestCloseSynchronous(t *testing.T) {
	svc := &fakeService{
		result:    sampleResult(),
		closeRun:  core.AllocationRun{ID: "run-1", Month: 3, Year: 2024, CreatedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		exportErr: errors.New("sheets quota"),
	}
	srv := newTestServer(t, Options{Service: svc})

	rr := do(t, srv, http.MethodPost, "/api/allocation/close", marchBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	var got struct {
		Status string `json:"status"`
		Run    struct {
			ID      string `json:"runId"`
			Month   int    `json:"month"`
			Trigger string `json:"trigger"`
		} `json:"run"`
		Allocations []json.RawMessage `json:"allocations"`
		ExportError string            `json:"exportError"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != "closed" || got.Run.ID != "run-1" || got.Run.Month != 3 || got.Run.Trigger != services.TriggerAPI {
		t.Errorf("close response = %+v", got)
	}
	if len(got.Allocations) != 2 || got.ExportError != "sheets quota" {
		t.Errorf("allocations=%d exportError=%q", len(got.Allocations), got.ExportError)
	}
}

func TestCloseDropsCachedPreview(t *testing.T) {
	svc := &fakeService{result: sampleResult(), closeRun: core.AllocationRun{ID: "run-1"}}
	srv := newTestServer(t, Options{Service: svc})

	do(t, srv, http.MethodPost, "/api/allocation/all-centres", marchBody)
	do(t, srv, http.MethodPost, "/api/allocation/close", marchBody)
	do(t, srv, http.MethodPost, "/api/allocation/all-centres", marchBody)

	if svc.previews != 2 {
		t.Errorf("previews = %d, want 2", svc.previews)
	}
}

func TestCloseAlreadyClosed(t *testing.T) {
	svc := &fakeService{
		closeErr: services.ErrPeriodClosed,
		closeRun: core.AllocationRun{ID: "run-0"},
	}
	srv := newTestServer(t, Options{Service: svc})

	rr := do(t, srv, http.MethodPost, "/api/allocation/close", marchBody)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"runId":"run-0"`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestCloseQueued(t *testing.T) {
	q := &fakeQueue{}
	svc := &fakeService{}
	srv := newTestServer(t, Options{Service: svc, Queue: q, Runs: fakeRuns{err: core.ErrNotFound}})

	rr := do(t, srv, http.MethodPost, "/api/allocation/close", marchBody)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if len(q.ranges) != 1 || q.ranges[0].Key() != "2024-03-01..2024-03-31" {
		t.Errorf("queued = %v", q.ranges)
	}
	if svc.closes != 0 {
		t.Errorf("service closed synchronously")
	}
	if !strings.Contains(rr.Body.String(), `"status":"queued"`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestAllocationRoutesLogUnderAllocationComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Component: "test", Handler: log.NewHandler(&buf, "text", 0)})
	srv := newTestServer(t, Options{
		Service: &fakeService{},
		Queue:   &fakeQueue{},
		Runs:    fakeRuns{err: core.ErrNotFound},
		Logger:  logger,
	})

	rr := do(t, srv, http.MethodPost, "/api/allocation/close", marchBody)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	var line string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.Contains(l, "Period close queued") {
			line = l
		}
	}
	if line == "" {
		t.Fatalf("queued close not logged:\n%s", buf.String())
	}
	if !strings.Contains(line, "component="+log.ComponentAllocation) {
		t.Errorf("log line %q should carry the allocation component", line)
	}
	if !strings.Contains(line, log.FieldRequestID+"=") {
		t.Errorf("log line %q should keep the request id", line)
	}
}

func TestCloseQueuedAlreadyStored(t *testing.T) {
	q := &fakeQueue{}
	srv := newTestServer(t, Options{Service: &fakeService{}, Queue: q, Runs: fakeRuns{run: core.AllocationRun{ID: "run-9"}}})

	rr := do(t, srv, http.MethodPost, "/api/allocation/close", marchBody)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status=%d", rr.Code)
	}
	if len(q.ranges) != 0 {
		t.Errorf("stored period was queued again")
	}
}

func TestCloseQueuePublishFailure(t *testing.T) {
	q := &fakeQueue{err: errors.New("circuit breaker is open")}
	srv := newTestServer(t, Options{Service: &fakeService{}, Queue: q})

	rr := do(t, srv, http.MethodPost, "/api/allocation/close", marchBody)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestCloseRateLimited(t *testing.T) {
	svc := &fakeService{closeErr: services.ErrPeriodClosed}
	srv := newTestServer(t, Options{Service: svc, CloseRate: ratelimit.Config{Requests: 2, Window: time.Hour}})

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = do(t, srv, http.MethodPost, "/api/allocation/close", marchBody)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Errorf("missing Retry-After")
	}
	if svc.closes != 2 {
		t.Errorf("closes = %d, want 2", svc.closes)
	}
}

func TestTotals(t *testing.T) {
	svc := &fakeService{result: sampleResult()}
	srv := newTestServer(t, Options{Service: svc})

	rr := do(t, srv, http.MethodGet, "/api/allocation/totals?start=2024-03-01&end=2024-03-31", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	var got struct {
		Allocations int `json:"allocations"`
		Totals      struct {
			OriginalAmount   string `json:"originalAmount"`
			RemittedToCentre string `json:"remittedToCentre"`
		} `json:"totals"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Allocations != 2 || got.Totals.OriginalAmount != "1200" || got.Totals.RemittedToCentre != "1000.5" {
		t.Errorf("totals = %+v", got)
	}

	rr = do(t, srv, http.MethodGet, "/api/allocation/totals", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing query status=%d", rr.Code)
	}
}
