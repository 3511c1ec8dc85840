package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"centrefunds/internal/allocation"
	"centrefunds/internal/core"
	"centrefunds/internal/log"
	"centrefunds/internal/middleware/trace"
	"centrefunds/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks that the database answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "not_configured"}
	status, code := "ready", http.StatusOK

	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := s.ready.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
				log.NewFields().WithError(err).ToSlice()...)
			checks["database"] = "failed"
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}

	NewJSONResponse().Status(code).Body(map[string]any{
		"status": status,
		"checks": checks,
	}).Write(w)
}

// handlePreview computes allocations for every centre over the posted range.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	rng, err := ParseRangeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.preview(r.Context(), rng)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	NewJSONResponse().Body(allocationsResponse{
		StartDate:   rng.Start.Format(dateLayout),
		EndDate:     rng.End.Format(dateLayout),
		Allocations: toAllocationsJSON(res.Allocations),
		Stats:       toStatsJSON(res.Stats),
	}).Write(w)
}

// handleStored returns persisted allocations of runs inside the posted range.
func (s *Server) handleStored(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	rng, err := ParseRangeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	allocs, err := s.service.Stored(r.Context(), rng)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	NewJSONResponse().Body(allocationsResponse{
		StartDate:   rng.Start.Format(dateLayout),
		EndDate:     rng.End.Format(dateLayout),
		Allocations: toAllocationsJSON(allocs),
	}).Write(w)
}

// handleClose closes the posted range, through the queue when one is configured.
func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	rng, err := ParseRangeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	logger := log.FromContext(ctx)
	body := closeResponse{
		StartDate: rng.Start.Format(dateLayout),
		EndDate:   rng.End.Format(dateLayout),
	}

	if s.queue != nil {
		if s.runs != nil {
			if run, err := s.runs.FindRun(ctx, rng.Start, rng.End); err == nil {
				ConflictError(services.ErrPeriodClosed.Error(), run.ID).RequestID(trace.GetRequestID(ctx)).Write(w)
				return
			} else if !errors.Is(err, core.ErrNotFound) {
				s.writeError(w, r, err)
				return
			}
		}

		if err := s.queue.ClosePeriod(ctx, rng, services.TriggerAPI); err != nil {
			s.writeError(w, r, err)
			return
		}

		logger.InfoContext(ctx, "Period close queued", log.NewFields().WithRange(rng).ToSlice()...)
		body.Status = "queued"
		NewJSONResponse().Status(http.StatusAccepted).Body(body).Write(w)
		return
	}

	res, err := s.service.Close(ctx, rng, services.TriggerAPI)
	if err != nil {
		if errors.Is(err, services.ErrPeriodClosed) {
			ConflictError(services.ErrPeriodClosed.Error(), res.Run.ID).RequestID(trace.GetRequestID(ctx)).Write(w)
			return
		}
		s.writeError(w, r, err)
		return
	}

	// The stored run is now the reference for this range.
	s.previews.Forget(rng.Key())

	body.Status = "closed"
	body.Run = toRunJSON(res.Run)
	body.Allocations = toAllocationsJSON(res.Allocations)
	if res.ExportErr != nil {
		body.ExportError = res.ExportErr.Error()
	}
	NewJSONResponse().Body(body).Write(w)
}

// handleTotals sums the previewed allocations of ?start=&end=.
func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	rng, err := ParseRangeQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.preview(r.Context(), rng)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	NewJSONResponse().Body(totalsResponse{
		StartDate:   rng.Start.Format(dateLayout),
		EndDate:     rng.End.Format(dateLayout),
		Allocations: len(res.Allocations),
		Totals:      toAmountsJSON(allocation.Sum(res.Allocations)),
	}).Write(w)
}

func (s *Server) preview(ctx context.Context, rng core.DateRange) (allocation.Result, error) {
	return s.previews.Get(ctx, rng.Key(), func(ctx context.Context) (allocation.Result, error) {
		return s.service.Preview(ctx, rng)
	})
}

// writeError maps domain errors to status codes. Unexpected errors are logged
// and hidden from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	requestID := trace.GetRequestID(ctx)

	var resp *JSONResponseBuilder
	switch {
	case errors.Is(err, core.ErrInvalidDateRange), errors.Is(err, errInvalidBody):
		resp = BadRequestError(err.Error())
	case errors.Is(err, errBodyTooLarge):
		resp = ErrorResponse(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, core.ErrNotFound):
		resp = NotFoundError(err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		resp = ServiceUnavailableError("request cancelled")
	default:
		log.NewStructuredLogger(log.FromContext(ctx)).
			LogError(ctx, "Request failed", err, log.ComponentHTTP, r.URL.Path, log.NewFields())
		resp = InternalServerError("internal error")
	}

	resp.RequestID(requestID).Write(w)
}
