package worker

import (
	"context"
	"errors"
	"fmt"

	"centrefunds/internal/amqp"
	"centrefunds/internal/core"
	"centrefunds/internal/log"
	"centrefunds/internal/services"
)

// TriggerQueue is recorded on runs whose request carried no trigger.
const TriggerQueue = "queue"

type (
	// PeriodCloser closes a range and returns the stored run.
	PeriodCloser interface {
		Close(ctx context.Context, r core.DateRange, trigger string) (services.CloseResult, error)
	}

	// CompletionPublisher announces closed runs.
	CompletionPublisher interface {
		PublishRunCompleted(ctx context.Context, msg *amqp.RunCompletedMessage) error
	}
)

// AllocationWorker closes the periods requested over AMQP.
type AllocationWorker struct {
	closer   PeriodCloser
	notifier CompletionPublisher
	logger   *log.Logger
}

// NewAllocationWorker creates a worker. notifier may be nil.
func NewAllocationWorker(closer PeriodCloser, notifier CompletionPublisher, logger *log.Logger) *AllocationWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &AllocationWorker{
		closer:   closer,
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRunRequest processes a single run request from AMQP. A returned
// error requeues the request; an already closed period is acknowledged.
func (w *AllocationWorker) HandleRunRequest(ctx context.Context, msg *amqp.RunRequestMessage) error {
	r, err := msg.Range()
	if err != nil {
		// Already validated on decode; nothing to retry.
		w.logger.ErrorContext(ctx, "Dropping run request with invalid range",
			"request_id", msg.RequestID, log.FieldError, err.Error())
		return nil
	}

	trigger := msg.Trigger
	if trigger == "" {
		trigger = TriggerQueue
	}

	res, err := w.closer.Close(ctx, r, trigger)
	switch {
	case errors.Is(err, services.ErrPeriodClosed):
		w.logger.InfoContext(ctx, "Run request for closed period ignored",
			log.NewFields().WithRange(r).ToSlice()...)
		return nil
	case err != nil:
		return fmt.Errorf("close period %s: %w", r.Key(), err)
	}

	if res.ExportErr != nil {
		w.logger.WarnContext(ctx, "Run stored without report export",
			log.NewFields().WithRun(res.Run.ID, trigger).WithError(res.ExportErr).ToSlice()...)
	}

	if w.notifier != nil {
		done := amqp.NewRunCompletedMessage(msg.RequestID, res.Run, len(res.Allocations))
		if err := w.notifier.PublishRunCompleted(ctx, done); err != nil {
			// The run is stored; a missing announcement must not requeue it.
			w.logger.ErrorContext(ctx, "Failed to publish run completion",
				log.NewFields().WithRun(res.Run.ID, trigger).WithError(err).ToSlice()...)
		}
	}

	return nil
}
