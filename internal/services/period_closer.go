package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"centrefunds/internal/amqp"
	"centrefunds/internal/core"
	"centrefunds/internal/log"
)

// Run triggers recorded on allocation runs.
const (
	TriggerAPI       = "api"
	TriggerScheduler = "scheduler"
	TriggerCLI       = "cli"
)

// PeriodRunner closes a period, directly or by handing it to a worker.
type PeriodRunner interface {
	ClosePeriod(ctx context.Context, r core.DateRange, trigger string) error
}

// RunRequestPublisher is the messaging side of QueuedRunner.
type RunRequestPublisher interface {
	PublishRunRequest(ctx context.Context, msg *amqp.RunRequestMessage) error
}

// QueuedRunner hands periods to the allocation worker over AMQP.
type QueuedRunner struct {
	publisher RunRequestPublisher
}

func NewQueuedRunner(p RunRequestPublisher) *QueuedRunner {
	return &QueuedRunner{publisher: p}
}

func (q *QueuedRunner) ClosePeriod(ctx context.Context, r core.DateRange, trigger string) error {
	if err := q.publisher.PublishRunRequest(ctx, amqp.NewRunRequestMessage(r, trigger)); err != nil {
		return fmt.Errorf("enqueue close %s: %w", r.Key(), err)
	}
	return nil
}

// PeriodCloserConfig holds configuration for the period closer
type PeriodCloserConfig struct {
	// Interval is how often to check for a due period (default: 1h)
	Interval time.Duration
}

func DefaultPeriodCloserConfig() PeriodCloserConfig {
	return PeriodCloserConfig{Interval: time.Hour}
}

// PeriodCloser closes the last complete period of its schedule once it has
// elapsed, skipping periods that are already stored.
type PeriodCloser struct {
	runner   PeriodRunner
	finder   RunFinder
	strategy PeriodStrategy
	config   PeriodCloserConfig
	logger   *log.Logger
	now      func() time.Time

	// Lifecycle management
	mu            sync.Mutex
	running       bool
	lastRequested string
	stopCh        chan struct{}
	doneCh        chan struct{}
}

func NewPeriodCloser(runner PeriodRunner, finder RunFinder, strategy PeriodStrategy, config PeriodCloserConfig, logger *log.Logger) *PeriodCloser {
	if config.Interval <= 0 {
		config.Interval = DefaultPeriodCloserConfig().Interval
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &PeriodCloser{
		runner:   runner,
		finder:   finder,
		strategy: strategy,
		config:   config,
		logger:   logger.WithComponent(log.ComponentScheduler),
		now:      time.Now,
	}
}

// CloseDue closes the last complete period at now unless it is already
// stored or was already requested by this closer. It reports whether a close
// was issued.
func (p *PeriodCloser) CloseDue(ctx context.Context, now time.Time) (core.DateRange, bool, error) {
	r, err := p.strategy.LastComplete(now)
	if err != nil {
		return r, false, fmt.Errorf("compute due period: %w", err)
	}

	_, err = p.finder.FindRun(ctx, r.Start, r.End)
	switch {
	case err == nil:
		p.logger.DebugContext(ctx, "Period already closed", log.NewFields().WithRange(r).ToSlice()...)
		return r, false, nil
	case !errors.Is(err, core.ErrNotFound):
		return r, false, fmt.Errorf("check existing run: %w", err)
	}

	p.mu.Lock()
	requested := p.lastRequested == r.Key()
	p.mu.Unlock()
	if requested {
		return r, false, nil
	}

	if err := p.runner.ClosePeriod(ctx, r, TriggerScheduler); err != nil {
		return r, false, err
	}

	p.mu.Lock()
	p.lastRequested = r.Key()
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "Period close issued",
		log.NewFields().WithRange(r).WithOperation(log.OpClose).ToSlice()...)
	return r, true, nil
}

// Start begins the scheduling loop. Returns an error if already running.
func (p *PeriodCloser) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("period closer is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Period closer started", "interval", p.config.Interval)
	return nil
}

// Stop gracefully stops the closer and waits for the loop to exit.
func (p *PeriodCloser) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		p.logger.InfoContext(ctx, "Period closer stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Period closer stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

func (p *PeriodCloser) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *PeriodCloser) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	// Check immediately on startup
	p.tick(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *PeriodCloser) tick(ctx context.Context) {
	if _, _, err := p.CloseDue(ctx, p.now()); err != nil {
		p.logger.ErrorContext(ctx, "Failed to close due period", log.FieldError, err.Error())
	}
}
