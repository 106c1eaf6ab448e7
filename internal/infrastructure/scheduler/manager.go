// Package scheduler runs the recurring billing jobs using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/orris-inc/lnsubs/internal/shared/biztime"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes a batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// BatchJobFunc adapts a function to BatchJob.
type BatchJobFunc func(ctx context.Context) (int, error)

func (f BatchJobFunc) Execute(ctx context.Context) (int, error) { return f(ctx) }

// Intervals configures how often each billing job runs.
type Intervals struct {
	BillingCycle     time.Duration
	PaymentReconcile time.Duration
	CounterReconcile time.Duration
}

func (i Intervals) withDefaults() Intervals {
	if i.BillingCycle <= 0 {
		i.BillingCycle = time.Minute
	}
	if i.PaymentReconcile <= 0 {
		i.PaymentReconcile = 5 * time.Minute
	}
	if i.CounterReconcile <= 0 {
		i.CounterReconcile = time.Hour
	}
	return i
}

// SchedulerManager owns the single gocron scheduler of the process.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	// Track whether the scheduler has been started
	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a SchedulerManager. A non-nil locker makes
// every job run on at most one instance at a time.
func NewSchedulerManager(locker gocron.Locker, log logger.Interface) (*SchedulerManager, error) {
	options := []gocron.SchedulerOption{
		gocron.WithLocation(biztime.Location()),
	}
	if locker != nil {
		options = append(options, gocron.WithDistributedLocker(locker))
	}

	scheduler, err := gocron.NewScheduler(options...)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log.With("component", "scheduler"),
	}, nil
}

// RegisterBillingJobs registers the collector jobs:
// - billing cycle: rollovers, then one invoice per due subscription
// - payment reconcile: polls the provider for invoices still pending
// - counter reconcile: repairs drift in plan capacity counters
func (m *SchedulerManager) RegisterBillingJobs(
	intervals Intervals,
	billingCycleJob BatchJob,
	paymentReconcileJob BatchJob,
	counterReconcileJob BatchJob,
) error {
	intervals = intervals.withDefaults()

	jobs := []struct {
		name     string
		interval time.Duration
		timeout  time.Duration
		job      BatchJob
	}{
		{"billing-cycle", intervals.BillingCycle, 10 * time.Minute, billingCycleJob},
		{"payment-reconcile", intervals.PaymentReconcile, 5 * time.Minute, paymentReconcileJob},
		{"counter-reconcile", intervals.CounterReconcile, 5 * time.Minute, counterReconcileJob},
	}

	for _, j := range jobs {
		if j.job == nil {
			continue
		}
		name, timeout, job := j.name, j.timeout, j.job
		_, err := m.scheduler.NewJob(
			gocron.DurationJob(j.interval),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), timeout)
				defer cancel()
				m.runBatch(ctx, name, job)
			}),
			gocron.WithStartAt(gocron.WithStartImmediately()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithTags("billing", name),
			gocron.WithName(name),
		)
		if err != nil {
			return err
		}
	}

	m.logger.Infow("registered billing jobs",
		"billing_cycle", intervals.BillingCycle.String(),
		"payment_reconcile", intervals.PaymentReconcile.String(),
		"counter_reconcile", intervals.CounterReconcile.String(),
	)
	return nil
}

func (m *SchedulerManager) runBatch(ctx context.Context, name string, job BatchJob) {
	m.logger.Debugw("job started", "job", name)

	startTime := biztime.NowUTC()
	count, err := job.Execute(ctx)
	if err != nil {
		// Don't log error if context was cancelled (graceful shutdown)
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("job failed",
			"job", name,
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if count > 0 {
		m.logger.Infow("job processed items",
			"job", name,
			"count", count,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("job found nothing to process",
			"job", name,
			"duration", time.Since(startTime),
		)
	}
}

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler.
// It waits for all running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
