package usecases

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/orris-inc/lnsubs/internal/application/payment/dto"
	"github.com/orris-inc/lnsubs/internal/application/subscription/lifecycle"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	"github.com/orris-inc/lnsubs/internal/shared/biztime"
	apperrors "github.com/orris-inc/lnsubs/internal/shared/errors"
	"github.com/orris-inc/lnsubs/internal/shared/goroutine"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

// CycleResult summarizes one billing pass.
type CycleResult struct {
	Scanned    int `json:"scanned" yaml:"scanned"`
	Issued     int `json:"issued" yaml:"issued"`
	Skipped    int `json:"skipped" yaml:"skipped"`
	Failed     int `json:"failed" yaml:"failed"`
	RolledOver int `json:"rolled_over" yaml:"rolled_over"`
	BackingOff int `json:"backing_off" yaml:"backing_off"`
}

type invoicer interface {
	Execute(ctx context.Context, subscriptionID string) (*dto.InvoiceDTO, error)
}

type BillingCycleConfig struct {
	BatchSize int
	Workers   int
	// RetryBackoff is how long a subscription that failed to invoice is left
	// out of later scans, so repeat failures cannot fill every batch.
	RetryBackoff time.Duration
}

const defaultRetryBackoff = 10 * time.Minute

type RunBillingCycleUseCase struct {
	subscriptionRepo subscription.Repository
	planRepo         plan.Repository
	manager          *lifecycle.Manager
	txMgr            TransactionRunner
	findDue          *FindDueSubscriptionsUseCase
	invoicer         invoicer
	publisher        lifecycle.Publisher
	cfg              BillingCycleConfig
	clock            biztime.Clock
	logger           logger.Interface

	backoffMu sync.Mutex
	retryAt   map[string]time.Time
}

func NewRunBillingCycleUseCase(
	subscriptionRepo subscription.Repository,
	planRepo plan.Repository,
	manager *lifecycle.Manager,
	txMgr TransactionRunner,
	findDue *FindDueSubscriptionsUseCase,
	invoicer invoicer,
	publisher lifecycle.Publisher,
	cfg BillingCycleConfig,
	clock biztime.Clock,
	logger logger.Interface,
) *RunBillingCycleUseCase {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	return &RunBillingCycleUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		manager:          manager,
		txMgr:            txMgr,
		findDue:          findDue,
		invoicer:         invoicer,
		publisher:        publisher,
		cfg:              cfg,
		clock:            clock,
		logger:           logger,
		retryAt:          make(map[string]time.Time),
	}
}

// Execute applies period-end transitions, then invoices every due
// subscription. A failure on one subscription is counted and never stops
// the rest of the batch.
func (uc *RunBillingCycleUseCase) Execute(ctx context.Context) (*CycleResult, error) {
	result := &CycleResult{}

	rolled, err := uc.rollover(ctx)
	if err != nil {
		return nil, err
	}
	result.RolledOver = rolled

	now := uc.clock.Now()
	backingOff := uc.backingOff(now)
	due, err := uc.findDue.ExecuteExcluding(ctx, uc.cfg.BatchSize, backingOff)
	if err != nil {
		return nil, err
	}
	result.Scanned = len(due)
	result.BackingOff = len(backingOff)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.cfg.Workers)

	for _, sub := range due {
		subID := sub.ID
		g.Go(func() error {
			var invoice *dto.InvoiceDTO
			err := goroutine.Recover(func() error {
				var err error
				invoice, err = uc.invoicer.Execute(gctx, subID)
				return err
			})

			mu.Lock()
			defer mu.Unlock()
			uc.recordOutcome(subID, err, now)
			switch {
			case err != nil:
				result.Failed++
				uc.logger.Warnw("failed to invoice subscription",
					"subscription_id", subID,
					"transient", apperrors.IsTransientError(err),
					"error", err,
				)
			case invoice == nil:
				result.Skipped++
			default:
				result.Issued++
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("billing cycle interrupted: %w", err)
	}

	uc.logger.Infow("billing cycle completed",
		"scanned", result.Scanned,
		"issued", result.Issued,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"backing_off", result.BackingOff,
		"rolled_over", result.RolledOver,
	)
	return result, nil
}

// backingOff drops expired entries and returns the IDs still waiting out
// their retry backoff.
func (uc *RunBillingCycleUseCase) backingOff(now time.Time) []string {
	uc.backoffMu.Lock()
	defer uc.backoffMu.Unlock()

	ids := make([]string, 0, len(uc.retryAt))
	for id, at := range uc.retryAt {
		if !at.After(now) {
			delete(uc.retryAt, id)
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (uc *RunBillingCycleUseCase) recordOutcome(subID string, err error, now time.Time) {
	uc.backoffMu.Lock()
	defer uc.backoffMu.Unlock()

	if err == nil {
		delete(uc.retryAt, subID)
		return
	}
	uc.retryAt[subID] = now.Add(uc.cfg.RetryBackoff)
}

func (uc *RunBillingCycleUseCase) rollover(ctx context.Context) (int, error) {
	now := uc.clock.Now()

	candidates, err := uc.subscriptionRepo.FindRolloverCandidates(ctx, now, uc.cfg.BatchSize)
	if err != nil {
		uc.logger.Errorw("rollover scan failed", "error", err)
		return 0, fmt.Errorf("failed to find rollover candidates: %w", err)
	}

	rolled := 0
	for _, candidate := range candidates {
		var (
			sub     *subscription.Subscription
			outcome subscription.RolloverOutcome
		)
		err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
			var err error
			sub, err = loadSubscription(txCtx, uc.subscriptionRepo, candidate.ID())
			if err != nil {
				return err
			}
			outcome, err = uc.manager.Rollover(txCtx, sub, now)
			return err
		})
		if err != nil {
			uc.logger.Warnw("rollover failed", "subscription_id", candidate.ID(), "error", err)
			continue
		}
		if outcome == subscription.RolloverNone {
			continue
		}

		rolled++
		if outcome == subscription.RolloverCanceled {
			publishSubscriptionEvent(ctx, uc.planRepo, uc.publisher, uc.logger, lifecycle.EventSubscriptionCanceled, sub, nil, now)
		}
	}
	return rolled, nil
}
