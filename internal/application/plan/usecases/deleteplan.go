package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/lnsubs/internal/domain/audit"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	apperrors "github.com/orris-inc/lnsubs/internal/shared/errors"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

type DeletePlanCommand struct {
	PlanID    string
	Wallet    string
	IPAddress string
}

type DeletePlanUseCase struct {
	planRepo    plan.Repository
	liveCounter LiveSubscriptionCounter
	txMgr       TransactionRunner
	auditor     AuditRecorder
	logger      logger.Interface
}

func NewDeletePlanUseCase(
	planRepo plan.Repository,
	liveCounter LiveSubscriptionCounter,
	txMgr TransactionRunner,
	auditor AuditRecorder,
	logger logger.Interface,
) *DeletePlanUseCase {
	return &DeletePlanUseCase{
		planRepo:    planRepo,
		liveCounter: liveCounter,
		txMgr:       txMgr,
		auditor:     auditor,
		logger:      logger,
	}
}

// Execute removes a plan that no longer has trialing, active or past-due subscribers.
func (uc *DeletePlanUseCase) Execute(ctx context.Context, cmd DeletePlanCommand) error {
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		p, err := loadOwnedPlan(txCtx, uc.planRepo, cmd.PlanID, cmd.Wallet)
		if err != nil {
			return err
		}

		live, err := uc.liveCounter.CountLiveByPlan(txCtx, p.ID())
		if err != nil {
			return fmt.Errorf("failed to count live subscriptions: %w", err)
		}
		if live > 0 {
			return apperrors.NewConflictError(
				"plan still has live subscriptions",
				fmt.Sprintf("%d subscriptions must be canceled first", live),
			)
		}

		if err := uc.planRepo.Delete(txCtx, p.ID()); err != nil {
			return fmt.Errorf("failed to delete plan: %w", err)
		}
		return nil
	})
	if err != nil {
		uc.logger.Warnw("plan deletion rejected", "plan_id", cmd.PlanID, "error", err)
		return err
	}

	uc.auditor.Record(ctx, audit.EventPlanDeleted, cmd.Wallet, cmd.IPAddress, "plan "+cmd.PlanID+" deleted")
	uc.logger.Infow("plan deleted", "plan_id", cmd.PlanID, "wallet", cmd.Wallet)
	return nil
}
