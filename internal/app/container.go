// Package app assembles repositories, use cases and infrastructure into the
// object graph shared by the server and the billing commands.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/orris-inc/lnsubs/internal/application/audit"
	"github.com/orris-inc/lnsubs/internal/application/payment/paymentgateway"
	paymentusecases "github.com/orris-inc/lnsubs/internal/application/payment/usecases"
	planusecases "github.com/orris-inc/lnsubs/internal/application/plan/usecases"
	"github.com/orris-inc/lnsubs/internal/application/subscription/lifecycle"
	subusecases "github.com/orris-inc/lnsubs/internal/application/subscription/usecases"
	"github.com/orris-inc/lnsubs/internal/domain/payment"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	"github.com/orris-inc/lnsubs/internal/infrastructure/config"
	"github.com/orris-inc/lnsubs/internal/infrastructure/email"
	"github.com/orris-inc/lnsubs/internal/infrastructure/notification/webhook"
	"github.com/orris-inc/lnsubs/internal/infrastructure/payment/fake"
	"github.com/orris-inc/lnsubs/internal/infrastructure/payment/lnbits"
	"github.com/orris-inc/lnsubs/internal/infrastructure/qrcode"
	"github.com/orris-inc/lnsubs/internal/infrastructure/ratelimit"
	"github.com/orris-inc/lnsubs/internal/infrastructure/repository"
	"github.com/orris-inc/lnsubs/internal/shared/biztime"
	"github.com/orris-inc/lnsubs/internal/shared/db"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
	"github.com/orris-inc/lnsubs/internal/shared/services/markdown"
)

// reconcileMinAge keeps the poller away from invoices the subscriber has
// only just received.
const reconcileMinAge = time.Minute

type Container struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Clock  biztime.Clock
	Logger logger.Interface

	PlanRepo         plan.Repository
	SubscriptionRepo subscription.Repository
	PaymentRepo      payment.Repository
	Audit            *audit.Recorder
	Provider         paymentgateway.Provider
	Lifecycle        *lifecycle.Manager

	// Plan registry
	CreatePlan    *planusecases.CreatePlanUseCase
	UpdatePlan    *planusecases.UpdatePlanUseCase
	GetPlan       *planusecases.GetPlanUseCase
	ListPlans     *planusecases.ListPlansUseCase
	DeletePlan    *planusecases.DeletePlanUseCase
	GetPublicPlan *planusecases.GetPublicPlanUseCase

	// Subscription lifecycle
	CreateSubscription    *subusecases.CreateSubscriptionUseCase
	GetSubscription       *subusecases.GetSubscriptionUseCase
	ListSubscriptions     *subusecases.ListSubscriptionsUseCase
	ListPlanSubscriptions *subusecases.ListPlanSubscriptionsUseCase
	CancelSubscription    *subusecases.CancelSubscriptionUseCase
	PublicSubscribe       *subusecases.PublicSubscribeUseCase

	// Payment collector
	FindDue                  *paymentusecases.FindDueSubscriptionsUseCase
	InvoiceSubscription      *paymentusecases.InvoiceSubscriptionUseCase
	RunBillingCycle          *paymentusecases.RunBillingCycleUseCase
	RecordPaymentOutcome     *paymentusecases.RecordPaymentOutcomeUseCase
	ReconcilePendingPayments *paymentusecases.ReconcilePendingPaymentsUseCase
	ReconcilePlanCounters    *paymentusecases.ReconcilePlanCountersUseCase
	ListSubscriptionPayments *paymentusecases.ListSubscriptionPaymentsUseCase
	GetInvoiceQR             *paymentusecases.GetInvoiceQRUseCase

	webhooks      *webhook.Publisher
	memoryLimiter *ratelimit.MemoryLimiter
}

// New builds the container. Redis is connected only when enabled in cfg.
func New(cfg *config.Config, gdb *gorm.DB, log logger.Interface) (*Container, error) {
	c := &Container{
		Config: cfg,
		DB:     gdb,
		Clock:  biztime.SystemClock(),
		Logger: log,
	}

	if cfg.Redis.Enabled {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			_ = c.Redis.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	provider, err := newProvider(cfg, log)
	if err != nil {
		return nil, err
	}
	c.Provider = provider

	c.PlanRepo = repository.NewPlanRepository(gdb, log.With("component", "plan_repository"))
	c.SubscriptionRepo = repository.NewSubscriptionRepository(gdb, log.With("component", "subscription_repository"))
	c.PaymentRepo = repository.NewPaymentRepository(gdb, log.With("component", "payment_repository"))
	c.Audit = audit.NewRecorder(repository.NewSecurityAuditRepository(gdb), c.Clock, log.With("component", "audit"))

	txMgr := db.NewTransactionManager(gdb)
	publishers := lifecycle.MultiPublisher{lifecycle.LogPublisher(log.With("component", "events"))}
	if cfg.Webhook.Enabled {
		c.webhooks = webhook.NewPublisher(cfg.Webhook.SigningSecret, cfg.Webhook.Timeout, log)
		publishers = append(publishers, c.webhooks)
	}
	var publisher lifecycle.Publisher = publishers

	c.Lifecycle = lifecycle.NewManager(c.PlanRepo, c.SubscriptionRepo, cfg.Billing.MaxFailedPayments, log.With("component", "lifecycle"))

	c.buildPlanUseCases(txMgr, log)
	c.buildPaymentUseCases(txMgr, publisher, log)
	c.buildSubscriptionUseCases(txMgr, publisher, log)

	return c, nil
}

func newProvider(cfg *config.Config, log logger.Interface) (paymentgateway.Provider, error) {
	switch cfg.Payment.Provider {
	case "lnbits":
		return lnbits.NewClient(cfg.Payment.BaseURL, cfg.Payment.WalletKeys, cfg.Payment.Timeout, log), nil
	case "fake", "":
		log.Warnw("using in-memory payment provider, invoices cannot be paid")
		return fake.NewProvider(), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Payment.Provider)
	}
}

func (c *Container) buildPlanUseCases(txMgr *db.TransactionManager, log logger.Interface) {
	planLog := log.With("component", "plan")

	c.CreatePlan = planusecases.NewCreatePlanUseCase(c.PlanRepo, c.Clock, planLog)
	c.UpdatePlan = planusecases.NewUpdatePlanUseCase(c.PlanRepo, c.Clock, planLog)
	c.GetPlan = planusecases.NewGetPlanUseCase(c.PlanRepo, planLog)
	c.ListPlans = planusecases.NewListPlansUseCase(c.PlanRepo, planLog)
	c.DeletePlan = planusecases.NewDeletePlanUseCase(c.PlanRepo, c.SubscriptionRepo, txMgr, c.Audit, planLog)
	c.GetPublicPlan = planusecases.NewGetPublicPlanUseCase(c.PlanRepo, markdown.NewRenderer(), planLog)
}

func (c *Container) buildPaymentUseCases(txMgr *db.TransactionManager, publisher lifecycle.Publisher, log logger.Interface) {
	cfg := c.Config
	paymentLog := log.With("component", "collector")

	c.FindDue = paymentusecases.NewFindDueSubscriptionsUseCase(c.SubscriptionRepo, c.Clock, paymentLog)
	c.InvoiceSubscription = paymentusecases.NewInvoiceSubscriptionUseCase(
		c.SubscriptionRepo, c.PlanRepo, c.PaymentRepo, c.Provider, txMgr,
		cfg.Payment.InvoiceExpiry, c.Clock, paymentLog,
	)
	if cfg.Email.Enabled {
		c.InvoiceSubscription.SetMailer(email.NewSMTPEmailService(email.SMTPConfig{
			Host:        cfg.Email.SMTPHost,
			Port:        cfg.Email.SMTPPort,
			Username:    cfg.Email.SMTPUser,
			Password:    cfg.Email.SMTPPassword,
			FromAddress: cfg.Email.FromAddress,
			FromName:    cfg.Email.FromName,
		}))
	}

	c.RunBillingCycle = paymentusecases.NewRunBillingCycleUseCase(
		c.SubscriptionRepo, c.PlanRepo, c.Lifecycle, txMgr, c.FindDue, c.InvoiceSubscription, publisher,
		paymentusecases.BillingCycleConfig{
			BatchSize:    cfg.Billing.BatchSize,
			Workers:      cfg.Billing.Workers,
			RetryBackoff: cfg.Billing.RetryBackoff,
		},
		c.Clock, paymentLog,
	)
	c.RecordPaymentOutcome = paymentusecases.NewRecordPaymentOutcomeUseCase(
		c.PaymentRepo, c.SubscriptionRepo, c.PlanRepo, c.Lifecycle, txMgr, publisher, c.Clock, paymentLog,
	)
	c.ReconcilePendingPayments = paymentusecases.NewReconcilePendingPaymentsUseCase(
		c.PaymentRepo, c.SubscriptionRepo, c.Provider, c.RecordPaymentOutcome,
		reconcileMinAge, cfg.Billing.BatchSize, c.Clock, paymentLog,
	)
	c.ReconcilePlanCounters = paymentusecases.NewReconcilePlanCountersUseCase(c.PlanRepo, paymentLog)
	c.ListSubscriptionPayments = paymentusecases.NewListSubscriptionPaymentsUseCase(c.SubscriptionRepo, c.PaymentRepo, paymentLog)
	c.GetInvoiceQR = paymentusecases.NewGetInvoiceQRUseCase(c.PaymentRepo, qrcode.NewEncoder(), paymentLog)
}

func (c *Container) buildSubscriptionUseCases(txMgr *db.TransactionManager, publisher lifecycle.Publisher, log logger.Interface) {
	subLog := log.With("component", "subscription")

	c.CreateSubscription = subusecases.NewCreateSubscriptionUseCase(c.PlanRepo, c.Lifecycle, txMgr, publisher, c.Clock, subLog)
	c.GetSubscription = subusecases.NewGetSubscriptionUseCase(c.SubscriptionRepo, subLog)
	c.ListSubscriptions = subusecases.NewListSubscriptionsUseCase(c.SubscriptionRepo, subLog)
	c.ListPlanSubscriptions = subusecases.NewListPlanSubscriptionsUseCase(c.PlanRepo, c.SubscriptionRepo, subLog)
	c.CancelSubscription = subusecases.NewCancelSubscriptionUseCase(
		c.SubscriptionRepo, c.PlanRepo, c.Lifecycle, txMgr, publisher, c.Audit, c.Clock, subLog,
	)
	c.PublicSubscribe = subusecases.NewPublicSubscribeUseCase(
		c.PlanRepo, c.Lifecycle, txMgr, c.InvoiceSubscription, publisher, c.Clock, subLog,
	)
}

// PublicRateLimiter returns the limiter for public routes: Redis backed when
// Redis is enabled, otherwise in process.
func (c *Container) PublicRateLimiter() ratelimit.Limiter {
	limitCfg := ratelimit.Config{
		Limit:  c.Config.RateLimit.PublicRequestsPerMinute,
		Window: time.Minute,
		Burst:  c.Config.RateLimit.Burst,
	}
	if c.Redis != nil {
		return ratelimit.NewRedisLimiter(c.Redis, "public", limitCfg)
	}
	if c.memoryLimiter == nil {
		c.memoryLimiter = ratelimit.NewMemoryLimiter(limitCfg)
	}
	return c.memoryLimiter
}

// Close waits for in-flight webhook deliveries and releases connections.
// The database is owned by the caller.
func (c *Container) Close() error {
	if c.webhooks != nil {
		c.webhooks.Wait()
	}
	if c.memoryLimiter != nil {
		c.memoryLimiter.Stop()
	}
	if c.Redis != nil {
		return c.Redis.Close()
	}
	return nil
}
