package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"

	"github.com/orris-inc/lnsubs/internal/app"
	"github.com/orris-inc/lnsubs/internal/infrastructure/database"
	"github.com/orris-inc/lnsubs/internal/infrastructure/migration"
	"github.com/orris-inc/lnsubs/internal/infrastructure/scheduler"
	"github.com/orris-inc/lnsubs/internal/interfaces/cli"
	httpRouter "github.com/orris-inc/lnsubs/internal/interfaces/http"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

// schedulerLockTTL bounds how long a crashed instance can hold a job lock.
const schedulerLockTTL = 10 * time.Minute

var (
	env           string
	skipMigration bool
	noScheduler   bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the lnsubs HTTP API together with the recurring billing scheduler.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&skipMigration, "skip-migration", false, "Skip database migrations on startup")
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "Serve HTTP only, without running billing jobs")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, log, err := cli.Bootstrap(env)
	if err != nil {
		return err
	}
	defer database.Close()

	log.Infow("starting server",
		"environment", env,
		"version", httpRouter.Version,
		"mode", cfg.Server.Mode,
	)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	if skipMigration {
		log.Infow("skipping database migration")
	} else {
		manager := migration.NewManager(cfg.Server.Mode, cfg.Database.Driver, log)
		if err := manager.Migrate(database.Get()); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	container, err := app.New(cfg, database.Get(), log)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Errorw("failed to close application", "error", err)
		}
	}()

	router, err := httpRouter.NewRouter(container, log)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}
	router.SetupRoutes()

	var jobs *scheduler.SchedulerManager
	if !noScheduler {
		jobs, err = newScheduler(container, log)
		if err != nil {
			return fmt.Errorf("failed to set up scheduler: %w", err)
		}
		jobs.Start()
		defer func() {
			if err := jobs.Stop(); err != nil {
				log.Errorw("failed to stop scheduler", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infow("server listening", "address", cfg.Server.GetAddr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	log.Infow("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

func newScheduler(c *app.Container, log logger.Interface) (*scheduler.SchedulerManager, error) {
	var locker gocron.Locker
	if c.Redis != nil {
		locker = scheduler.NewRedisLocker(c.Redis, schedulerLockTTL)
	}

	manager, err := scheduler.NewSchedulerManager(locker, log)
	if err != nil {
		return nil, err
	}

	billing := c.Config.Billing
	err = manager.RegisterBillingJobs(
		scheduler.Intervals{
			BillingCycle:     billing.ScanInterval,
			PaymentReconcile: billing.ReconcileInterval,
			CounterReconcile: billing.CounterCheckPeriod,
		},
		scheduler.BatchJobFunc(func(ctx context.Context) (int, error) {
			result, err := c.RunBillingCycle.Execute(ctx)
			if err != nil {
				return 0, err
			}
			return result.Issued, nil
		}),
		scheduler.BatchJobFunc(func(ctx context.Context) (int, error) {
			result, err := c.ReconcilePendingPayments.Execute(ctx)
			if err != nil {
				return 0, err
			}
			return result.Paid + result.Failed, nil
		}),
		scheduler.BatchJobFunc(c.ReconcilePlanCounters.Execute),
	)
	if err != nil {
		return nil, err
	}
	return manager, nil
}
