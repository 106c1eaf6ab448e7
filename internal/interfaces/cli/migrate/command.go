package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orris-inc/lnsubs/internal/infrastructure/config"
	"github.com/orris-inc/lnsubs/internal/infrastructure/database"
	"github.com/orris-inc/lnsubs/internal/infrastructure/migration"
	"github.com/orris-inc/lnsubs/internal/interfaces/cli"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

const defaultScriptsDir = "./internal/infrastructure/migration/scripts"

var (
	env        string
	name       string
	scriptsDir string
	steps      int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Manage database migrations including running migrations, checking status, and creating new migration files.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
		newCreateCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		Long:  `Apply all pending database migrations to bring the database schema up to date.`,
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		Long:  `Rollback a specified number of database migrations.`,
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Long:  `Display the current migration version and status of the database.`,
		RunE:  runStatus,
	}
}

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new migration",
		Long:  `Create a new SQL migration file for the configured database driver.`,
		RunE:  runCreate,
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Name of the migration (required)")
	cmd.Flags().StringVar(&scriptsDir, "dir", defaultScriptsDir, "Migration scripts source directory")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func openStrategy() (*migration.GooseStrategy, logger.Interface, error) {
	cfg, log, err := cli.Bootstrap(env)
	if err != nil {
		return nil, nil, err
	}
	return migration.NewGooseStrategy(cfg.Database.Driver, log), log, nil
}

func runUp(cmd *cobra.Command, args []string) error {
	strategy, log, err := openStrategy()
	if err != nil {
		return err
	}
	defer database.Close()

	log.Infow("running up migrations", "environment", env)

	if err := strategy.Migrate(database.Get()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Infow("migrations completed successfully")
	return nil
}

func runDown(cmd *cobra.Command, args []string) error {
	if steps < 1 {
		return fmt.Errorf("steps must be at least 1")
	}

	strategy, log, err := openStrategy()
	if err != nil {
		return err
	}
	defer database.Close()

	log.Infow("running down migrations", "environment", env, "steps", steps)

	if err := strategy.MigrateDown(database.Get(), steps); err != nil {
		return fmt.Errorf("down migration failed: %w", err)
	}

	log.Infow("down migration completed successfully")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	strategy, _, err := openStrategy()
	if err != nil {
		return err
	}
	defer database.Close()

	version, err := strategy.GetVersion(database.Get())
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nMigration Status:\n")
	fmt.Fprintf(out, "  Environment:     %s\n", env)
	fmt.Fprintf(out, "  Current Version: %d\n", version)

	return strategy.Status(database.Get())
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(&cfg.Logger, cli.GinMode(env)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	strategy := migration.NewGooseStrategy(cfg.Database.Driver, logger.NewLogger())
	if err := strategy.Create(scriptsDir, name); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Migration '%s' created for %s\n", name, cfg.Database.Driver)
	return nil
}
