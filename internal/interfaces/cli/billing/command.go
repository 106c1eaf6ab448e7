// Package billing exposes the payment collector as one-shot commands, for
// cron driven deployments and for operators inspecting the due queue.
package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/orris-inc/lnsubs/internal/app"
	"github.com/orris-inc/lnsubs/internal/infrastructure/database"
	"github.com/orris-inc/lnsubs/internal/interfaces/cli"
)

var (
	env     string
	output  string
	limit   int
	timeout time.Duration
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "billing",
		Short: "Run or inspect the billing cycle",
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&output, "output", "o", "yaml", "Output format (yaml, json)")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Abort after this long")

	cmd.AddCommand(newRunCommand(), newDueCommand())
	return cmd
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one billing cycle and one payment reconcile pass",
		RunE:  runCycle,
	}
}

func newDueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List subscriptions due for an invoice",
		RunE:  runDue,
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 100, "Maximum number of subscriptions to list")
	return cmd
}

type cycleReport struct {
	Cycle     any `json:"cycle" yaml:"cycle"`
	Reconcile any `json:"reconcile" yaml:"reconcile"`
}

func runCycle(cmd *cobra.Command, args []string) error {
	return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
		cycle, err := c.RunBillingCycle.Execute(ctx)
		if err != nil {
			return fmt.Errorf("billing cycle failed: %w", err)
		}
		reconcile, err := c.ReconcilePendingPayments.Execute(ctx)
		if err != nil {
			return fmt.Errorf("payment reconcile failed: %w", err)
		}
		return writeOutput(cmd.OutOrStdout(), output, cycleReport{Cycle: cycle, Reconcile: reconcile})
	})
}

func runDue(cmd *cobra.Command, args []string) error {
	return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
		due, err := c.FindDue.Execute(ctx, limit)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), output, due)
	})
}

func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *app.Container) error) error {
	if output != "yaml" && output != "json" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	cfg, log, err := cli.Bootstrap(env)
	if err != nil {
		return err
	}
	defer database.Close()

	container, err := app.New(cfg, database.Get(), log)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer container.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	return fn(ctx, container)
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
