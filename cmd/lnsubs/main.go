package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/orris-inc/lnsubs/internal/interfaces/cli/billing"
	"github.com/orris-inc/lnsubs/internal/interfaces/cli/migrate"
	"github.com/orris-inc/lnsubs/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lnsubs",
		Short: "lnsubs - recurring Lightning subscriptions",
		Long:  `lnsubs bills subscribers of Lightning wallets on a recurring schedule: plans, subscriptions and invoice collection behind one HTTP API.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		billing.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
