package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sergiofdezfernandez/housing-rental-backend/internal/commands"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "rental",
		Short:        "Property rental ledger with escrow",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		commands.MigrateCmd(),
		commands.PropertyCmd(),
		commands.LeaseCmd(),
		commands.BalanceCmd(),
		commands.EventsCmd(),
		commands.SnapshotCmd(),
		commands.ServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
