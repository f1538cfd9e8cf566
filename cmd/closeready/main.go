package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/eshaffer321/closeready/internal/cli"
)

var Version = "dev"

var globals cli.GlobalFlags

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "closeready",
		Short:         "Reconcile processor payouts against ledger deposits and score close readiness",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&globals.ConfigPath, "config", "c", "", "config file (default config.yaml, then environment)")
	flags.StringVar(&globals.DatabasePath, "db", "", "SQLite database path")
	flags.StringVar(&globals.PayoutsCSV, "payouts", "", "payout export CSV")
	flags.StringVar(&globals.DepositsCSV, "deposits", "", "deposit export CSV")
	flags.BoolVarP(&globals.Verbose, "verbose", "v", false, "debug logging")
	flags.BoolVar(&globals.NoStore, "no-store", false, "do not persist runs")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(exceptionsCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "closeready", Version)
		},
	}
}
