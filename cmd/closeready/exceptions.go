package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/closeready/internal/cli"
	"github.com/eshaffer321/closeready/internal/domain/recon"
	"github.com/eshaffer321/closeready/internal/infrastructure/storage"
)

func exceptionsCmd() *cobra.Command {
	var (
		status   string
		severity string
		exType   string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "exceptions <org> [period]",
		Short: "List stored exceptions",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.NewApp(globals)
			if err != nil {
				return err
			}
			defer app.Close()

			filters := storage.ExceptionFilters{
				OrgID:    args[0],
				Status:   recon.ExceptionStatus(status),
				Severity: recon.Severity(severity),
				Type:     recon.ExceptionType(exType),
			}
			if len(args) == 2 {
				filters.PeriodLabel = args[1]
			}

			exs, err := app.Service.ListExceptions(cmd.Context(), filters)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return cli.PrintJSON(out, exs)
			}
			if len(exs) == 0 {
				fmt.Fprintln(out, "no exceptions")
				return nil
			}
			cli.PrintExceptions(out, exs)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (open, investigating, resolved, waived)")
	cmd.Flags().StringVar(&severity, "severity", "", "filter by severity (info, warning, critical)")
	cmd.Flags().StringVar(&exType, "type", "", "filter by exception type, e.g. missing-qbo-deposit")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")

	cmd.AddCommand(resolveCmd())

	return cmd
}

func resolveCmd() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "set-status <org> <exception-id> <status>",
		Short: "Move an exception to investigating, resolved, waived or open",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.NewApp(globals)
			if err != nil {
				return err
			}
			defer app.Close()

			updated, err := app.Service.UpdateExceptionStatus(cmd.Context(), args[0], args[1], recon.ExceptionStatus(args[2]), notes)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", updated.ID, updated.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "resolution notes")

	return cmd
}
