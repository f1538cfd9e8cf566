package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/closeready/internal/application/service"
	"github.com/eshaffer321/closeready/internal/cli"
)

func runCmd() *cobra.Command {
	var (
		reportsGenerated bool
		asJSON           bool
		failNotReady     bool
	)

	cmd := &cobra.Command{
		Use:   "run <org> <period>",
		Short: "Reconcile one org and period",
		Long: `Reconcile one org and period and print the close readiness report.

Examples:
  closeready run org_1 2026-02 --payouts payouts.csv --deposits deposits.csv --reports
  closeready run org_1 2026-Q1 --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.NewApp(globals)
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.Service.Reconcile(cmd.Context(), service.Request{
				OrgID:            args[0],
				Period:           args[1],
				ReportsGenerated: reportsGenerated,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := cli.PrintJSON(out, res); err != nil {
					return err
				}
			} else {
				cli.PrintHeader(out, args[0], args[1])
				cli.PrintResult(out, res)
			}

			if failNotReady && !res.Report.Ready {
				return fmt.Errorf("period %s is not ready to close (%d%%)", args[1], res.Report.Percentage)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reportsGenerated, "reports", false, "processor reports for the period have been generated")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	cmd.Flags().BoolVar(&failNotReady, "fail-not-ready", false, "exit non-zero when the period is not ready to close")

	return cmd
}

func batchCmd() *cobra.Command {
	var (
		reportsGenerated bool
		asJSON           bool
		parallel         int
	)

	cmd := &cobra.Command{
		Use:   "batch <org:period>...",
		Short: "Reconcile several org and period pairs in parallel",
		Long: `Reconcile several org and period pairs in parallel.

Examples:
  closeready batch org_1:2026-02 org_2:2026-02 --parallel 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs, err := cli.ParseTargets(args, reportsGenerated)
			if err != nil {
				return err
			}

			app, err := cli.NewApp(globals)
			if err != nil {
				return err
			}
			defer app.Close()

			if parallel > 0 {
				app.Config.Workers.MaxParallel = parallel
			}

			items, err := app.Service.ReconcileBatch(cmd.Context(), reqs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return cli.PrintJSON(out, items)
			}
			if failed := cli.PrintBatchSummary(out, items); failed > 0 {
				return fmt.Errorf("%d of %d reconciliations failed", failed, len(items))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reportsGenerated, "reports", false, "processor reports have been generated for every period")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 0, "maximum concurrent reconciliations (default workers.max_parallel)")

	return cmd
}
