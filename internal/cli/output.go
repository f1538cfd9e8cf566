package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/eshaffer321/closeready/internal/application/service"
	"github.com/eshaffer321/closeready/internal/domain/exceptions"
	"github.com/eshaffer321/closeready/internal/domain/matcher"
	"github.com/eshaffer321/closeready/internal/domain/money"
	"github.com/eshaffer321/closeready/internal/domain/recon"
	"github.com/eshaffer321/closeready/internal/infrastructure/storage"
)

// PrintHeader prints the application header
func PrintHeader(w io.Writer, orgID, period string) {
	fmt.Fprintf(w, "closeready: %s %s\n", orgID, period)
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintResult prints the match summary, readiness factors and exceptions of
// one reconciliation.
func PrintResult(w io.Writer, res *service.Result) {
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Run %s\n", res.Run.ID)
	summary := matcher.Summarize(res.Match)
	fmt.Fprintf(w, "Payouts=%d Deposits=%d Matched=%d (within tolerance %d, total delta %s) UnmatchedPayouts=%d UnmatchedDeposits=%d\n",
		summary.Payouts,
		summary.Deposits,
		summary.Matched,
		summary.WithinTolerance,
		money.Format(summary.TotalDeltaCents),
		summary.UnmatchedPayouts,
		summary.UnmatchedDeposits)

	PrintReport(w, res.Report)

	if len(res.Exceptions) > 0 {
		fmt.Fprintln(w, "\nExceptions:")
		PrintExceptions(w, res.Exceptions)
	}

	fmt.Fprintf(w, "\nSignals: open=%d max_delta=%s tier=%s\n",
		res.Signals.MismatchCount,
		money.Format(res.Signals.MaxDeltaCents),
		res.Tier)
}

// PrintReport prints the readiness score and each factor.
func PrintReport(w io.Writer, report recon.CloseReadinessReport) {
	verdict := "NOT READY"
	if report.Ready {
		verdict = "READY"
	}
	fmt.Fprintf(w, "Close readiness: %d/%d (%d%%) %s\n", report.Score, report.MaxScore, report.Percentage, verdict)
	for _, f := range report.Factors {
		fmt.Fprintf(w, "  [%-4s] %-26s %2d/%-2d %s\n", strings.ToUpper(string(f.Status)), f.Name, f.Score, f.MaxScore, f.Detail)
	}
}

// PrintExceptions prints one line per exception followed by open counts.
func PrintExceptions(w io.Writer, exs []recon.Exception) {
	for _, e := range exs {
		fmt.Fprintf(w, "  %s %-8s %-13s %-22s %s\n", e.ID, e.Severity, e.Status, e.Type, e.Description)
	}
	counts := exceptions.CountBySeverity(exs)
	fmt.Fprintf(w, "  Open: critical=%d warning=%d info=%d\n",
		counts[recon.SeverityCritical], counts[recon.SeverityWarning], counts[recon.SeverityInfo])
}

// PrintRuns prints stored runs, one per line.
func PrintRuns(w io.Writer, runs []*storage.Run) {
	for _, r := range runs {
		fmt.Fprintf(w, "%s %s %s %-9s %3d%% ready=%t exceptions=%d tier=%s\n",
			r.ID, r.OrgID, r.PeriodLabel, r.Status, r.Percentage, r.Ready, r.ExceptionCount, r.AlertTier)
	}
}

// PrintBatchSummary prints one line per batch item and returns the number of
// failed items.
func PrintBatchSummary(w io.Writer, items []service.BatchItem) int {
	failed := 0
	for _, item := range items {
		if item.Error != "" {
			failed++
			fmt.Fprintf(w, "%s %s FAILED: %s\n", item.Request.OrgID, item.Request.Period, item.Error)
			continue
		}
		r := item.Result
		fmt.Fprintf(w, "%s %s %d%% ready=%t exceptions=%d tier=%s\n",
			item.Request.OrgID, item.Request.Period, r.Report.Percentage, r.Report.Ready, len(r.Exceptions), r.Tier)
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Summary: Reconciled=%d Failed=%d\n", len(items)-failed, failed)
	return failed
}
