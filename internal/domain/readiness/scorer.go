// Package readiness computes the weighted close readiness score that gates
// whether a financial period may be closed.
//
// Five factors sum to a 100 point maximum:
//
//	payout-matching          30  share of payouts matched to a deposit
//	tolerance-compliance     20  share of matched pairs within tolerance
//	no-critical-exceptions   20  minus 5 per open critical exception
//	stripe-reports-generated 15  binary, supplied by the caller
//	no-stale-items           15  binary, no open item older than the limit
//
// Example usage:
//
//	report := readiness.Compute(orgID, "2026-02", result, exs, cfg, readiness.Options{
//		ReportsGenerated: true,
//	})
//	if !report.Ready {
//		// block the close
//	}
package readiness

import (
	"fmt"
	"math"
	"time"

	"github.com/eshaffer321/closeready/internal/domain/recon"
)

// Factor names.
const (
	FactorPayoutMatching         = "payout-matching"
	FactorToleranceCompliance    = "tolerance-compliance"
	FactorNoCriticalExceptions   = "no-critical-exceptions"
	FactorStripeReportsGenerated = "stripe-reports-generated"
	FactorNoStaleItems           = "no-stale-items"
)

// Factor weights and status thresholds.
const (
	MaxScore = 100

	PayoutMatchingMax  = 30
	PayoutMatchingPass = 27
	PayoutMatchingWarn = 20

	ToleranceComplianceMax  = 20
	ToleranceCompliancePass = 18
	ToleranceComplianceWarn = 14

	NoCriticalMax      = 20
	NoCriticalWarn     = 10
	PenaltyPerCritical = 5

	ReportsGeneratedMax = 15
	NoStaleItemsMax     = 15
)

// Options carries inputs the engine cannot derive itself.
type Options struct {
	// ReportsGenerated reports whether the processor's period reports exist.
	ReportsGenerated bool
	// Now is the reference time for staleness. Zero means time.Now().
	Now time.Time
}

// Compute scores one (org, period). It never mutates its inputs; the
// returned report carries the exceptions slice it was given.
func Compute(
	orgID, periodLabel string,
	result *recon.MatchResult,
	exceptions []recon.Exception,
	cfg recon.Config,
	opts Options,
) recon.CloseReadinessReport {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	if result == nil {
		result = recon.NewMatchResult()
	}
	if exceptions == nil {
		exceptions = []recon.Exception{}
	}

	factors := []recon.Factor{
		payoutMatching(result),
		toleranceCompliance(result),
		noCriticalExceptions(exceptions),
		reportsGenerated(opts.ReportsGenerated),
		noStaleItems(exceptions, cfg.MaxUnreconciledDays, now),
	}

	score := 0
	for _, f := range factors {
		score += f.Score
	}
	percentage := int(math.Round(float64(score) / MaxScore * 100))

	return recon.CloseReadinessReport{
		OrgID:       orgID,
		PeriodLabel: periodLabel,
		Score:       score,
		MaxScore:    MaxScore,
		Percentage:  percentage,
		Ready:       percentage >= cfg.MinCloseReadinessScorePercent,
		Factors:     factors,
		Exceptions:  exceptions,
		GeneratedAt: now,
	}
}

// ratio returns num/den, or 1 when there is nothing to measure.
func ratio(num, den int) float64 {
	if den == 0 {
		return 1
	}
	return float64(num) / float64(den)
}

func scaled(r float64, weight int) int {
	return int(math.Round(r * float64(weight)))
}

func grade(score, pass, warn int) recon.FactorStatus {
	switch {
	case score >= pass:
		return recon.FactorPass
	case score >= warn:
		return recon.FactorWarn
	default:
		return recon.FactorFail
	}
}

func payoutMatching(r *recon.MatchResult) recon.Factor {
	total := r.TotalPayouts()
	score := scaled(ratio(len(r.Matched), total), PayoutMatchingMax)
	return recon.Factor{
		Name:     FactorPayoutMatching,
		Score:    score,
		MaxScore: PayoutMatchingMax,
		Status:   grade(score, PayoutMatchingPass, PayoutMatchingWarn),
		Detail:   fmt.Sprintf("%d of %d payouts matched to a deposit", len(r.Matched), total),
	}
}

func toleranceCompliance(r *recon.MatchResult) recon.Factor {
	within := r.WithinToleranceCount()
	score := scaled(ratio(within, len(r.Matched)), ToleranceComplianceMax)
	return recon.Factor{
		Name:     FactorToleranceCompliance,
		Score:    score,
		MaxScore: ToleranceComplianceMax,
		Status:   grade(score, ToleranceCompliancePass, ToleranceComplianceWarn),
		Detail:   fmt.Sprintf("%d of %d matched pairs within tolerance", within, len(r.Matched)),
	}
}

func noCriticalExceptions(exceptions []recon.Exception) recon.Factor {
	critical := 0
	for _, e := range exceptions {
		if e.IsOpen() && e.Severity == recon.SeverityCritical {
			critical++
		}
	}
	score := max(0, NoCriticalMax-PenaltyPerCritical*critical)
	return recon.Factor{
		Name:     FactorNoCriticalExceptions,
		Score:    score,
		MaxScore: NoCriticalMax,
		Status:   grade(score, NoCriticalMax, NoCriticalWarn),
		Detail:   fmt.Sprintf("%d open critical exceptions", critical),
	}
}

func reportsGenerated(generated bool) recon.Factor {
	f := recon.Factor{
		Name:     FactorStripeReportsGenerated,
		MaxScore: ReportsGeneratedMax,
		Status:   recon.FactorFail,
		Detail:   "processor reports not generated",
	}
	if generated {
		f.Score = ReportsGeneratedMax
		f.Status = recon.FactorPass
		f.Detail = "processor reports generated"
	}
	return f
}

func noStaleItems(exceptions []recon.Exception, maxDays int, now time.Time) recon.Factor {
	limit := time.Duration(maxDays) * 24 * time.Hour
	stale := 0
	for _, e := range exceptions {
		if e.IsOpen() && now.Sub(e.DetectedAt) > limit {
			stale++
		}
	}

	f := recon.Factor{
		Name:     FactorNoStaleItems,
		MaxScore: NoStaleItemsMax,
		Status:   recon.FactorFail,
		Detail:   fmt.Sprintf("%d open items older than %d days", stale, maxDays),
	}
	if stale == 0 {
		f.Score = NoStaleItemsMax
		f.Status = recon.FactorPass
	}
	return f
}
