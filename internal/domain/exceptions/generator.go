// Package exceptions turns a match result into typed, severity-tagged
// reconciliation exceptions and derives the alert signals that downstream
// alerting keys off.
package exceptions

import (
	"fmt"
	"time"

	"github.com/eshaffer321/closeready/internal/domain/matcher"
	"github.com/eshaffer321/closeready/internal/domain/money"
	"github.com/eshaffer321/closeready/internal/domain/recon"
)

// CriticalMultiplier scales the tolerance into the critical threshold: a
// mismatch is critical only when its delta is strictly greater than
// ToleranceCents * CriticalMultiplier.
const CriticalMultiplier = 10

// Generate builds the exceptions for one (org, period) run, stamped with the
// current time.
func Generate(orgID, periodLabel string, result *recon.MatchResult, cfg recon.Config) []recon.Exception {
	return GenerateAt(orgID, periodLabel, result, cfg, time.Now().UTC())
}

// GenerateAt builds the exceptions for one run with an explicit detection
// time. Rules are applied in order and IDs are numbered from 1:
//  1. matched pairs outside tolerance -> payout-deposit-mismatch
//  2. unmatched payouts -> missing-qbo-deposit (critical)
//  3. unmatched deposits -> missing-stripe-payout (warning)
//
// A clean period yields an empty, non-nil slice.
func GenerateAt(orgID, periodLabel string, result *recon.MatchResult, cfg recon.Config, now time.Time) []recon.Exception {
	out := make([]recon.Exception, 0)
	if result == nil {
		return out
	}

	next := func() string {
		return recon.ExceptionID(periodLabel, len(out)+1)
	}

	for _, pair := range result.Matched {
		if pair.WithinTolerance {
			continue
		}
		out = append(out, recon.Exception{
			ID:                next(),
			OrgID:             orgID,
			Type:              recon.ExceptionPayoutDepositMismatch,
			Severity:          MismatchSeverity(pair.DeltaCents, cfg),
			Status:            recon.StatusOpen,
			StripeAmountCents: pair.Payout.AmountCents,
			QBOAmountCents:    pair.Deposit.AmountCents,
			DeltaCents:        pair.DeltaCents,
			Description: fmt.Sprintf(
				"Payout %s (%s) and ledger deposit %s (%s) differ by %s, over the %s tolerance",
				pair.Payout.ID, money.FormatWithCurrency(pair.Payout.AmountCents, pair.Payout.Currency),
				pair.Deposit.ID, money.FormatWithCurrency(pair.Deposit.AmountCents, pair.Deposit.Currency),
				money.FormatWithCurrency(pair.DeltaCents, pair.Payout.Currency),
				money.FormatWithCurrency(cfg.ToleranceCents, pair.Payout.Currency),
			),
			StripeRef:   pair.Payout.ID,
			QBORef:      pair.Deposit.ID,
			PeriodLabel: periodLabel,
			DetectedAt:  now,
		})
	}

	for _, p := range result.UnmatchedPayouts {
		out = append(out, recon.Exception{
			ID:                next(),
			OrgID:             orgID,
			Type:              recon.ExceptionMissingQBODeposit,
			Severity:          recon.SeverityCritical,
			Status:            recon.StatusOpen,
			StripeAmountCents: p.AmountCents,
			QBOAmountCents:    0,
			DeltaCents:        p.AmountCents,
			Description: fmt.Sprintf(
				"Payout %s (%s) arrived %s with no ledger deposit within %d days (ledger %s, delta %s)",
				p.ID, money.FormatWithCurrency(p.AmountCents, p.Currency),
				p.ArrivalDate.Format(time.DateOnly), matcher.DateWindowDays,
				money.FormatWithCurrency(0, p.Currency),
				money.FormatWithCurrency(p.AmountCents, p.Currency),
			),
			StripeRef:   p.ID,
			PeriodLabel: periodLabel,
			DetectedAt:  now,
		})
	}

	for _, d := range result.UnmatchedDeposits {
		out = append(out, recon.Exception{
			ID:                next(),
			OrgID:             orgID,
			Type:              recon.ExceptionMissingStripePayout,
			Severity:          recon.SeverityWarning,
			Status:            recon.StatusOpen,
			StripeAmountCents: 0,
			QBOAmountCents:    d.AmountCents,
			DeltaCents:        d.AmountCents,
			Description: fmt.Sprintf(
				"Ledger deposit %s (%s) dated %s has no matching processor payout (processor %s, delta %s)",
				d.ID, money.FormatWithCurrency(d.AmountCents, d.Currency),
				d.TxnDate.Format(time.DateOnly),
				money.FormatWithCurrency(0, d.Currency),
				money.FormatWithCurrency(d.AmountCents, d.Currency),
			),
			QBORef:      d.ID,
			PeriodLabel: periodLabel,
			DetectedAt:  now,
		})
	}

	return out
}

// MismatchSeverity grades an out-of-tolerance delta.
func MismatchSeverity(deltaCents int64, cfg recon.Config) recon.Severity {
	if deltaCents > cfg.ToleranceCents*CriticalMultiplier {
		return recon.SeverityCritical
	}
	return recon.SeverityWarning
}
