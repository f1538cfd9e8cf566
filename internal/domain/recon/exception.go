package recon

import (
	"fmt"
	"time"
)

// ExceptionType classifies a reconciliation exception.
type ExceptionType string

const (
	ExceptionPayoutDepositMismatch ExceptionType = "payout-deposit-mismatch"
	ExceptionMissingQBODeposit     ExceptionType = "missing-qbo-deposit"
	ExceptionMissingStripePayout   ExceptionType = "missing-stripe-payout"

	// Reserved. The generator does not produce these yet.
	ExceptionRefundCreditMismatch ExceptionType = "refund-credit-mismatch"
	ExceptionFeeVariance          ExceptionType = "fee-variance"
	ExceptionTimingDifference     ExceptionType = "timing-difference"
)

// Valid reports whether t is a known exception type.
func (t ExceptionType) Valid() bool {
	switch t {
	case ExceptionPayoutDepositMismatch, ExceptionMissingQBODeposit, ExceptionMissingStripePayout,
		ExceptionRefundCreditMismatch, ExceptionFeeVariance, ExceptionTimingDifference:
		return true
	}
	return false
}

// Severity of an exception.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

// ExceptionStatus is the review state of an exception.
type ExceptionStatus string

const (
	StatusOpen          ExceptionStatus = "open"
	StatusInvestigating ExceptionStatus = "investigating"
	StatusResolved      ExceptionStatus = "resolved"
	StatusWaived        ExceptionStatus = "waived"
)

// Valid reports whether s is a known status.
func (s ExceptionStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInvestigating, StatusResolved, StatusWaived:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s ExceptionStatus) Terminal() bool {
	return s == StatusResolved || s == StatusWaived
}

// Exception is a recorded discrepancy between processor and ledger data that
// needs human review.
type Exception struct {
	ID                string          `json:"id"`
	OrgID             string          `json:"org_id"`
	Type              ExceptionType   `json:"type"`
	Severity          Severity        `json:"severity"`
	Status            ExceptionStatus `json:"status"`
	StripeAmountCents int64           `json:"stripe_amount_cents"`
	QBOAmountCents    int64           `json:"qbo_amount_cents"`
	DeltaCents        int64           `json:"delta_cents"`
	Description       string          `json:"description"`
	StripeRef         string          `json:"stripe_ref,omitempty"`
	QBORef            string          `json:"qbo_ref,omitempty"`
	PeriodLabel       string          `json:"period_label"`
	DetectedAt        time.Time       `json:"detected_at"`
	ResolvedAt        *time.Time      `json:"resolved_at,omitempty"`
	ResolutionNotes   string          `json:"resolution_notes,omitempty"`
}

// IsOpen reports whether the exception is still open.
func (e Exception) IsOpen() bool {
	return e.Status == StatusOpen
}

// Fingerprint identifies the underlying discrepancy independently of the
// sequential ID, which changes between runs.
func (e Exception) Fingerprint() string {
	return fmt.Sprintf("%s|%s|%s", e.Type, e.StripeRef, e.QBORef)
}

// ExceptionID formats the sequential exception identifier for a period.
func ExceptionID(periodLabel string, seq int) string {
	return fmt.Sprintf("RECON-%s-%03d", periodLabel, seq)
}

// AlertTier is the escalation level derived from the alert signals.
type AlertTier string

const (
	AlertNone     AlertTier = "none"
	AlertWarn     AlertTier = "warn"
	AlertEscalate AlertTier = "escalate"
)

// AlertSignals are the derived counters downstream alerting keys off.
type AlertSignals struct {
	MismatchCount int   `json:"mismatch_count"`  // Open exceptions
	MaxDeltaCents int64 `json:"max_delta_cents"` // Largest delta among open exceptions
}

// Tier maps the signals to an alert tier: warn on any open mismatch,
// escalate once the largest open delta exceeds escalateAboveCents.
func (s AlertSignals) Tier(escalateAboveCents int64) AlertTier {
	switch {
	case s.MismatchCount == 0:
		return AlertNone
	case s.MaxDeltaCents > escalateAboveCents:
		return AlertEscalate
	default:
		return AlertWarn
	}
}
