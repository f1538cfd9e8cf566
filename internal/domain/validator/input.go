// Package validator checks reconciliation inputs before the engine runs.
//
// Records with a missing ID, a duplicated ID, a negative amount, a
// non-ISO currency or a zero date are rejected with a *ValidationError that
// names the offending record and field. Zero amounts are accepted.
package validator

import (
	"errors"
	"fmt"

	"github.com/eshaffer321/closeready/internal/domain/recon"
)

// ErrInvalidInput is matched by every ValidationError via errors.Is.
var ErrInvalidInput = errors.New("invalid reconciliation input")

// ValidationError names the record and field that failed validation.
type ValidationError struct {
	Record string // e.g. "payout po_123" or "config"
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Record, e.Field, e.Reason)
}

// Is lets callers test errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ValidatePayouts checks every payout and fails on the first malformed record.
func ValidatePayouts(payouts []recon.Payout) error {
	seen := make(map[string]bool, len(payouts))
	for i, p := range payouts {
		record := recordName("payout", p.ID, i)
		if p.ID == "" {
			return &ValidationError{Record: record, Field: "id", Reason: "is empty"}
		}
		if seen[p.ID] {
			return &ValidationError{Record: record, Field: "id", Reason: "is duplicated"}
		}
		seen[p.ID] = true
		if p.AmountCents < 0 {
			return &ValidationError{Record: record, Field: "amount_cents", Reason: fmt.Sprintf("is negative (%d)", p.AmountCents)}
		}
		if !validCurrency(p.Currency) {
			return &ValidationError{Record: record, Field: "currency", Reason: fmt.Sprintf("%q is not an ISO 4217 code", p.Currency)}
		}
		if p.ArrivalDate.IsZero() {
			return &ValidationError{Record: record, Field: "arrival_date", Reason: "is missing"}
		}
	}
	return nil
}

// ValidateDeposits checks every deposit and fails on the first malformed record.
func ValidateDeposits(deposits []recon.Deposit) error {
	seen := make(map[string]bool, len(deposits))
	for i, d := range deposits {
		record := recordName("deposit", d.ID, i)
		if d.ID == "" {
			return &ValidationError{Record: record, Field: "id", Reason: "is empty"}
		}
		if seen[d.ID] {
			return &ValidationError{Record: record, Field: "id", Reason: "is duplicated"}
		}
		seen[d.ID] = true
		if d.AmountCents < 0 {
			return &ValidationError{Record: record, Field: "amount_cents", Reason: fmt.Sprintf("is negative (%d)", d.AmountCents)}
		}
		if !validCurrency(d.Currency) {
			return &ValidationError{Record: record, Field: "currency", Reason: fmt.Sprintf("%q is not an ISO 4217 code", d.Currency)}
		}
		if d.TxnDate.IsZero() {
			return &ValidationError{Record: record, Field: "txn_date", Reason: "is missing"}
		}
	}
	return nil
}

// ValidateConfig rejects policy values the engine cannot interpret.
func ValidateConfig(cfg recon.Config) error {
	if cfg.ToleranceCents < 0 {
		return &ValidationError{Record: "config", Field: "tolerance_cents", Reason: "is negative"}
	}
	if cfg.MaxUnreconciledDays < 0 {
		return &ValidationError{Record: "config", Field: "max_unreconciled_days", Reason: "is negative"}
	}
	if cfg.MinCloseReadinessScorePercent < 0 || cfg.MinCloseReadinessScorePercent > 100 {
		return &ValidationError{Record: "config", Field: "min_close_readiness_score_percent", Reason: "must be between 0 and 100"}
	}
	return nil
}

func recordName(kind, id string, index int) string {
	if id == "" {
		return fmt.Sprintf("%s #%d", kind, index)
	}
	return fmt.Sprintf("%s %s", kind, id)
}

func validCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
