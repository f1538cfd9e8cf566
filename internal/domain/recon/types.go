// Package recon defines the data model shared by the reconciliation engine:
// processor payouts, ledger deposits, match results, exceptions and the
// close readiness report.
//
// Every amount is an integer number of cents. Nothing in this package or
// the engine packages built on it uses floating point for money.
package recon

import "time"

// Payout is a funds transfer from the payment processor to the merchant's bank.
type Payout struct {
	ID          string    `json:"id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	ArrivalDate time.Time `json:"arrival_date"`
	Status      string    `json:"status"`
}

// Deposit is the bank deposit recorded in the accounting ledger.
type Deposit struct {
	ID          string    `json:"id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	TxnDate     time.Time `json:"txn_date"`
	Memo        string    `json:"memo,omitempty"`
}

// MatchedPair is a payout paired with the deposit the matcher chose for it.
type MatchedPair struct {
	Payout          Payout  `json:"payout"`
	Deposit         Deposit `json:"deposit"`
	DeltaCents      int64   `json:"delta_cents"` // Absolute difference
	WithinTolerance bool    `json:"within_tolerance"`
}

// MatchResult is the output of one matcher run.
//
// Invariants:
//   - a deposit appears in at most one matched pair
//   - len(Matched) + len(UnmatchedPayouts) == number of payouts
//   - len(Matched) + len(UnmatchedDeposits) == number of deposits
type MatchResult struct {
	Matched           []MatchedPair `json:"matched"`
	UnmatchedPayouts  []Payout      `json:"unmatched_payouts"`
	UnmatchedDeposits []Deposit     `json:"unmatched_deposits"`
}

// NewMatchResult returns a result with empty (non-nil) slices so that it
// serializes as [] rather than null.
func NewMatchResult() *MatchResult {
	return &MatchResult{
		Matched:           make([]MatchedPair, 0),
		UnmatchedPayouts:  make([]Payout, 0),
		UnmatchedDeposits: make([]Deposit, 0),
	}
}

// WithinToleranceCount returns how many matched pairs are within tolerance.
func (r *MatchResult) WithinToleranceCount() int {
	n := 0
	for _, m := range r.Matched {
		if m.WithinTolerance {
			n++
		}
	}
	return n
}

// TotalPayouts returns the number of payouts the result was computed from.
func (r *MatchResult) TotalPayouts() int {
	return len(r.Matched) + len(r.UnmatchedPayouts)
}

// TotalDeposits returns the number of deposits the result was computed from.
func (r *MatchResult) TotalDeposits() int {
	return len(r.Matched) + len(r.UnmatchedDeposits)
}
