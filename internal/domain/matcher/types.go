package matcher

import "github.com/eshaffer321/closeready/internal/domain/recon"

// Summary condenses a match result for logging and run records.
type Summary struct {
	Payouts           int
	Deposits          int
	Matched           int
	WithinTolerance   int
	UnmatchedPayouts  int
	UnmatchedDeposits int
	TotalDeltaCents   int64 // Sum of deltas over matched pairs
}

// Summarize computes a Summary from a match result.
func Summarize(r *recon.MatchResult) Summary {
	s := Summary{
		Payouts:           r.TotalPayouts(),
		Deposits:          r.TotalDeposits(),
		Matched:           len(r.Matched),
		WithinTolerance:   r.WithinToleranceCount(),
		UnmatchedPayouts:  len(r.UnmatchedPayouts),
		UnmatchedDeposits: len(r.UnmatchedDeposits),
	}
	for _, m := range r.Matched {
		s.TotalDeltaCents += m.DeltaCents
	}
	return s
}
