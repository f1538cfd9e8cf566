// Package matcher pairs payment processor payouts with accounting ledger
// deposits.
//
// Matching is greedy and order dependent:
//   - payouts are visited in ascending calendar arrival date; time of day is
//     ignored and input order decides between payouts on the same date
//   - a deposit is a candidate if it is unconsumed, has the same currency and
//     is dated within DateWindowDays of the payout's arrival
//   - the candidate with the smallest absolute amount difference wins, ties
//     going to the deposit that appears first in the input slice
//
// This is not a minimum-cost bipartite matching. Two payouts arriving close
// together can take each other's best deposit, and exception severity and
// readiness scoring are calibrated to this behavior. Each call is O(P*D);
// bucket deposits by currency and date before using this on large streams.
//
// Example usage:
//
//	result, err := matcher.Match(payouts, deposits, recon.DefaultConfig())
//	if err != nil {
//		// malformed input, err is a *validator.ValidationError
//	}
//	for _, pair := range result.Matched {
//		fmt.Println(pair.Payout.ID, pair.Deposit.ID, pair.DeltaCents)
//	}
package matcher

import (
	"slices"
	"strings"
	"time"

	"github.com/eshaffer321/closeready/internal/domain/recon"
	"github.com/eshaffer321/closeready/internal/domain/validator"
)

// DateWindowDays is the maximum distance in calendar days between a payout's
// arrival date and a candidate deposit's transaction date.
const DateWindowDays = 3

// Match runs the greedy matcher over one period's payouts and deposits.
// Inputs are not modified. Malformed input fails fast with a
// *validator.ValidationError.
func Match(payouts []recon.Payout, deposits []recon.Deposit, cfg recon.Config) (*recon.MatchResult, error) {
	if err := validator.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if err := validator.ValidatePayouts(payouts); err != nil {
		return nil, err
	}
	if err := validator.ValidateDeposits(deposits); err != nil {
		return nil, err
	}

	ordered := slices.Clone(payouts)
	slices.SortStableFunc(ordered, func(a, b recon.Payout) int {
		return dateOf(a.ArrivalDate).Compare(dateOf(b.ArrivalDate))
	})

	result := recon.NewMatchResult()
	consumed := make([]bool, len(deposits))

	for _, payout := range ordered {
		idx := FindDeposit(payout, deposits, consumed)
		if idx < 0 {
			result.UnmatchedPayouts = append(result.UnmatchedPayouts, payout)
			continue
		}

		consumed[idx] = true
		delta := absDiff(payout.AmountCents, deposits[idx].AmountCents)
		result.Matched = append(result.Matched, recon.MatchedPair{
			Payout:          payout,
			Deposit:         deposits[idx],
			DeltaCents:      delta,
			WithinTolerance: delta <= cfg.ToleranceCents,
		})
	}

	for i, deposit := range deposits {
		if !consumed[i] {
			result.UnmatchedDeposits = append(result.UnmatchedDeposits, deposit)
		}
	}

	return result, nil
}

// FindDeposit returns the index of the best unconsumed deposit for payout,
// or -1 when no deposit qualifies. consumed must be the same length as
// deposits.
func FindDeposit(payout recon.Payout, deposits []recon.Deposit, consumed []bool) int {
	best := -1
	var bestDiff int64

	for i, deposit := range deposits {
		if consumed[i] {
			continue
		}
		if !strings.EqualFold(payout.Currency, deposit.Currency) {
			continue
		}
		if DayDistance(payout.ArrivalDate, deposit.TxnDate) > DateWindowDays {
			continue
		}

		// Strict < keeps the first occurrence on ties
		diff := absDiff(payout.AmountCents, deposit.AmountCents)
		if best < 0 || diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}

	return best
}

// DayDistance returns the absolute number of calendar days between a and b.
// Each time is reduced to its calendar date in its own location first, so
// time-of-day never affects the result.
func DayDistance(a, b time.Time) int {
	da := dateOf(a)
	db := dateOf(b)
	days := int(da.Sub(db).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
