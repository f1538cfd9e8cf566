// Package sources fetches payouts and ledger deposits for a reconciliation
// period. The engine never fetches anything itself; callers pick a source
// (CSV export, in-memory fixture) and hand the records over.
package sources

import (
	"context"

	"github.com/eshaffer321/closeready/internal/domain/recon"
)

// FetchOptions scopes a fetch to one org and period
type FetchOptions struct {
	OrgID  string
	Period recon.Period
}

// PayoutSource is the interface that payout providers must implement
type PayoutSource interface {
	// Name identifies the source in logs ("csv", "memory")
	Name() string

	// FetchPayouts returns the payouts that arrived within the period
	FetchPayouts(ctx context.Context, opts FetchOptions) ([]recon.Payout, error)
}

// DepositSource is the interface that ledger deposit providers must implement
type DepositSource interface {
	// Name identifies the source in logs
	Name() string

	// FetchDeposits returns the ledger deposits dated within the period
	FetchDeposits(ctx context.Context, opts FetchOptions) ([]recon.Deposit, error)
}
