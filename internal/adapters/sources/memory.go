package sources

import (
	"context"
	"slices"
	"sync"

	"github.com/eshaffer321/closeready/internal/domain/recon"
)

// MemorySource serves payouts and deposits held in memory, keyed by org.
// It implements both PayoutSource and DepositSource.
type MemorySource struct {
	mu       sync.RWMutex
	payouts  map[string][]recon.Payout
	deposits map[string][]recon.Deposit

	// Error injection for testing error paths
	PayoutsErr  error
	DepositsErr error
}

var (
	_ PayoutSource  = (*MemorySource)(nil)
	_ DepositSource = (*MemorySource)(nil)
)

// NewMemorySource creates an empty in-memory source
func NewMemorySource() *MemorySource {
	return &MemorySource{
		payouts:  make(map[string][]recon.Payout),
		deposits: make(map[string][]recon.Deposit),
	}
}

// Name returns "memory"
func (m *MemorySource) Name() string { return "memory" }

// AddPayouts appends payouts for an org
func (m *MemorySource) AddPayouts(orgID string, payouts ...recon.Payout) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payouts[orgID] = append(m.payouts[orgID], payouts...)
}

// AddDeposits appends deposits for an org
func (m *MemorySource) AddDeposits(orgID string, deposits ...recon.Deposit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deposits[orgID] = append(m.deposits[orgID], deposits...)
}

// FetchPayouts returns a copy of the org's payouts in the period
func (m *MemorySource) FetchPayouts(ctx context.Context, opts FetchOptions) ([]recon.Payout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.PayoutsErr != nil {
		return nil, m.PayoutsErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]recon.Payout, 0)
	for _, p := range m.payouts[opts.OrgID] {
		if opts.Period.Start.IsZero() || opts.Period.Contains(p.ArrivalDate) {
			out = append(out, p)
		}
	}
	return slices.Clip(out), nil
}

// FetchDeposits returns a copy of the org's deposits in the period
func (m *MemorySource) FetchDeposits(ctx context.Context, opts FetchOptions) ([]recon.Deposit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.DepositsErr != nil {
		return nil, m.DepositsErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]recon.Deposit, 0)
	for _, d := range m.deposits[opts.OrgID] {
		if opts.Period.Start.IsZero() || opts.Period.Contains(d.TxnDate) {
			out = append(out, d)
		}
	}
	return slices.Clip(out), nil
}
