// Package clients assembles the payout and deposit sources named in config.
package clients

import (
	"errors"

	"github.com/eshaffer321/closeready/internal/adapters/sources"
	"github.com/eshaffer321/closeready/internal/infrastructure/config"
)

// ErrNoSources is returned when config names no payout or deposit export.
var ErrNoSources = errors.New("sources.payouts_csv and sources.deposits_csv must both be set")

type Clients struct {
	Payouts  sources.PayoutSource
	Deposits sources.DepositSource
}

func NewClients(cfg *config.Config) (*Clients, error) {
	if cfg.Sources.PayoutsCSV == "" || cfg.Sources.DepositsCSV == "" {
		return nil, ErrNoSources
	}

	return &Clients{
		Payouts:  sources.NewCSVPayoutSource(cfg.Sources.PayoutsCSV),
		Deposits: sources.NewCSVDepositSource(cfg.Sources.DepositsCSV),
	}, nil
}
