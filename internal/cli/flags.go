package cli

import (
	"fmt"
	"strings"

	"github.com/eshaffer321/closeready/internal/application/service"
	"github.com/eshaffer321/closeready/internal/infrastructure/config"
)

// GlobalFlags are the flags shared by every command. Empty values leave the
// loaded configuration untouched.
type GlobalFlags struct {
	ConfigPath   string
	DatabasePath string
	PayoutsCSV   string
	DepositsCSV  string
	Verbose      bool
	NoStore      bool
}

func (f GlobalFlags) apply(cfg *config.Config) {
	if f.DatabasePath != "" {
		cfg.Storage.DatabasePath = f.DatabasePath
	}
	if f.PayoutsCSV != "" {
		cfg.Sources.PayoutsCSV = f.PayoutsCSV
	}
	if f.DepositsCSV != "" {
		cfg.Sources.DepositsCSV = f.DepositsCSV
	}
	if f.Verbose {
		cfg.Observability.Logging.Level = "debug"
	}
}

// ParseTargets turns "org:period" arguments into reconciliation requests.
func ParseTargets(args []string, reportsGenerated bool) ([]service.Request, error) {
	reqs := make([]service.Request, 0, len(args))
	for _, arg := range args {
		org, period, ok := strings.Cut(arg, ":")
		if !ok || org == "" || period == "" {
			return nil, fmt.Errorf("invalid target %q: expected org:period", arg)
		}
		reqs = append(reqs, service.Request{
			OrgID:            org,
			Period:           period,
			ReportsGenerated: reportsGenerated,
		})
	}
	return reqs, nil
}
