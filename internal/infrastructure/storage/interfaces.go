package storage

import (
	"context"

	"github.com/eshaffer321/closeready/internal/domain/recon"
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, in-memory)
// and makes testing with mocks straightforward.
type Repository interface {
	RunRepository
	ExceptionRepository
	ReportRepository
	Close() error
}

// RunRepository tracks reconciliation runs
type RunRepository interface {
	// StartRun records the start of a run and returns it with a fresh ID
	StartRun(ctx context.Context, orgID, periodLabel string) (*Run, error)

	// CompleteRun stores the final counts, score and signals of a run
	CompleteRun(ctx context.Context, run *Run) error

	// FailRun marks a run as failed with the given cause
	FailRun(ctx context.Context, runID string, cause error) error

	// GetRun retrieves a run by ID
	GetRun(ctx context.Context, runID string) (*Run, error)

	// ListRuns returns runs matching the filters, newest first
	ListRuns(ctx context.Context, filters RunFilters) ([]*Run, error)
}

// ExceptionRepository holds the current exception set per (org, period)
type ExceptionRepository interface {
	// ReplaceExceptions swaps the stored exceptions of a period for a new set
	ReplaceExceptions(ctx context.Context, orgID, periodLabel, runID string, exceptions []recon.Exception) error

	// ListExceptions returns exceptions matching the filters, in ID order
	ListExceptions(ctx context.Context, filters ExceptionFilters) ([]recon.Exception, error)

	// GetException retrieves one exception
	GetException(ctx context.Context, orgID, id string) (*recon.Exception, error)

	// UpdateException persists status and resolution fields
	UpdateException(ctx context.Context, e recon.Exception) error
}

// ReportRepository stores readiness reports keyed by run
type ReportRepository interface {
	// SaveReport stores the report produced by a run
	SaveReport(ctx context.Context, runID string, report *recon.CloseReadinessReport) error

	// GetReport retrieves the report of a run, without its exceptions
	GetReport(ctx context.Context, runID string) (*recon.CloseReadinessReport, error)
}

// RunFilters defines filters for listing runs
type RunFilters struct {
	OrgID       string // empty = all
	PeriodLabel string // empty = all
	Status      RunStatus
	Limit       int // 0 = default 50
	Offset      int
}

// ExceptionFilters defines filters for listing exceptions
type ExceptionFilters struct {
	OrgID       string // required
	PeriodLabel string // empty = all periods
	Status      recon.ExceptionStatus
	Severity    recon.Severity
	Type        recon.ExceptionType
}
