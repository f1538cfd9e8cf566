package storage

import (
	"errors"
	"time"

	"github.com/eshaffer321/closeready/internal/domain/recon"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// DefaultListLimit caps list queries without an explicit limit.
const DefaultListLimit = 50

// RunStatus is the lifecycle state of a reconciliation run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is one invocation of the engine for an (org, period).
type Run struct {
	ID          string     `json:"id"`
	OrgID       string     `json:"org_id"`
	PeriodLabel string     `json:"period_label"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Payouts        int  `json:"payouts"`
	Deposits       int  `json:"deposits"`
	Matched        int  `json:"matched"`
	ExceptionCount int  `json:"exception_count"`
	Score          int  `json:"score"`
	Percentage     int  `json:"percentage"`
	Ready          bool `json:"ready"`

	MismatchCount int             `json:"mismatch_count"`
	MaxDeltaCents int64           `json:"max_delta_cents"`
	AlertTier     recon.AlertTier `json:"alert_tier"`

	ErrorMessage string `json:"error_message,omitempty"`

	// Match result stored as JSON
	Match     *recon.MatchResult `json:"match,omitempty"`
	MatchJSON string             `json:"-"` // For DB storage
}
