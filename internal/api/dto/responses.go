package dto

import (
	"time"

	"github.com/eshaffer321/closeready/internal/domain/recon"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// RunResponse represents a reconciliation run in API responses.
type RunResponse struct {
	ID             string `json:"id"`
	OrgID          string `json:"org_id"`
	Period         string `json:"period"`
	Status         string `json:"status"`
	StartedAt      string `json:"started_at"`
	CompletedAt    string `json:"completed_at,omitempty"`
	Payouts        int    `json:"payouts"`
	Deposits       int    `json:"deposits"`
	Matched        int    `json:"matched"`
	ExceptionCount int    `json:"exception_count"`
	Score          int    `json:"score"`
	Percentage     int    `json:"percentage"`
	Ready          bool   `json:"ready"`
	MismatchCount  int    `json:"mismatch_count"`
	MaxDeltaCents  int64  `json:"max_delta_cents"`
	AlertTier      string `json:"alert_tier"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

// RunListResponse is returned when listing runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// ReconcileResponse is returned after a synchronous reconciliation.
type ReconcileResponse struct {
	Run        RunResponse                 `json:"run"`
	Report     *recon.CloseReadinessReport `json:"report,omitempty"`
	Match      *recon.MatchResult          `json:"match,omitempty"`
	Exceptions []recon.Exception           `json:"exceptions"`
	Signals    SignalsResponse             `json:"signals"`
}

// ExceptionListResponse is returned when listing exceptions.
type ExceptionListResponse struct {
	OrgID      string            `json:"org_id"`
	Period     string            `json:"period"`
	Exceptions     []recon.Exception      `json:"exceptions"`
	Count          int                    `json:"count"`
	OpenBySeverity map[recon.Severity]int `json:"open_by_severity"`
}

// SignalsResponse carries the alerting counters for a period.
type SignalsResponse struct {
	OrgID         string `json:"org_id"`
	Period        string `json:"period"`
	MismatchCount int    `json:"mismatch_count"`
	MaxDeltaCents int64  `json:"max_delta_cents"`
	AlertTier     string `json:"alert_tier"`
}

// StartBatchResponse is returned when a batch job is started.
type StartBatchResponse struct {
	JobID    string `json:"job_id"`
	Requests int    `json:"requests"`
	Status   string `json:"status"`
}

// BatchItemResponse is the outcome of one request in a batch job.
type BatchItemResponse struct {
	OrgID      string `json:"org_id"`
	Period     string `json:"period"`
	RunID      string `json:"run_id,omitempty"`
	Percentage int    `json:"percentage"`
	Ready      bool   `json:"ready"`
	AlertTier  string `json:"alert_tier,omitempty"`
	Error      string `json:"error,omitempty"`
}

// JobResponse represents a batch job's status.
type JobResponse struct {
	JobID       string              `json:"job_id"`
	Status      string              `json:"status"`
	StartedAt   string              `json:"started_at"`
	CompletedAt *string             `json:"completed_at,omitempty"`
	Requests    int                 `json:"requests"`
	Items       []BatchItemResponse `json:"items,omitempty"`
	Error       *string             `json:"error,omitempty"`
}

// JobListResponse lists batch jobs.
type JobListResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Count int           `json:"count"`
}

// MessageResponse is a generic message response.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
