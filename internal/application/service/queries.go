package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/eshaffer321/closeready/internal/domain/exceptions"
	"github.com/eshaffer321/closeready/internal/domain/recon"
	"github.com/eshaffer321/closeready/internal/infrastructure/storage"
)

// ErrNoStorage is returned by queries when the service runs without a store.
var ErrNoStorage = errors.New("no storage configured")

// RunDetail is a stored run with its report and the current exceptions of
// its period.
type RunDetail struct {
	Run        *storage.Run                `json:"run"`
	Report     *recon.CloseReadinessReport `json:"report,omitempty"`
	Exceptions []recon.Exception           `json:"exceptions"`
}

// GetRun loads a run with its report.
func (s *Service) GetRun(ctx context.Context, runID string) (*RunDetail, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}

	run, err := s.storage.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	detail := &RunDetail{Run: run, Exceptions: []recon.Exception{}}
	report, err := s.storage.GetReport(ctx, runID)
	switch {
	case err == nil:
		detail.Report = report
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}

	exs, err := s.storage.ListExceptions(ctx, storage.ExceptionFilters{OrgID: run.OrgID, PeriodLabel: run.PeriodLabel})
	if err != nil {
		return nil, err
	}
	detail.Exceptions = exs
	if detail.Report != nil {
		detail.Report.Exceptions = exs
	}

	return detail, nil
}

// ListRuns returns stored runs, newest first.
func (s *Service) ListRuns(ctx context.Context, filters storage.RunFilters) ([]*storage.Run, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}
	return s.storage.ListRuns(ctx, filters)
}

// ListExceptions returns the stored exceptions of an org.
func (s *Service) ListExceptions(ctx context.Context, filters storage.ExceptionFilters) ([]recon.Exception, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}
	if filters.OrgID == "" {
		return nil, fmt.Errorf("%w: org_id is required", ErrInvalidRequest)
	}
	if filters.PeriodLabel != "" {
		period, err := recon.ParsePeriod(filters.PeriodLabel)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		filters.PeriodLabel = period.Label
	}
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, filters.Status)
	}
	if filters.Severity != "" && !filters.Severity.Valid() {
		return nil, fmt.Errorf("%w: unknown severity %q", ErrInvalidRequest, filters.Severity)
	}
	if filters.Type != "" && !filters.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown exception type %q", ErrInvalidRequest, filters.Type)
	}
	return s.storage.ListExceptions(ctx, filters)
}

// UpdateExceptionStatus moves a stored exception through its lifecycle.
func (s *Service) UpdateExceptionStatus(ctx context.Context, orgID, id string, to recon.ExceptionStatus, notes string) (*recon.Exception, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}

	current, err := s.storage.GetException(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	next, err := exceptions.Transition(*current, to, notes, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.storage.UpdateException(ctx, next); err != nil {
		return nil, err
	}

	s.logger.Info("exception status changed",
		"org", orgID,
		"exception_id", id,
		"from", string(current.Status),
		"to", string(next.Status),
	)
	return &next, nil
}

// SignalsReport is the alerting view of a period.
type SignalsReport struct {
	OrgID       string             `json:"org_id"`
	PeriodLabel string             `json:"period_label"`
	Signals     recon.AlertSignals `json:"signals"`
	Tier        recon.AlertTier    `json:"alert_tier"`
}

// Signals recomputes the alert signals from the period's stored exceptions,
// so resolutions made after the run are reflected.
func (s *Service) Signals(ctx context.Context, orgID, periodLabel string) (*SignalsReport, error) {
	period, err := recon.ParsePeriod(periodLabel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	exs, err := s.ListExceptions(ctx, storage.ExceptionFilters{OrgID: orgID, PeriodLabel: period.Label})
	if err != nil {
		return nil, err
	}

	signals := exceptions.Signals(exs)
	return &SignalsReport{
		OrgID:       orgID,
		PeriodLabel: period.Label,
		Signals:     signals,
		Tier:        signals.Tier(s.cfg.Alerts.EscalateDeltaCents),
	}, nil
}
