// Package service runs reconciliations end to end: fetch from the sources,
// match, generate exceptions, carry over review state from the previous run,
// score readiness, persist and log the alert signals.
//
// Example usage:
//
//	svc := service.NewService(cfg, clients, store, logger)
//	res, err := svc.Reconcile(ctx, service.Request{
//		OrgID:            "org_1",
//		Period:           "2026-02",
//		ReportsGenerated: true,
//	})
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/eshaffer321/closeready/internal/adapters/clients"
	"github.com/eshaffer321/closeready/internal/adapters/sources"
	"github.com/eshaffer321/closeready/internal/domain/exceptions"
	"github.com/eshaffer321/closeready/internal/domain/matcher"
	"github.com/eshaffer321/closeready/internal/domain/readiness"
	"github.com/eshaffer321/closeready/internal/domain/recon"
	"github.com/eshaffer321/closeready/internal/infrastructure/config"
	"github.com/eshaffer321/closeready/internal/infrastructure/storage"
)

var (
	// ErrInvalidRequest is returned for a missing org or malformed period.
	ErrInvalidRequest = errors.New("invalid reconciliation request")

	// ErrRunInProgress is returned when the same (org, period) is already running.
	ErrRunInProgress = errors.New("reconciliation already running for org and period")
)

// Request holds parameters for one reconciliation.
type Request struct {
	OrgID            string `json:"org_id"`
	Period           string `json:"period"` // "2026-02", "2026-Q1" or "2026"
	ReportsGenerated bool   `json:"reports_generated"`
}

// Result is everything one reconciliation produced.
type Result struct {
	Run        *storage.Run               `json:"run"`
	Match      *recon.MatchResult         `json:"match"`
	Exceptions []recon.Exception          `json:"exceptions"`
	Report     recon.CloseReadinessReport `json:"report"`
	Signals    recon.AlertSignals         `json:"signals"`
	Tier       recon.AlertTier            `json:"alert_tier"`
}

// Service manages reconciliation runs.
type Service struct {
	cfg     *config.Config
	clients *clients.Clients
	storage storage.Repository
	logger  *slog.Logger
	now     func() time.Time

	// Job management
	jobs      map[string]*BatchJob
	jobsMutex sync.RWMutex

	// Period-level locking (only one run per org and period at a time)
	periodLocks map[string]*sync.Mutex
	locksMutex  sync.Mutex

	// Background cleanup
	cleanupStop chan struct{}
	cleanupDone chan struct{}
}

// NewService creates a new reconciliation service. store may be nil, in
// which case runs are computed but not persisted and no review state is
// carried over.
func NewService(cfg *config.Config, clients *clients.Clients, store storage.Repository, logger *slog.Logger) *Service {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:         cfg,
		clients:     clients,
		storage:     store,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		jobs:        make(map[string]*BatchJob),
		periodLocks: make(map[string]*sync.Mutex),
	}
}

// Reconcile runs the engine for one (org, period) and persists the outcome.
func (s *Service) Reconcile(ctx context.Context, req Request) (*Result, error) {
	if req.OrgID == "" {
		return nil, fmt.Errorf("%w: org_id is required", ErrInvalidRequest)
	}
	period, err := recon.ParsePeriod(req.Period)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if s.clients == nil || s.clients.Payouts == nil || s.clients.Deposits == nil {
		return nil, fmt.Errorf("%w: no payout or deposit source configured", ErrInvalidRequest)
	}

	key := req.OrgID + "|" + period.Label
	if !s.tryLockPeriod(key) {
		return nil, fmt.Errorf("%w: %s %s", ErrRunInProgress, req.OrgID, period.Label)
	}
	defer s.unlockPeriod(key)

	logger := s.logger.With("org", req.OrgID, "period", period.Label)

	run, err := s.startRun(ctx, req.OrgID, period.Label)
	if err != nil {
		return nil, err
	}
	logger = logger.With("run_id", run.ID)

	res, err := s.execute(ctx, run, period, req.ReportsGenerated, logger)
	if err != nil {
		logger.Error("reconciliation failed", "error", err)
		if s.storage != nil {
			if ferr := s.storage.FailRun(context.WithoutCancel(ctx), run.ID, err); ferr != nil {
				logger.Warn("failed to record run failure", "error", ferr)
			}
		}
		return nil, err
	}

	return res, nil
}

func (s *Service) startRun(ctx context.Context, orgID, periodLabel string) (*storage.Run, error) {
	if s.storage == nil {
		return &storage.Run{
			ID:          uuid.NewString(),
			OrgID:       orgID,
			PeriodLabel: periodLabel,
			Status:      storage.RunRunning,
			StartedAt:   s.now(),
			AlertTier:   recon.AlertNone,
		}, nil
	}

	run, err := s.storage.StartRun(ctx, orgID, periodLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return run, nil
}

func (s *Service) execute(ctx context.Context, run *storage.Run, period recon.Period, reportsGenerated bool, logger *slog.Logger) (*Result, error) {
	payouts, deposits, err := s.fetch(ctx, run.OrgID, period)
	if err != nil {
		return nil, err
	}
	logger.Debug("fetched records",
		"payouts", len(payouts),
		"deposits", len(deposits),
		"payout_source", s.clients.Payouts.Name(),
		"deposit_source", s.clients.Deposits.Name(),
	)

	engineCfg := s.cfg.Engine()
	match, err := matcher.Match(payouts, deposits, engineCfg)
	if err != nil {
		return nil, fmt.Errorf("matching failed: %w", err)
	}

	now := s.now()
	exs := exceptions.GenerateAt(run.OrgID, period.Label, match, engineCfg, now)

	if s.storage != nil {
		previous, err := s.storage.ListExceptions(ctx, storage.ExceptionFilters{OrgID: run.OrgID, PeriodLabel: period.Label})
		if err != nil {
			return nil, fmt.Errorf("failed to load previous exceptions: %w", err)
		}
		exs = exceptions.CarryOver(previous, exs)
	}

	report := readiness.Compute(run.OrgID, period.Label, match, exs, engineCfg, readiness.Options{
		ReportsGenerated: reportsGenerated,
		Now:              now,
	})
	signals := exceptions.Signals(exs)
	tier := signals.Tier(s.cfg.Alerts.EscalateDeltaCents)

	run.Payouts = match.TotalPayouts()
	run.Deposits = match.TotalDeposits()
	run.Matched = len(match.Matched)
	run.ExceptionCount = len(exs)
	run.Score = report.Score
	run.Percentage = report.Percentage
	run.Ready = report.Ready
	run.MismatchCount = signals.MismatchCount
	run.MaxDeltaCents = signals.MaxDeltaCents
	run.AlertTier = tier
	run.Match = match

	if err := s.persist(ctx, run, exs, &report); err != nil {
		return nil, err
	}

	summary := matcher.Summarize(match)
	logger.Info("reconciliation complete",
		"matched", summary.Matched,
		"within_tolerance", summary.WithinTolerance,
		"unmatched_payouts", summary.UnmatchedPayouts,
		"unmatched_deposits", summary.UnmatchedDeposits,
		"total_delta_cents", summary.TotalDeltaCents,
		"exceptions", len(exs),
		"percentage", report.Percentage,
		"ready", report.Ready,
	)
	s.logSignals(logger, signals, tier)

	return &Result{
		Run:        run,
		Match:      match,
		Exceptions: exs,
		Report:     report,
		Signals:    signals,
		Tier:       tier,
	}, nil
}

// fetch loads payouts and deposits concurrently.
func (s *Service) fetch(ctx context.Context, orgID string, period recon.Period) ([]recon.Payout, []recon.Deposit, error) {
	opts := sources.FetchOptions{OrgID: orgID, Period: period}

	var payouts []recon.Payout
	var deposits []recon.Deposit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payouts, err = s.clients.Payouts.FetchPayouts(gctx, opts)
		if err != nil {
			return fmt.Errorf("failed to fetch payouts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		deposits, err = s.clients.Deposits.FetchDeposits(gctx, opts)
		if err != nil {
			return fmt.Errorf("failed to fetch deposits: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return payouts, deposits, nil
}

func (s *Service) persist(ctx context.Context, run *storage.Run, exs []recon.Exception, report *recon.CloseReadinessReport) error {
	if s.storage == nil {
		now := s.now()
		run.Status = storage.RunCompleted
		run.CompletedAt = &now
		return nil
	}

	if err := s.storage.ReplaceExceptions(ctx, run.OrgID, run.PeriodLabel, run.ID, exs); err != nil {
		return fmt.Errorf("failed to save exceptions: %w", err)
	}
	if err := s.storage.SaveReport(ctx, run.ID, report); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	if err := s.storage.CompleteRun(ctx, run); err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

func (s *Service) logSignals(logger *slog.Logger, signals recon.AlertSignals, tier recon.AlertTier) {
	attrs := []any{
		"mismatch_count", signals.MismatchCount,
		"max_delta_cents", signals.MaxDeltaCents,
		"tier", string(tier),
	}
	switch tier {
	case recon.AlertEscalate:
		logger.Error("open discrepancies above escalation threshold", attrs...)
	case recon.AlertWarn:
		logger.Warn("open discrepancies", attrs...)
	default:
		logger.Debug("no open discrepancies", attrs...)
	}
}

// tryLockPeriod attempts to acquire the lock for an org and period.
func (s *Service) tryLockPeriod(key string) bool {
	s.locksMutex.Lock()
	defer s.locksMutex.Unlock()

	if _, exists := s.periodLocks[key]; !exists {
		s.periodLocks[key] = &sync.Mutex{}
	}

	return s.periodLocks[key].TryLock()
}

// unlockPeriod releases the lock for an org and period.
func (s *Service) unlockPeriod(key string) {
	s.locksMutex.Lock()
	defer s.locksMutex.Unlock()

	if lock, exists := s.periodLocks[key]; exists {
		lock.Unlock()
	}
}
