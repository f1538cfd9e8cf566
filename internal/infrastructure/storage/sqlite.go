package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/eshaffer321/closeready/internal/domain/recon"
)

// Storage provides SQLite database access for runs, exceptions and reports.
// It implements the Repository interface.
type Storage struct {
	db  *sql.DB
	now func() time.Time
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// One connection keeps the pragma below in force and serializes writers
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db, now: func() time.Time { return time.Now().UTC() }}

	// Run all pending migrations
	if err := s.runMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// StartRun inserts a running run with a new UUID
func (s *Storage) StartRun(ctx context.Context, orgID, periodLabel string) (*Run, error) {
	run := &Run{
		ID:          uuid.NewString(),
		OrgID:       orgID,
		PeriodLabel: periodLabel,
		Status:      RunRunning,
		StartedAt:   s.now(),
		AlertTier:   recon.AlertNone,
	}

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO reconciliation_runs (id, org_id, period_label, status, started_at)
	VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.OrgID, run.PeriodLabel, run.Status, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	return run, nil
}

// CompleteRun records the results of a run
func (s *Storage) CompleteRun(ctx context.Context, run *Run) error {
	matchJSON := "{}"
	if run.Match != nil {
		data, err := json.Marshal(run.Match)
		if err != nil {
			return fmt.Errorf("failed to encode match result: %w", err)
		}
		matchJSON = string(data)
	}

	completedAt := s.now()
	res, err := s.db.ExecContext(ctx, `
	UPDATE reconciliation_runs
	SET status = ?, completed_at = ?, payouts = ?, deposits = ?, matched = ?,
	    exception_count = ?, score = ?, percentage = ?, ready = ?, match_json = ?,
	    mismatch_count = ?, max_delta_cents = ?, alert_tier = ?
	WHERE id = ?
	`,
		RunCompleted, completedAt, run.Payouts, run.Deposits, run.Matched,
		run.ExceptionCount, run.Score, run.Percentage, run.Ready, matchJSON,
		run.MismatchCount, run.MaxDeltaCents, string(run.AlertTier),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run %s: %w", run.ID, err)
	}
	if err := expectOneRow(res, run.ID); err != nil {
		return err
	}

	run.Status = RunCompleted
	run.CompletedAt = &completedAt
	run.MatchJSON = matchJSON
	return nil
}

// FailRun marks a run failed
func (s *Storage) FailRun(ctx context.Context, runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	res, err := s.db.ExecContext(ctx, `
	UPDATE reconciliation_runs SET status = ?, completed_at = ?, error_message = ? WHERE id = ?
	`, RunFailed, s.now(), msg, runID)
	if err != nil {
		return fmt.Errorf("failed to mark run %s failed: %w", runID, err)
	}
	return expectOneRow(res, runID)
}

const runColumns = `id, org_id, period_label, status, started_at, completed_at,
	payouts, deposits, matched, exception_count, score, percentage, ready,
	match_json, error_message, mismatch_count, max_delta_cents, alert_tier`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var completedAt sql.NullTime
	var tier string
	err := row.Scan(
		&run.ID,
		&run.OrgID,
		&run.PeriodLabel,
		&run.Status,
		&run.StartedAt,
		&completedAt,
		&run.Payouts,
		&run.Deposits,
		&run.Matched,
		&run.ExceptionCount,
		&run.Score,
		&run.Percentage,
		&run.Ready,
		&run.MatchJSON,
		&run.ErrorMessage,
		&run.MismatchCount,
		&run.MaxDeltaCents,
		&tier,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	run.AlertTier = recon.AlertTier(tier)

	if run.MatchJSON != "" && run.MatchJSON != "{}" {
		var match recon.MatchResult
		if err := json.Unmarshal([]byte(run.MatchJSON), &match); err != nil {
			return nil, fmt.Errorf("failed to decode match result of run %s: %w", run.ID, err)
		}
		run.Match = &match
	}

	return run, nil
}

// GetRun retrieves a run by ID
func (s *Storage) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM reconciliation_runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return run, err
}

// ListRuns returns runs newest first
func (s *Storage) ListRuns(ctx context.Context, filters RunFilters) ([]*Run, error) {
	var where []string
	var args []any
	if filters.OrgID != "" {
		where = append(where, "org_id = ?")
		args = append(args, filters.OrgID)
	}
	if filters.PeriodLabel != "" {
		where = append(where, "period_label = ?")
		args = append(args, filters.PeriodLabel)
	}
	if filters.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filters.Status)
	}

	query := `SELECT ` + runColumns + ` FROM reconciliation_runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, rowid DESC LIMIT ? OFFSET ?"

	limit := filters.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	args = append(args, limit, filters.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	runs := make([]*Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// SaveReport stores the factors and verdict of a run
func (s *Storage) SaveReport(ctx context.Context, runID string, report *recon.CloseReadinessReport) error {
	factorsJSON, err := json.Marshal(report.Factors)
	if err != nil {
		return fmt.Errorf("failed to encode factors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT OR REPLACE INTO readiness_reports
	(run_id, org_id, period_label, score, max_score, percentage, ready, factors_json, generated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		report.OrgID,
		report.PeriodLabel,
		report.Score,
		report.MaxScore,
		report.Percentage,
		report.Ready,
		string(factorsJSON),
		report.GeneratedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save report for run %s: %w", runID, err)
	}
	return nil
}

// GetReport retrieves the report of a run
func (s *Storage) GetReport(ctx context.Context, runID string) (*recon.CloseReadinessReport, error) {
	report := &recon.CloseReadinessReport{}
	var factorsJSON string
	err := s.db.QueryRowContext(ctx, `
	SELECT org_id, period_label, score, max_score, percentage, ready, factors_json, generated_at
	FROM readiness_reports WHERE run_id = ?
	`, runID).Scan(
		&report.OrgID,
		&report.PeriodLabel,
		&report.Score,
		&report.MaxScore,
		&report.Percentage,
		&report.Ready,
		&factorsJSON,
		&report.GeneratedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report for run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(factorsJSON), &report.Factors); err != nil {
		return nil, fmt.Errorf("failed to decode factors: %w", err)
	}
	report.Exceptions = []recon.Exception{}

	return report, nil
}

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}
