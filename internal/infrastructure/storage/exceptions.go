package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eshaffer321/closeready/internal/domain/recon"
)

const exceptionColumns = `org_id, id, period_label, type, severity, status,
	stripe_amount_cents, qbo_amount_cents, delta_cents, description,
	stripe_ref, qbo_ref, detected_at, resolved_at, resolution_notes`

// ReplaceExceptions deletes the period's stored exceptions and inserts the
// new set in one transaction.
func (s *Storage) ReplaceExceptions(ctx context.Context, orgID, periodLabel, runID string, exceptions []recon.Exception) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
	DELETE FROM reconciliation_exceptions WHERE org_id = ? AND period_label = ?
	`, orgID, periodLabel); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to clear exceptions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO reconciliation_exceptions
	(org_id, id, period_label, run_id, type, severity, status,
	 stripe_amount_cents, qbo_amount_cents, delta_cents, description,
	 stripe_ref, qbo_ref, detected_at, resolved_at, resolution_notes)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range exceptions {
		var resolvedAt sql.NullTime
		if e.ResolvedAt != nil {
			resolvedAt = sql.NullTime{Time: e.ResolvedAt.UTC(), Valid: true}
		}

		_, err := stmt.ExecContext(ctx,
			orgID,
			e.ID,
			periodLabel,
			runID,
			string(e.Type),
			string(e.Severity),
			string(e.Status),
			e.StripeAmountCents,
			e.QBOAmountCents,
			e.DeltaCents,
			e.Description,
			e.StripeRef,
			e.QBORef,
			e.DetectedAt.UTC(),
			resolvedAt,
			e.ResolutionNotes,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert exception %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

func scanException(row rowScanner) (recon.Exception, error) {
	var e recon.Exception
	var typ, severity, status string
	var resolvedAt sql.NullTime
	err := row.Scan(
		&e.OrgID,
		&e.ID,
		&e.PeriodLabel,
		&typ,
		&severity,
		&status,
		&e.StripeAmountCents,
		&e.QBOAmountCents,
		&e.DeltaCents,
		&e.Description,
		&e.StripeRef,
		&e.QBORef,
		&e.DetectedAt,
		&resolvedAt,
		&e.ResolutionNotes,
	)
	if err != nil {
		return e, err
	}

	e.Type = recon.ExceptionType(typ)
	e.Severity = recon.Severity(severity)
	e.Status = recon.ExceptionStatus(status)
	if resolvedAt.Valid {
		t := resolvedAt.Time
		e.ResolvedAt = &t
	}
	return e, nil
}

// ListExceptions returns exceptions for an org in period then ID order
func (s *Storage) ListExceptions(ctx context.Context, filters ExceptionFilters) ([]recon.Exception, error) {
	query := `SELECT ` + exceptionColumns + ` FROM reconciliation_exceptions WHERE org_id = ?`
	args := []any{filters.OrgID}

	if filters.PeriodLabel != "" {
		query += " AND period_label = ?"
		args = append(args, filters.PeriodLabel)
	}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filters.Status))
	}
	if filters.Severity != "" {
		query += " AND severity = ?"
		args = append(args, string(filters.Severity))
	}
	if filters.Type != "" {
		query += " AND type = ?"
		args = append(args, string(filters.Type))
	}
	query += " ORDER BY period_label, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]recon.Exception, 0)
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	return out, rows.Err()
}

// GetException retrieves a single exception
func (s *Storage) GetException(ctx context.Context, orgID, id string) (*recon.Exception, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+exceptionColumns+`
	FROM reconciliation_exceptions WHERE org_id = ? AND id = ?`, orgID, id)

	e, err := scanException(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("exception %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateException writes back status and resolution fields
func (s *Storage) UpdateException(ctx context.Context, e recon.Exception) error {
	var resolvedAt sql.NullTime
	if e.ResolvedAt != nil {
		resolvedAt = sql.NullTime{Time: e.ResolvedAt.UTC(), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
	UPDATE reconciliation_exceptions
	SET status = ?, resolved_at = ?, resolution_notes = ?
	WHERE org_id = ? AND id = ?
	`, string(e.Status), resolvedAt, e.ResolutionNotes, e.OrgID, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update exception %s: %w", e.ID, err)
	}
	return expectOneRow(res, e.ID)
}
