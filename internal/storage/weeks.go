package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmfigueroa/planilla/internal/common"
	"github.com/jmfigueroa/planilla/internal/model"
)

// EnsurePayrollWeek returns the payroll week starting at monday, creating it
// (status Open, with the given exchange rate) when absent. Creation closes
// any previously open week in the same transaction so the single-open-week
// constraint holds atomically.
func (s *SQLiteStorage) EnsurePayrollWeek(ctx context.Context, monday time.Time, exchangeRate float64) (*model.PayrollWeek, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	week, err := s.ensurePayrollWeekTx(ctx, tx, monday, exchangeRate)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return week, nil
}

func (s *SQLiteStorage) ensurePayrollWeekTx(ctx context.Context, q queryable, monday time.Time, exchangeRate float64) (*model.PayrollWeek, error) {
	monday = model.WeekStart(monday)

	existing, err := s.getPayrollWeekByStartTx(ctx, q, monday)
	if err == nil {
		return existing, nil
	}
	if err != common.ErrNotFound {
		return nil, err
	}

	// Close whatever is currently open before opening the new week; the
	// partial unique index rejects a second open week otherwise.
	if _, err := q.ExecContext(ctx, `UPDATE payroll_weeks SET status = ? WHERE status = ?`, model.WeekClosed, model.WeekOpen); err != nil {
		return nil, fmt.Errorf("failed to close open weeks: %w", err)
	}

	week := &model.PayrollWeek{
		ID:           uuid.NewString(),
		StartDate:    monday,
		EndDate:      model.WeekEnd(monday),
		Status:       model.WeekOpen,
		ExchangeRate: exchangeRate,
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO payroll_weeks (id, start_date, end_date, status, exchange_rate)
		VALUES (?, ?, ?, ?, ?)
	`, week.ID, week.StartDate, week.EndDate, week.Status, week.ExchangeRate)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payroll week: %w", err)
	}

	return week, nil
}

// GetPayrollWeekByStart retrieves the payroll week starting at monday.
func (s *SQLiteStorage) GetPayrollWeekByStart(ctx context.Context, monday time.Time) (*model.PayrollWeek, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getPayrollWeekByStartTx(ctx, s.db, monday)
}

func (s *SQLiteStorage) getPayrollWeekByStartTx(ctx context.Context, q queryable, monday time.Time) (*model.PayrollWeek, error) {
	var week model.PayrollWeek
	var exchangeRate sql.NullFloat64

	err := q.QueryRowContext(ctx, `
		SELECT id, start_date, end_date, status, exchange_rate
		FROM payroll_weeks
		WHERE start_date = ?
	`, model.WeekStart(monday)).Scan(
		&week.ID,
		&week.StartDate,
		&week.EndDate,
		&week.Status,
		&exchangeRate,
	)

	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payroll week: %w", err)
	}

	if exchangeRate.Valid {
		week.ExchangeRate = exchangeRate.Float64
	}
	return &week, nil
}

// ClosePayrollWeek marks a payroll week as closed.
func (s *SQLiteStorage) ClosePayrollWeek(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return s.closePayrollWeekTx(ctx, s.db, id)
}

func (s *SQLiteStorage) closePayrollWeekTx(ctx context.Context, q queryable, id string) error {
	result, err := q.ExecContext(ctx, `UPDATE payroll_weeks SET status = ? WHERE id = ?`, model.WeekClosed, id)
	if err != nil {
		return fmt.Errorf("failed to close payroll week: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}
