package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmfigueroa/planilla/internal/model"
)

// InsertAttendance stores an attendance record, assigning an id when absent.
func (s *SQLiteStorage) InsertAttendance(ctx context.Context, rec *model.AttendanceRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAttendance(rec); err != nil {
		return err
	}
	return s.insertAttendanceTx(ctx, s.db, rec)
}

func (s *SQLiteStorage) insertAttendanceTx(ctx context.Context, q queryable, rec *model.AttendanceRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO attendance_records (id, employee_id, date, status, late_hours, project_id, payroll_week_id, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.EmployeeID, rec.Date, rec.Status, rec.LateHours, nullString(rec.ProjectID), rec.PayrollWeekID, rec.Source)
	if err != nil {
		return fmt.Errorf("failed to insert attendance record: %w", err)
	}
	return nil
}

// DeleteAttendanceBySource removes attendance records in [start, end] carrying
// the given source tag and reports how many rows were removed.
func (s *SQLiteStorage) DeleteAttendanceBySource(ctx context.Context, start, end time.Time, source model.Source) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.deleteAttendanceBySourceTx(ctx, s.db, start, end, source)
}

func (s *SQLiteStorage) deleteAttendanceBySourceTx(ctx context.Context, q queryable, start, end time.Time, source model.Source) (int64, error) {
	result, err := q.ExecContext(ctx, `
		DELETE FROM attendance_records WHERE date >= ? AND date <= ? AND source = ?
	`, start, end, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete attendance records: %w", err)
	}
	return result.RowsAffected()
}

// GetAttendanceByWeek retrieves all attendance records for a payroll week.
func (s *SQLiteStorage) GetAttendanceByWeek(ctx context.Context, weekID string) ([]model.AttendanceRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(weekID, "weekID"); err != nil {
		return nil, err
	}
	return s.getAttendanceByWeekTx(ctx, s.db, weekID)
}

func (s *SQLiteStorage) getAttendanceByWeekTx(ctx context.Context, q queryable, weekID string) ([]model.AttendanceRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, employee_id, date, status, late_hours, project_id, payroll_week_id, source
		FROM attendance_records
		WHERE payroll_week_id = ?
		ORDER BY date, employee_id
	`, weekID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.AttendanceRecord
	for rows.Next() {
		var rec model.AttendanceRecord
		var projectID sql.NullString

		err := rows.Scan(
			&rec.ID,
			&rec.EmployeeID,
			&rec.Date,
			&rec.Status,
			&rec.LateHours,
			&projectID,
			&rec.PayrollWeekID,
			&rec.Source,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}

		if projectID.Valid {
			rec.ProjectID = projectID.String
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance records: %w", err)
	}
	return records, nil
}

// InsertCertification stores a contractor certification.
func (s *SQLiteStorage) InsertCertification(ctx context.Context, cert *model.ContractorCertification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCertification(cert); err != nil {
		return err
	}
	return s.insertCertificationTx(ctx, s.db, cert)
}

func (s *SQLiteStorage) insertCertificationTx(ctx context.Context, q queryable, cert *model.ContractorCertification) error {
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	if cert.Currency == "" {
		cert.Currency = model.CurrencyARS
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO contractor_certifications (id, contractor_id, project_id, amount, currency, date, status, payroll_week_id, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, cert.ID, cert.ContractorID, cert.ProjectID, cert.Amount, cert.Currency, cert.Date, cert.Status, cert.PayrollWeekID, cert.Source)
	if err != nil {
		return fmt.Errorf("failed to insert certification: %w", err)
	}
	return nil
}

// DeleteCertificationsBySource removes certifications in [start, end] carrying
// the given source tag.
func (s *SQLiteStorage) DeleteCertificationsBySource(ctx context.Context, start, end time.Time, source model.Source) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.deleteCertificationsBySourceTx(ctx, s.db, start, end, source)
}

func (s *SQLiteStorage) deleteCertificationsBySourceTx(ctx context.Context, q queryable, start, end time.Time, source model.Source) (int64, error) {
	result, err := q.ExecContext(ctx, `
		DELETE FROM contractor_certifications WHERE date >= ? AND date <= ? AND source = ?
	`, start, end, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete certifications: %w", err)
	}
	return result.RowsAffected()
}

// GetCertificationsByWeek retrieves certifications for a payroll week,
// optionally filtered to the given statuses.
func (s *SQLiteStorage) GetCertificationsByWeek(ctx context.Context, weekID string, statuses []model.EventStatus) ([]model.ContractorCertification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(weekID, "weekID"); err != nil {
		return nil, err
	}
	return s.getCertificationsByWeekTx(ctx, s.db, weekID, statuses)
}

func (s *SQLiteStorage) getCertificationsByWeekTx(ctx context.Context, q queryable, weekID string, statuses []model.EventStatus) ([]model.ContractorCertification, error) {
	query := `
		SELECT id, contractor_id, project_id, amount, currency, date, status, payroll_week_id, source
		FROM contractor_certifications
		WHERE payroll_week_id = ?`
	args := []any{weekID}

	if clause, statusArgs := statusFilter(statuses); clause != "" {
		query += " AND " + clause
		args = append(args, statusArgs...)
	}
	query += " ORDER BY date, contractor_id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query certifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var certs []model.ContractorCertification
	for rows.Next() {
		var cert model.ContractorCertification

		err := rows.Scan(
			&cert.ID,
			&cert.ContractorID,
			&cert.ProjectID,
			&cert.Amount,
			&cert.Currency,
			&cert.Date,
			&cert.Status,
			&cert.PayrollWeekID,
			&cert.Source,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan certification: %w", err)
		}
		certs = append(certs, cert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating certifications: %w", err)
	}
	return certs, nil
}

// InsertFundRequest stores a fund request.
func (s *SQLiteStorage) InsertFundRequest(ctx context.Context, req *model.FundRequest) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateFundRequest(req); err != nil {
		return err
	}
	return s.insertFundRequestTx(ctx, s.db, req)
}

func (s *SQLiteStorage) insertFundRequestTx(ctx context.Context, q queryable, req *model.FundRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Currency == "" {
		req.Currency = model.CurrencyARS
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO fund_requests (id, requester_name, category, project_id, amount, currency, exchange_rate, status, date, description, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, req.ID, nullString(req.RequesterName), req.Category, nullString(req.ProjectID), req.Amount, req.Currency, req.ExchangeRate, req.Status, req.Date, nullString(req.Description), req.Source)
	if err != nil {
		return fmt.Errorf("failed to insert fund request: %w", err)
	}
	return nil
}

// DeleteFundRequestsBySource removes fund requests in [start, end] carrying
// the given source tag.
func (s *SQLiteStorage) DeleteFundRequestsBySource(ctx context.Context, start, end time.Time, source model.Source) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.deleteFundRequestsBySourceTx(ctx, s.db, start, end, source)
}

func (s *SQLiteStorage) deleteFundRequestsBySourceTx(ctx context.Context, q queryable, start, end time.Time, source model.Source) (int64, error) {
	result, err := q.ExecContext(ctx, `
		DELETE FROM fund_requests WHERE date >= ? AND date <= ? AND source = ?
	`, start, end, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete fund requests: %w", err)
	}
	return result.RowsAffected()
}

// GetFundRequestsByDateRange retrieves fund requests dated within [start, end],
// optionally filtered to the given statuses. Fund requests are keyed by date
// rather than week id because requesters file them against dates, not weeks.
func (s *SQLiteStorage) GetFundRequestsByDateRange(ctx context.Context, start, end time.Time, statuses []model.EventStatus) ([]model.FundRequest, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, end, start)
	}
	return s.getFundRequestsByDateRangeTx(ctx, s.db, start, end, statuses)
}

func (s *SQLiteStorage) getFundRequestsByDateRangeTx(ctx context.Context, q queryable, start, end time.Time, statuses []model.EventStatus) ([]model.FundRequest, error) {
	query := `
		SELECT id, requester_name, category, project_id, amount, currency, exchange_rate, status, date, description, source
		FROM fund_requests
		WHERE date >= ? AND date <= ?`
	args := []any{start, end}

	if clause, statusArgs := statusFilter(statuses); clause != "" {
		query += " AND " + clause
		args = append(args, statusArgs...)
	}
	query += " ORDER BY date, category"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var requests []model.FundRequest
	for rows.Next() {
		var req model.FundRequest
		var requesterName, projectID, description sql.NullString

		err := rows.Scan(
			&req.ID,
			&requesterName,
			&req.Category,
			&projectID,
			&req.Amount,
			&req.Currency,
			&req.ExchangeRate,
			&req.Status,
			&req.Date,
			&description,
			&req.Source,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fund request: %w", err)
		}

		req.RequesterName = requesterName.String
		req.ProjectID = projectID.String
		req.Description = description.String
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fund requests: %w", err)
	}
	return requests, nil
}

// SaveCashAdvance inserts or updates a cash advance.
func (s *SQLiteStorage) SaveCashAdvance(ctx context.Context, adv *model.CashAdvance) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.saveCashAdvanceTx(ctx, s.db, adv)
}

func (s *SQLiteStorage) saveCashAdvanceTx(ctx context.Context, q queryable, adv *model.CashAdvance) error {
	if adv == nil {
		return fmt.Errorf("%w: cash advance", ErrNilParameter)
	}
	if adv.EmployeeID == "" || adv.PayrollWeekID == "" {
		return fmt.Errorf("%w: missing employee or week id", ErrNilParameter)
	}
	if adv.ID == "" {
		adv.ID = uuid.NewString()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO cash_advances (id, employee_id, amount, date, payroll_week_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			amount = excluded.amount,
			date = excluded.date,
			payroll_week_id = excluded.payroll_week_id
	`, adv.ID, adv.EmployeeID, adv.Amount, adv.Date, adv.PayrollWeekID)
	if err != nil {
		return fmt.Errorf("failed to save cash advance: %w", err)
	}
	return nil
}

// GetCashAdvancesByWeek retrieves cash advances for a payroll week.
func (s *SQLiteStorage) GetCashAdvancesByWeek(ctx context.Context, weekID string) ([]model.CashAdvance, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(weekID, "weekID"); err != nil {
		return nil, err
	}
	return s.getCashAdvancesByWeekTx(ctx, s.db, weekID)
}

func (s *SQLiteStorage) getCashAdvancesByWeekTx(ctx context.Context, q queryable, weekID string) ([]model.CashAdvance, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, employee_id, amount, date, payroll_week_id
		FROM cash_advances
		WHERE payroll_week_id = ?
		ORDER BY date, employee_id
	`, weekID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash advances: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var advances []model.CashAdvance
	for rows.Next() {
		var adv model.CashAdvance
		err := rows.Scan(&adv.ID, &adv.EmployeeID, &adv.Amount, &adv.Date, &adv.PayrollWeekID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cash advance: %w", err)
		}
		advances = append(advances, adv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cash advances: %w", err)
	}
	return advances, nil
}

// statusFilter builds an IN clause for an optional status filter. An empty
// slice means no filtering.
func statusFilter(statuses []model.EventStatus) (string, []any) {
	if len(statuses) == 0 {
		return "", nil
	}

	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		placeholders[i] = "?"
		args[i] = status
	}
	return "status IN (" + strings.Join(placeholders, ", ") + ")", args
}

// nullString maps "" to NULL for nullable text columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
