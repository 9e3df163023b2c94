// Package storage provides the SQLite persistence layer for the payroll
// pipeline.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmfigueroa/planilla/internal/model"
	"github.com/jmfigueroa/planilla/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTransaction{tx: tx, storage: s}, nil
}

// queryable is an interface satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// sqliteTransaction wraps sql.Tx to implement service.Transaction.
type sqliteTransaction struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTransaction) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTransaction) Rollback() error {
	return t.tx.Rollback()
}

// Transaction methods delegate to the main storage with the transaction.
func (t *sqliteTransaction) EnsurePayrollWeek(ctx context.Context, monday time.Time, exchangeRate float64) (*model.PayrollWeek, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.ensurePayrollWeekTx(ctx, t.tx, monday, exchangeRate)
}

func (t *sqliteTransaction) GetPayrollWeekByStart(ctx context.Context, monday time.Time) (*model.PayrollWeek, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getPayrollWeekByStartTx(ctx, t.tx, monday)
}

func (t *sqliteTransaction) ClosePayrollWeek(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return t.storage.closePayrollWeekTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) InsertAttendance(ctx context.Context, rec *model.AttendanceRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAttendance(rec); err != nil {
		return err
	}
	return t.storage.insertAttendanceTx(ctx, t.tx, rec)
}

func (t *sqliteTransaction) DeleteAttendanceBySource(ctx context.Context, start, end time.Time, source model.Source) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return t.storage.deleteAttendanceBySourceTx(ctx, t.tx, start, end, source)
}

func (t *sqliteTransaction) GetAttendanceByWeek(ctx context.Context, weekID string) ([]model.AttendanceRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getAttendanceByWeekTx(ctx, t.tx, weekID)
}

func (t *sqliteTransaction) InsertCertification(ctx context.Context, cert *model.ContractorCertification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCertification(cert); err != nil {
		return err
	}
	return t.storage.insertCertificationTx(ctx, t.tx, cert)
}

func (t *sqliteTransaction) DeleteCertificationsBySource(ctx context.Context, start, end time.Time, source model.Source) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return t.storage.deleteCertificationsBySourceTx(ctx, t.tx, start, end, source)
}

func (t *sqliteTransaction) GetCertificationsByWeek(ctx context.Context, weekID string, statuses []model.EventStatus) ([]model.ContractorCertification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getCertificationsByWeekTx(ctx, t.tx, weekID, statuses)
}

func (t *sqliteTransaction) InsertFundRequest(ctx context.Context, req *model.FundRequest) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateFundRequest(req); err != nil {
		return err
	}
	return t.storage.insertFundRequestTx(ctx, t.tx, req)
}

func (t *sqliteTransaction) DeleteFundRequestsBySource(ctx context.Context, start, end time.Time, source model.Source) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return t.storage.deleteFundRequestsBySourceTx(ctx, t.tx, start, end, source)
}

func (t *sqliteTransaction) GetFundRequestsByDateRange(ctx context.Context, start, end time.Time, statuses []model.EventStatus) ([]model.FundRequest, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, end, start)
	}
	return t.storage.getFundRequestsByDateRangeTx(ctx, t.tx, start, end, statuses)
}

func (t *sqliteTransaction) SaveCashAdvance(ctx context.Context, adv *model.CashAdvance) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return t.storage.saveCashAdvanceTx(ctx, t.tx, adv)
}

func (t *sqliteTransaction) GetCashAdvancesByWeek(ctx context.Context, weekID string) ([]model.CashAdvance, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getCashAdvancesByWeekTx(ctx, t.tx, weekID)
}

func (t *sqliteTransaction) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	return t.storage.listEmployeesTx(ctx, t.tx)
}

func (t *sqliteTransaction) ListContractors(ctx context.Context) ([]model.Contractor, error) {
	return t.storage.listContractorsTx(ctx, t.tx)
}

func (t *sqliteTransaction) ListProjects(ctx context.Context) ([]model.Project, error) {
	return t.storage.listProjectsTx(ctx, t.tx)
}

func (t *sqliteTransaction) SaveEmployee(ctx context.Context, e *model.Employee) error {
	return t.storage.saveEmployeeTx(ctx, t.tx, e)
}

func (t *sqliteTransaction) SaveContractor(ctx context.Context, c *model.Contractor) error {
	return t.storage.saveContractorTx(ctx, t.tx, c)
}

func (t *sqliteTransaction) SaveProject(ctx context.Context, p *model.Project) error {
	return t.storage.saveProjectTx(ctx, t.tx, p)
}

func (t *sqliteTransaction) Migrate(_ context.Context) error {
	// Migrations should not be run within a transaction
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTransaction) BeginTx(_ context.Context) (service.Transaction, error) {
	// Nested transactions not supported
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *sqliteTransaction) Close() error {
	// Transactions should be committed or rolled back, not closed
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}
