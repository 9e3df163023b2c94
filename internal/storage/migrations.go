package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS payroll_weeks (
					id TEXT PRIMARY KEY,
					start_date DATETIME NOT NULL UNIQUE,
					end_date DATETIME NOT NULL,
					status TEXT NOT NULL,
					exchange_rate REAL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS attendance_records (
					id TEXT PRIMARY KEY,
					employee_id TEXT NOT NULL,
					date DATETIME NOT NULL,
					status TEXT NOT NULL,
					late_hours REAL DEFAULT 0,
					project_id TEXT,
					payroll_week_id TEXT NOT NULL,
					source TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (payroll_week_id) REFERENCES payroll_weeks(id)
				)`,
				`CREATE INDEX idx_attendance_date ON attendance_records(date)`,
				`CREATE INDEX idx_attendance_week ON attendance_records(payroll_week_id)`,

				`CREATE TABLE IF NOT EXISTS contractor_certifications (
					id TEXT PRIMARY KEY,
					contractor_id TEXT NOT NULL,
					project_id TEXT NOT NULL,
					amount REAL NOT NULL,
					currency TEXT NOT NULL DEFAULT 'ARS',
					date DATETIME NOT NULL,
					status TEXT NOT NULL,
					payroll_week_id TEXT NOT NULL,
					source TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (payroll_week_id) REFERENCES payroll_weeks(id)
				)`,
				`CREATE INDEX idx_certifications_date ON contractor_certifications(date)`,
				`CREATE INDEX idx_certifications_week ON contractor_certifications(payroll_week_id)`,

				`CREATE TABLE IF NOT EXISTS fund_requests (
					id TEXT PRIMARY KEY,
					requester_name TEXT,
					category TEXT NOT NULL,
					project_id TEXT,
					amount REAL NOT NULL,
					currency TEXT NOT NULL DEFAULT 'ARS',
					exchange_rate REAL DEFAULT 0,
					status TEXT NOT NULL,
					date DATETIME NOT NULL,
					description TEXT,
					source TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_fund_requests_date ON fund_requests(date)`,

				`CREATE TABLE IF NOT EXISTS cash_advances (
					id TEXT PRIMARY KEY,
					employee_id TEXT NOT NULL,
					amount REAL NOT NULL,
					date DATETIME NOT NULL,
					payroll_week_id TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (payroll_week_id) REFERENCES payroll_weeks(id)
				)`,
				`CREATE INDEX idx_cash_advances_week ON cash_advances(payroll_week_id)`,

				`CREATE TABLE IF NOT EXISTS employees (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					daily_wage REAL DEFAULT 0,
					status TEXT NOT NULL DEFAULT 'active'
				)`,

				`CREATE TABLE IF NOT EXISTS contractors (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS projects (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					client TEXT,
					status TEXT NOT NULL DEFAULT 'active'
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add source indexes for idempotent import deletes",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE INDEX IF NOT EXISTS idx_attendance_source ON attendance_records(source, date)`,
				`CREATE INDEX IF NOT EXISTS idx_certifications_source ON contractor_certifications(source, date)`,
				`CREATE INDEX IF NOT EXISTS idx_fund_requests_source ON fund_requests(source, date)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Enforce at most one open payroll week",
		Up: func(tx *sql.Tx) error {
			// A partial unique index makes the open-week rule atomic instead
			// of a read-then-write enforced by callers.
			if _, err := tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_weeks_single_open ON payroll_weeks(status) WHERE status = 'OPEN'`); err != nil {
				return fmt.Errorf("failed to create open-week index: %w", err)
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
