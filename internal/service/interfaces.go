// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/jmfigueroa/planilla/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Payroll week operations
	EnsurePayrollWeek(ctx context.Context, monday time.Time, exchangeRate float64) (*model.PayrollWeek, error)
	GetPayrollWeekByStart(ctx context.Context, monday time.Time) (*model.PayrollWeek, error)
	ClosePayrollWeek(ctx context.Context, id string) error

	// Attendance operations
	InsertAttendance(ctx context.Context, rec *model.AttendanceRecord) error
	DeleteAttendanceBySource(ctx context.Context, start, end time.Time, source model.Source) (int64, error)
	GetAttendanceByWeek(ctx context.Context, weekID string) ([]model.AttendanceRecord, error)

	// Certification operations
	InsertCertification(ctx context.Context, cert *model.ContractorCertification) error
	DeleteCertificationsBySource(ctx context.Context, start, end time.Time, source model.Source) (int64, error)
	GetCertificationsByWeek(ctx context.Context, weekID string, statuses []model.EventStatus) ([]model.ContractorCertification, error)

	// Fund request operations
	InsertFundRequest(ctx context.Context, req *model.FundRequest) error
	DeleteFundRequestsBySource(ctx context.Context, start, end time.Time, source model.Source) (int64, error)
	GetFundRequestsByDateRange(ctx context.Context, start, end time.Time, statuses []model.EventStatus) ([]model.FundRequest, error)

	// Cash advance operations
	SaveCashAdvance(ctx context.Context, adv *model.CashAdvance) error
	GetCashAdvancesByWeek(ctx context.Context, weekID string) ([]model.CashAdvance, error)

	// Registry reads. The pipeline takes one snapshot per run and never
	// writes registry entries.
	ListEmployees(ctx context.Context) ([]model.Employee, error)
	ListContractors(ctx context.Context) ([]model.Contractor, error)
	ListProjects(ctx context.Context) ([]model.Project, error)

	// Registry writes, used by the back-office screens and test seeding.
	SaveEmployee(ctx context.Context, e *model.Employee) error
	SaveContractor(ctx context.Context, c *model.Contractor) error
	SaveProject(ctx context.Context, p *model.Project) error

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// CreatedCounts reports how many events of each type an import created.
type CreatedCounts struct {
	Attendance     int `json:"attendance"`
	Certifications int `json:"certifications"`
	FundRequests   int `json:"fundRequests"`
}

// ImportSummary is the single success response of an import run. Warnings
// carry every per-sheet and per-row problem; a non-empty warning list is
// still a successful run.
type ImportSummary struct {
	Warnings        []string      `json:"warnings"`
	Created         CreatedCounts `json:"created"`
	SheetsProcessed int           `json:"sheetsProcessed"`
}
