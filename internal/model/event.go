package model

import "time"

// Source discriminates how a record entered the system. It is the unit of
// idempotent replacement: re-importing a week replaces records carrying the
// same source tag and never touches the others.
type Source string

// Known record sources.
const (
	SourceManual       Source = "MANUAL"
	SourceImport       Source = "IMPORT"
	SourceImportLegacy Source = "IMPORT_LEGACY"
)

// EventStatus is the approval state of a certification or fund request.
type EventStatus string

// Event approval states.
const (
	StatusPending  EventStatus = "PENDING"
	StatusApproved EventStatus = "APPROVED"
	StatusPaid     EventStatus = "PAID"
)

// AttendanceStatus marks whether an employee worked a given day.
type AttendanceStatus string

// Attendance states.
const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)

// Currency identifies the denomination of a monetary amount.
type Currency string

// Supported currencies.
const (
	CurrencyARS Currency = "ARS"
	CurrencyUSD Currency = "USD"
)

// AttendanceRecord is one employee-day of attendance. ProjectID is empty
// when the day cell did not resolve to a known project.
type AttendanceRecord struct {
	Date          time.Time
	ID            string
	EmployeeID    string
	ProjectID     string
	PayrollWeekID string
	Status        AttendanceStatus
	Source        Source
	LateHours     float64
}

// ContractorCertification is a week-scoped payment certification for a
// contractor against a project.
type ContractorCertification struct {
	Date          time.Time
	ID            string
	ContractorID  string
	ProjectID     string
	PayrollWeekID string
	Status        EventStatus
	Source        Source
	Currency      Currency
	Amount        float64
}

// FundRequest is an expense request. RequesterName is free text because
// requesters are not required to exist in any registry.
type FundRequest struct {
	Date          time.Time
	ID            string
	RequesterName string
	Category      string
	ProjectID     string
	Description   string
	Status        EventStatus
	Source        Source
	Currency      Currency
	Amount        float64
	ExchangeRate  float64
}

// CashAdvance is money advanced to an employee against the week's wages.
type CashAdvance struct {
	Date          time.Time
	ID            string
	EmployeeID    string
	PayrollWeekID string
	Amount        float64
}
