package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmfigueroa/planilla/internal/model"
)

// Validation errors.
var (
	ErrNilContext          = errors.New("context cannot be nil")
	ErrEmptyString         = errors.New("string parameter cannot be empty")
	ErrNilParameter        = errors.New("parameter cannot be nil")
	ErrInvalidDateRange    = errors.New("start date must be before end date")
	ErrInvalidAttendance   = errors.New("invalid attendance record")
	ErrInvalidCertification = errors.New("invalid contractor certification")
	ErrInvalidFundRequest  = errors.New("invalid fund request")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateAttendance validates an attendance record before insert.
func validateAttendance(rec *model.AttendanceRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: attendance record", ErrNilParameter)
	}
	if rec.EmployeeID == "" {
		return fmt.Errorf("%w: missing employee id", ErrInvalidAttendance)
	}
	if rec.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidAttendance)
	}
	if rec.PayrollWeekID == "" {
		return fmt.Errorf("%w: missing payroll week id", ErrInvalidAttendance)
	}
	if rec.Source == "" {
		return fmt.Errorf("%w: missing source", ErrInvalidAttendance)
	}
	return nil
}

// validateCertification validates a contractor certification before insert.
// Amounts are always strictly positive; zero and blank cells never reach
// storage.
func validateCertification(cert *model.ContractorCertification) error {
	if cert == nil {
		return fmt.Errorf("%w: certification", ErrNilParameter)
	}
	if cert.ContractorID == "" {
		return fmt.Errorf("%w: missing contractor id", ErrInvalidCertification)
	}
	if cert.ProjectID == "" {
		return fmt.Errorf("%w: missing project id", ErrInvalidCertification)
	}
	if cert.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidCertification)
	}
	if cert.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidCertification)
	}
	if cert.Source == "" {
		return fmt.Errorf("%w: missing source", ErrInvalidCertification)
	}
	return nil
}

// validateFundRequest validates a fund request before insert.
func validateFundRequest(req *model.FundRequest) error {
	if req == nil {
		return fmt.Errorf("%w: fund request", ErrNilParameter)
	}
	if req.Category == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidFundRequest)
	}
	if req.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidFundRequest)
	}
	if req.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidFundRequest)
	}
	if req.Source == "" {
		return fmt.Errorf("%w: missing source", ErrInvalidFundRequest)
	}
	return nil
}
