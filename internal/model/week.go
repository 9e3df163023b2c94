// Package model defines the core domain types for the payroll pipeline.
package model

import "time"

// WeekStatus is the lifecycle state of a payroll week.
type WeekStatus string

// Payroll week states.
const (
	WeekOpen   WeekStatus = "OPEN"
	WeekClosed WeekStatus = "CLOSED"
)

// PayrollWeek is the Monday-Sunday accounting period that attendance,
// certification and fund request events are scoped to.
type PayrollWeek struct {
	StartDate    time.Time
	EndDate      time.Time
	CreatedAt    time.Time
	ID           string
	Status       WeekStatus
	ExchangeRate float64
}

// WeekStart returns the Monday of the week containing t, truncated to
// midnight in t's location.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return day.AddDate(0, 0, -offset)
}

// WeekEnd returns the Sunday that closes the week starting at monday.
func WeekEnd(monday time.Time) time.Time {
	return monday.AddDate(0, 0, 6)
}
