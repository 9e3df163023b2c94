// Package classify turns spreadsheet rows into attendance, certification and
// fund request events.
package classify

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmfigueroa/planilla/internal/model"
	"github.com/jmfigueroa/planilla/internal/resolve"
)

// Events is the classified output of one sheet. Events carry no ids; the
// reconciler assigns them at insert time so classification stays a pure
// function of its inputs.
type Events struct {
	Attendance     []model.AttendanceRecord
	Certifications []model.ContractorCertification
	FundRequests   []model.FundRequest
}

// Len is the total number of events across all three collections.
func (e *Events) Len() int {
	return len(e.Attendance) + len(e.Certifications) + len(e.FundRequests)
}

// SetWeek stamps week-scoped events with the payroll week id. Classification
// runs before the week row exists, so the id is assigned afterwards. Fund
// requests are date-ranged and carry no week id.
func (e *Events) SetWeek(id string) {
	for i := range e.Attendance {
		e.Attendance[i].PayrollWeekID = id
	}
	for i := range e.Certifications {
		e.Certifications[i].PayrollWeekID = id
	}
}

// Scope carries the per-sheet facts every emitted event shares.
type Scope struct {
	// BaseDate is the date parsed from the sheet name. Day columns date
	// attendance as BaseDate plus the column's ordinal position.
	BaseDate     time.Time
	WeekID       string
	Source       model.Source
	ExchangeRate float64
}

// Classifier is one classification strategy. Implementations must be pure
// functions of (rows, mapping, registry snapshot): identical inputs always
// produce an identical event set. Unresolvable names are never fatal; they
// skip the row or cell and append a warning.
type Classifier interface {
	Classify(rows [][]string, mapping *model.StructuralMapping, res *resolve.Resolver, scope Scope) (Events, []string)
}

// deriveCategory maps free-text category or concept words to a fund request
// category.
func deriveCategory(text string) string {
	norm := resolve.Normalize(text)
	switch {
	case strings.Contains(norm, "flete"):
		return "Logística y PMD"
	case strings.Contains(norm, "caja"):
		return "Caja Chica"
	default:
		return "Materiales"
	}
}

// isTotalRow reports whether a name cell marks a totals row, which never
// produces events.
func isTotalRow(name string) bool {
	return strings.Contains(resolve.Normalize(name), "total")
}

// requestDescription builds the "name - category" description of a fund
// request, tolerating an empty name.
func requestDescription(name, category string) string {
	return strings.TrimSpace(fmt.Sprintf("%s - %s", strings.TrimSpace(name), strings.TrimSpace(category)))
}
