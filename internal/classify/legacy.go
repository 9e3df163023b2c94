package classify

import (
	"fmt"
	"strings"

	"github.com/jmfigueroa/planilla/internal/model"
	"github.com/jmfigueroa/planilla/internal/resolve"
	"github.com/jmfigueroa/planilla/internal/sheet"
)

// LegacyClassifier handles sheets from before structure inference existed.
// There is no column mapping: every row is pre-classified into exactly one
// of personnel, concept or contractor by vocabulary matching, and day
// columns are located by fuzzy substring match against weekday names.
type LegacyClassifier struct{}

// NewLegacyClassifier creates the vocabulary-driven strategy.
func NewLegacyClassifier() *LegacyClassifier {
	return &LegacyClassifier{}
}

// legacyLayout is the column layout recovered from a legacy header row.
type legacyLayout struct {
	headerRow   int
	nameCol     int
	categoryCol int
	jornalCol   int
	dayCols     []int
	projectCols []projectColumn
}

// projectColumn ties a column index to the project its header resolved to.
type projectColumn struct {
	projectID string
	col       int
}

type legacyRowKind int

const (
	rowPersonnel legacyRowKind = iota
	rowConcept
	rowContractor
)

// Classify walks a legacy sheet. The mapping argument is ignored; legacy
// sheets carry none.
func (c *LegacyClassifier) Classify(rows [][]string, _ *model.StructuralMapping, res *resolve.Resolver, scope Scope) (Events, []string) {
	var events Events
	var warnings []string

	layout, ok := c.findLayout(rows, res)
	if !ok {
		warnings = append(warnings, fmt.Sprintf("sheet %s: no weekday header row found, sheet skipped", scope.BaseDate.Format("2006-01-02")))
		return events, warnings
	}

	for ri := layout.headerRow + 1; ri < len(rows); ri++ {
		row := rows[ri]
		name := cellAt(row, layout.nameCol)
		category := cellAt(row, layout.categoryCol)

		if name == "" && category == "" {
			continue
		}

		switch c.rowKind(row, layout, name, category) {
		case rowConcept:
			// Subtotal and total lines are recognized concepts but carry
			// aggregates, not expenses.
			if isTotalRow(name) {
				continue
			}
			concept := name
			if concept == "" {
				concept = category
			}
			for _, pc := range layout.projectCols {
				amount, ok := sheet.ParseAmount(cellAt(row, pc.col))
				if !ok {
					continue
				}
				events.FundRequests = append(events.FundRequests, model.FundRequest{
					RequesterName: name,
					Category:      deriveCategory(concept),
					ProjectID:     pc.projectID,
					Amount:        amount,
					Currency:      model.CurrencyARS,
					ExchangeRate:  scope.ExchangeRate,
					Status:        model.StatusPending,
					Date:          scope.BaseDate,
					Description:   requestDescription(name, concept),
					Source:        scope.Source,
				})
			}

		case rowPersonnel:
			employeeID, ok := res.MatchEmployee(name)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("sheet %s row %d: employee %q not found in registry, row skipped", scope.BaseDate.Format("2006-01-02"), ri+1, name))
				continue
			}
			for ordinal, col := range layout.dayCols {
				if !sheet.IsDayCellWorked(cellAt(row, col)) {
					continue
				}
				events.Attendance = append(events.Attendance, model.AttendanceRecord{
					EmployeeID:    employeeID,
					Date:          scope.BaseDate.AddDate(0, 0, ordinal),
					Status:        model.AttendancePresent,
					PayrollWeekID: scope.WeekID,
					Source:        scope.Source,
				})
			}

		case rowContractor:
			contractorID, ok := res.MatchContractor(name)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("sheet %s row %d: contractor %q not found in registry, row skipped", scope.BaseDate.Format("2006-01-02"), ri+1, name))
				continue
			}
			for _, pc := range layout.projectCols {
				amount, ok := sheet.ParseAmount(cellAt(row, pc.col))
				if !ok {
					continue
				}
				events.Certifications = append(events.Certifications, model.ContractorCertification{
					ContractorID:  contractorID,
					ProjectID:     pc.projectID,
					Amount:        amount,
					Currency:      model.CurrencyARS,
					Date:          scope.BaseDate,
					Status:        model.StatusPending,
					PayrollWeekID: scope.WeekID,
					Source:        scope.Source,
				})
			}
		}
	}

	return events, warnings
}

// rowKind pre-classifies one row. Precedence matters: a concept row is never
// personnel even when its category happens to name an operative role.
func (c *LegacyClassifier) rowKind(row []string, layout *legacyLayout, name, category string) legacyRowKind {
	if isConceptWord(name) || (name == "" && category != "") {
		return rowConcept
	}
	if isOperativeRole(category) {
		if _, ok := sheet.ParseAmount(cellAt(row, layout.jornalCol)); ok {
			return rowPersonnel
		}
	}
	return rowContractor
}

// findLayout scans the leading rows for a header containing at least two
// weekday names and recovers the column layout from it.
func (c *LegacyClassifier) findLayout(rows [][]string, res *resolve.Resolver) (*legacyLayout, bool) {
	scan := len(rows)
	if scan > sheet.MinRows {
		scan = sheet.MinRows
	}

	for ri := 0; ri < scan; ri++ {
		var dayCols []int
		for ci, cell := range rows[ri] {
			if matchesWeekday(cell) {
				dayCols = append(dayCols, ci)
			}
		}
		if len(dayCols) < 2 {
			continue
		}

		layout := &legacyLayout{
			headerRow:   ri,
			nameCol:     0,
			categoryCol: 1,
			jornalCol:   -1,
			dayCols:     dayCols,
		}
		for ci, cell := range rows[ri] {
			norm := resolve.Normalize(cell)
			if layout.jornalCol < 0 && strings.Contains(norm, "jornal") {
				layout.jornalCol = ci
			}
			if pid, ok := res.MatchProject(cell); ok {
				layout.projectCols = append(layout.projectCols, projectColumn{projectID: pid, col: ci})
			}
		}
		return layout, true
	}

	return nil, false
}

func matchesWeekday(header string) bool {
	norm := resolve.Normalize(header)
	if norm == "" {
		return false
	}
	for _, day := range weekdayNames {
		if strings.Contains(norm, day) {
			return true
		}
	}
	return false
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
