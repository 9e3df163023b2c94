package classify

import (
	"fmt"

	"github.com/jmfigueroa/planilla/internal/model"
	"github.com/jmfigueroa/planilla/internal/resolve"
	"github.com/jmfigueroa/planilla/internal/sheet"
)

// MappedClassifier classifies rows under a structural mapping produced by
// the inference provider or supplied as an override.
type MappedClassifier struct{}

// NewMappedClassifier creates the mapping-driven strategy.
func NewMappedClassifier() *MappedClassifier {
	return &MappedClassifier{}
}

// Classify walks every data row under the mapping. Known employees get one
// attendance event per worked day cell; money columns yield certifications
// for known contractors and fund requests for everyone else.
func (c *MappedClassifier) Classify(rows [][]string, mapping *model.StructuralMapping, res *resolve.Resolver, scope Scope) (Events, []string) {
	var events Events
	var warnings []string

	// Resolve project-amount column headers once per sheet.
	header := sheet.NewRowView(rows[mapping.HeaderRowIndex], mapping)
	projectByColumn := make(map[int]string, len(mapping.ProjectColumnIndices))
	for _, col := range mapping.ProjectColumnIndices {
		title := header.Cell(col)
		if pid, ok := res.MatchProject(title); ok {
			projectByColumn[col] = pid
			continue
		}
		warnings = append(warnings, fmt.Sprintf("sheet %s: column %d header %q does not match a known project, column skipped", scope.BaseDate.Format("2006-01-02"), col, title))
	}

	// A day column whose header names a project (instead of a weekday)
	// assigns that project to its attendance events.
	dayProjects := make(map[int]string, len(mapping.DayColumns))
	for _, dc := range mapping.DayColumns {
		if pid, ok := res.MatchProject(header.Cell(dc.Index)); ok {
			dayProjects[dc.Index] = pid
		}
	}

	for ri := mapping.DataStartRowIndex; ri < len(rows); ri++ {
		v := sheet.NewRowView(rows[ri], mapping)
		name := v.Name()
		category := v.Category()

		if name == "" && category == "" {
			continue
		}
		if isTotalRow(name) {
			continue
		}

		if employeeID, ok := res.MatchEmployee(name); ok {
			events.Attendance = append(events.Attendance, c.dayWalk(v, employeeID, scope, res, dayProjects)...)
		}

		contractorID, isContractor := res.MatchContractor(name)
		for _, col := range v.ProjectColumns() {
			projectID, ok := projectByColumn[col]
			if !ok {
				continue
			}
			amount, ok := sheet.ParseAmount(v.Cell(col))
			if !ok {
				continue
			}

			if isContractor {
				events.Certifications = append(events.Certifications, model.ContractorCertification{
					ContractorID:  contractorID,
					ProjectID:     projectID,
					Amount:        amount,
					Currency:      model.CurrencyARS,
					Date:          scope.BaseDate,
					Status:        model.StatusPending,
					PayrollWeekID: scope.WeekID,
					Source:        scope.Source,
				})
				continue
			}

			events.FundRequests = append(events.FundRequests, model.FundRequest{
				RequesterName: name,
				Category:      deriveCategory(category),
				ProjectID:     projectID,
				Amount:        amount,
				Currency:      model.CurrencyARS,
				ExchangeRate:  scope.ExchangeRate,
				Status:        model.StatusPending,
				Date:          scope.BaseDate,
				Description:   requestDescription(name, category),
				Source:        scope.Source,
			})
		}
	}

	return events, warnings
}

// dayWalk emits one attendance event per worked day cell, dated by the day
// column's ordinal position from the sheet base date. A cell whose text
// resolves to a known project attaches that project; otherwise the column
// header's project applies, when it has one.
func (c *MappedClassifier) dayWalk(v sheet.RowView, employeeID string, scope Scope, res *resolve.Resolver, dayProjects map[int]string) []model.AttendanceRecord {
	var records []model.AttendanceRecord
	for ordinal, dc := range v.DayColumns() {
		cell := v.Cell(dc.Index)
		if !sheet.IsDayCellWorked(cell) {
			continue
		}

		projectID := ""
		if pid, ok := res.MatchProject(cell); ok {
			projectID = pid
		} else if pid, ok := dayProjects[dc.Index]; ok {
			projectID = pid
		}

		records = append(records, model.AttendanceRecord{
			EmployeeID:    employeeID,
			Date:          scope.BaseDate.AddDate(0, 0, ordinal),
			Status:        model.AttendancePresent,
			LateHours:     0,
			ProjectID:     projectID,
			PayrollWeekID: scope.WeekID,
			Source:        scope.Source,
		})
	}
	return records
}
