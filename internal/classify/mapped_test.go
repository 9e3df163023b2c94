package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmfigueroa/planilla/internal/model"
	"github.com/jmfigueroa/planilla/internal/resolve"
)

func testResolver() *resolve.Resolver {
	return resolve.NewResolver(
		[]model.Employee{
			{ID: "emp-juan", Name: "Juan Perez", DailyWage: 10000},
			{ID: "emp-maria", Name: "María López", DailyWage: 12000},
		},
		[]model.Contractor{
			{ID: "con-acme", Name: "ACME SRL"},
		},
		[]model.Project{
			{ID: "prj-a", Name: "Obra A"},
			{ID: "prj-b", Name: "Obra B"},
		},
	)
}

func testMapping() *model.StructuralMapping {
	category := 1
	return &model.StructuralMapping{
		HeaderRowIndex:       0,
		DataStartRowIndex:    1,
		NameColumnIndex:      0,
		CategoryColumnIndex:  &category,
		ProjectColumnIndices: []int{5, 6},
		DayColumns: []model.DayColumn{
			{Index: 2, Date: "2026-02-03"},
			{Index: 3, Date: "2026-02-04"},
			{Index: 4, Date: "2026-02-05"},
		},
	}
}

func testScope() Scope {
	return Scope{
		BaseDate:     time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
		WeekID:       "week-1",
		Source:       model.SourceImport,
		ExchangeRate: 1000,
	}
}

func header() []string {
	return []string{"Nombre", "Categoria", "Lunes", "Martes", "Miercoles", "Obra A", "Obra B"}
}

func TestMappedAttendanceDayWalk(t *testing.T) {
	rows := [][]string{
		header(),
		// Worked Tuesday on a project cell, skipped Monday ("-") and
		// Wednesday ("0").
		{"Juan Perez", "Oficial", "-", "Obra A", "0", "", ""},
	}

	events, warnings := NewMappedClassifier().Classify(rows, testMapping(), testResolver(), testScope())
	assert.Empty(t, warnings)
	require.Len(t, events.Attendance, 1)

	rec := events.Attendance[0]
	assert.Equal(t, "emp-juan", rec.EmployeeID)
	assert.Equal(t, time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC), rec.Date)
	assert.Equal(t, "prj-a", rec.ProjectID)
	assert.Equal(t, model.AttendancePresent, rec.Status)
	assert.Equal(t, model.SourceImport, rec.Source)
	assert.Empty(t, events.Certifications)
	assert.Empty(t, events.FundRequests)
}

func TestMappedAttendanceUnresolvedProjectCellLeftUnassigned(t *testing.T) {
	rows := [][]string{
		header(),
		{"Juan Perez", "Oficial", "1", "", "", "", ""},
	}

	events, _ := NewMappedClassifier().Classify(rows, testMapping(), testResolver(), testScope())
	require.Len(t, events.Attendance, 1)
	assert.Empty(t, events.Attendance[0].ProjectID)
	assert.Equal(t, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), events.Attendance[0].Date)
}

func TestMappedDayColumnHeaderCarriesProject(t *testing.T) {
	rows := [][]string{
		{"Nombre", "Categoria", "Obra A", "Martes", "Miercoles", "Obra A", "Obra B"},
		// An amount in the day cell still marks a worked day; the project
		// comes from the column header.
		{"Juan Perez", "Oficial", "5000", "", "", "", ""},
		// A project name in the cell wins over the header.
		{"María López", "Oficial", "Obra B", "", "", "", ""},
	}

	events, _ := NewMappedClassifier().Classify(rows, testMapping(), testResolver(), testScope())
	require.Len(t, events.Attendance, 2)

	assert.Equal(t, "emp-juan", events.Attendance[0].EmployeeID)
	assert.Equal(t, "prj-a", events.Attendance[0].ProjectID)
	assert.Equal(t, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), events.Attendance[0].Date)

	assert.Equal(t, "emp-maria", events.Attendance[1].EmployeeID)
	assert.Equal(t, "prj-b", events.Attendance[1].ProjectID)
}

func TestMappedContractorCertification(t *testing.T) {
	rows := [][]string{
		header(),
		{"ACME SRL", "", "", "", "", "", "15000"},
	}

	events, warnings := NewMappedClassifier().Classify(rows, testMapping(), testResolver(), testScope())
	assert.Empty(t, warnings)
	require.Len(t, events.Certifications, 1)

	cert := events.Certifications[0]
	assert.Equal(t, "con-acme", cert.ContractorID)
	assert.Equal(t, "prj-b", cert.ProjectID)
	assert.Equal(t, 15000.0, cert.Amount)
	assert.Equal(t, model.StatusPending, cert.Status)
	assert.Empty(t, events.FundRequests)
}

func TestMappedFundRequestFromUnknownName(t *testing.T) {
	rows := [][]string{
		header(),
		{"", "Caja", "", "", "", "", "3000"},
	}

	events, _ := NewMappedClassifier().Classify(rows, testMapping(), testResolver(), testScope())
	require.Len(t, events.FundRequests, 1)

	req := events.FundRequests[0]
	assert.Equal(t, "Caja Chica", req.Category)
	assert.Equal(t, "prj-b", req.ProjectID)
	assert.Equal(t, 3000.0, req.Amount)
	assert.Equal(t, model.StatusPending, req.Status)
	assert.Equal(t, 1000.0, req.ExchangeRate)
	assert.Equal(t, "- Caja", req.Description)
}

func TestMappedFundRequestCategories(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"Flete a obra", "Logística y PMD"},
		{"Caja chica", "Caja Chica"},
		{"Cemento", "Materiales"},
		{"", "Materiales"},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			rows := [][]string{
				header(),
				{"Proveedor X", tt.category, "", "", "", "2000", ""},
			}
			events, _ := NewMappedClassifier().Classify(rows, testMapping(), testResolver(), testScope())
			require.Len(t, events.FundRequests, 1)
			assert.Equal(t, tt.want, events.FundRequests[0].Category)
		})
	}
}

func TestMappedSkipsTotalAndEmptyRows(t *testing.T) {
	rows := [][]string{
		header(),
		{"", "", "", "", "", "", ""},
		{"TOTAL", "", "", "", "", "99999", "99999"},
		{"Subtotal Semana", "", "", "", "", "5000", ""},
	}

	events, warnings := NewMappedClassifier().Classify(rows, testMapping(), testResolver(), testScope())
	assert.Empty(t, warnings)
	assert.Empty(t, events.Attendance)
	assert.Empty(t, events.Certifications)
	assert.Empty(t, events.FundRequests)
}

func TestMappedUnresolvedProjectHeaderWarnsAndSkipsColumn(t *testing.T) {
	rows := [][]string{
		{"Nombre", "Categoria", "Lunes", "Martes", "Miercoles", "Obra Fantasma", "Obra B"},
		{"ACME SRL", "", "", "", "", "7000", "15000"},
	}

	events, warnings := NewMappedClassifier().Classify(rows, testMapping(), testResolver(), testScope())
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Obra Fantasma")
	require.Len(t, events.Certifications, 1)
	assert.Equal(t, "prj-b", events.Certifications[0].ProjectID)
}

func TestMappedZeroAndNegativeAmountsNeverEmit(t *testing.T) {
	rows := [][]string{
		header(),
		{"ACME SRL", "", "", "", "", "0", "-500"},
		{"Proveedor X", "Caja", "", "", "", "-", ""},
	}

	events, _ := NewMappedClassifier().Classify(rows, testMapping(), testResolver(), testScope())
	assert.Empty(t, events.Certifications)
	assert.Empty(t, events.FundRequests)
}

func TestMappedDeterminism(t *testing.T) {
	rows := [][]string{
		header(),
		{"Juan Perez", "Oficial", "1", "Obra A", "", "", ""},
		{"ACME SRL", "", "", "", "", "7000", "15000"},
		{"", "Fletes", "", "", "", "1200", ""},
	}

	first, firstWarnings := NewMappedClassifier().Classify(rows, testMapping(), testResolver(), testScope())
	for i := 0; i < 5; i++ {
		again, warnings := NewMappedClassifier().Classify(rows, testMapping(), testResolver(), testScope())
		assert.Equal(t, first, again)
		assert.Equal(t, firstWarnings, warnings)
	}
}
