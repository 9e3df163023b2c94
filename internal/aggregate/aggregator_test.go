package aggregate

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmfigueroa/planilla/internal/common"
	"github.com/jmfigueroa/planilla/internal/model"
	"github.com/jmfigueroa/planilla/internal/storage"
)

func setupWeek(t *testing.T) (*storage.SQLiteStorage, *model.PayrollWeek) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	week, err := store.EnsurePayrollWeek(context.Background(), time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), 1000)
	require.NoError(t, err)
	return store, week
}

// seedStandardWeek loads one employee with two present days, an approved and
// a pending certification, an approved fund request and a cash advance.
func seedStandardWeek(t *testing.T, store *storage.SQLiteStorage, week *model.PayrollWeek) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, &model.Employee{ID: "emp-1", Name: "Juan Perez", DailyWage: 1500}))

	for day := 0; day < 2; day++ {
		rec := &model.AttendanceRecord{
			EmployeeID:    "emp-1",
			Date:          week.StartDate.AddDate(0, 0, day),
			Status:        model.AttendancePresent,
			ProjectID:     "prj-a",
			PayrollWeekID: week.ID,
			Source:        model.SourceImport,
		}
		require.NoError(t, store.InsertAttendance(ctx, rec))
	}

	absent := &model.AttendanceRecord{
		EmployeeID:    "emp-1",
		Date:          week.StartDate.AddDate(0, 0, 2),
		Status:        model.AttendanceAbsent,
		PayrollWeekID: week.ID,
		Source:        model.SourceImport,
	}
	require.NoError(t, store.InsertAttendance(ctx, absent))

	approved := &model.ContractorCertification{
		ContractorID:  "con-1",
		ProjectID:     "prj-a",
		Amount:        4000,
		Currency:      model.CurrencyARS,
		Date:          week.StartDate,
		Status:        model.StatusApproved,
		PayrollWeekID: week.ID,
		Source:        model.SourceImport,
	}
	require.NoError(t, store.InsertCertification(ctx, approved))

	pending := &model.ContractorCertification{
		ContractorID:  "con-2",
		ProjectID:     "prj-b",
		Amount:        2000,
		Currency:      model.CurrencyARS,
		Date:          week.StartDate,
		Status:        model.StatusPending,
		PayrollWeekID: week.ID,
		Source:        model.SourceImport,
	}
	require.NoError(t, store.InsertCertification(ctx, pending))

	request := &model.FundRequest{
		Category:  "Materiales",
		ProjectID: "prj-a",
		Amount:    1500,
		Currency:  model.CurrencyARS,
		Status:    model.StatusApproved,
		Date:      week.StartDate.AddDate(0, 0, 1),
		Source:    model.SourceImport,
	}
	require.NoError(t, store.InsertFundRequest(ctx, request))

	advance := &model.CashAdvance{
		EmployeeID:    "emp-1",
		Amount:        500,
		Date:          week.StartDate,
		PayrollWeekID: week.ID,
	}
	require.NoError(t, store.SaveCashAdvance(ctx, advance))
}

func TestProjectedSummaryCountsEverythingWithoutDeductions(t *testing.T) {
	store, week := setupWeek(t)
	seedStandardWeek(t, store, week)

	summary, err := NewAggregator(store).Summarize(context.Background(), week.StartDate, Projected())
	require.NoError(t, err)

	// 2 present days * 1500 wage. The absent day contributes nothing.
	assert.Equal(t, 3000.0, summary.LaborCost)
	// Projected counts both approved and pending certifications.
	assert.Equal(t, 6000.0, summary.Certifications)
	assert.Equal(t, 1500.0, summary.FundRequests)
	assert.Equal(t, 0.0, summary.Deductions)
	assert.Equal(t, 10500.0, summary.GrandTotal)
}

func TestSettlementSummaryFiltersAndDeducts(t *testing.T) {
	store, week := setupWeek(t)
	seedStandardWeek(t, store, week)

	summary, err := NewAggregator(store).Summarize(context.Background(), week.StartDate, Settlement())
	require.NoError(t, err)

	assert.Equal(t, 3000.0, summary.LaborCost)
	// Settlement drops the pending certification.
	assert.Equal(t, 4000.0, summary.Certifications)
	assert.Equal(t, 1500.0, summary.FundRequests)
	assert.Equal(t, 500.0, summary.Deductions)
	assert.Equal(t, 8000.0, summary.GrandTotal)
}

func TestProjectBreakdownExcludesUnresolvedProjects(t *testing.T) {
	store, week := setupWeek(t)
	seedStandardWeek(t, store, week)
	ctx := context.Background()

	// A fund request with no project counts in the week total only.
	orphan := &model.FundRequest{
		Category: "Caja Chica",
		Amount:   800,
		Currency: model.CurrencyARS,
		Status:   model.StatusApproved,
		Date:     week.StartDate,
		Source:   model.SourceManual,
	}
	require.NoError(t, store.InsertFundRequest(ctx, orphan))

	summary, err := NewAggregator(store).Summarize(ctx, week.StartDate, Projected())
	require.NoError(t, err)
	assert.Equal(t, 2300.0, summary.FundRequests)

	require.Len(t, summary.Projects, 2)
	assert.Equal(t, "prj-a", summary.Projects[0].ProjectID)
	assert.Equal(t, 3000.0, summary.Projects[0].LaborCost)
	assert.Equal(t, 4000.0, summary.Projects[0].Certifications)
	assert.Equal(t, 1500.0, summary.Projects[0].FundRequests)
	assert.Equal(t, 8500.0, summary.Projects[0].Total)

	assert.Equal(t, "prj-b", summary.Projects[1].ProjectID)
	assert.Equal(t, 2000.0, summary.Projects[1].Certifications)

	var projectRequests float64
	for _, p := range summary.Projects {
		projectRequests += p.FundRequests
	}
	assert.Less(t, projectRequests, summary.FundRequests, "orphan request stays out of every project slice")
}

func TestUSDNormalization(t *testing.T) {
	store, week := setupWeek(t)
	ctx := context.Background()

	withOwnRate := &model.FundRequest{
		Category:     "Materiales",
		Amount:       100,
		Currency:     model.CurrencyUSD,
		ExchangeRate: 1000,
		Status:       model.StatusApproved,
		Date:         week.StartDate,
		Source:       model.SourceImport,
	}
	require.NoError(t, store.InsertFundRequest(ctx, withOwnRate))

	// No event rate: falls back to the week's rate of 1000.
	usdCert := &model.ContractorCertification{
		ContractorID:  "con-1",
		ProjectID:     "prj-a",
		Amount:        50,
		Currency:      model.CurrencyUSD,
		Date:          week.StartDate,
		Status:        model.StatusApproved,
		PayrollWeekID: week.ID,
		Source:        model.SourceImport,
	}
	require.NoError(t, store.InsertCertification(ctx, usdCert))

	arsRequest := &model.FundRequest{
		Category: "Materiales",
		Amount:   500,
		Currency: model.CurrencyARS,
		Status:   model.StatusApproved,
		Date:     week.StartDate,
		Source:   model.SourceImport,
	}
	require.NoError(t, store.InsertFundRequest(ctx, arsRequest))

	summary, err := NewAggregator(store).Summarize(ctx, week.StartDate, Projected())
	require.NoError(t, err)
	assert.Equal(t, 100500.0, summary.FundRequests)
	assert.Equal(t, 50000.0, summary.Certifications)
}

func TestSettlementDeductsLateness(t *testing.T) {
	store, week := setupWeek(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, &model.Employee{ID: "emp-1", Name: "Juan Perez", DailyWage: 1600}))

	late := &model.AttendanceRecord{
		EmployeeID:    "emp-1",
		Date:          week.StartDate,
		Status:        model.AttendancePresent,
		LateHours:     2,
		PayrollWeekID: week.ID,
		Source:        model.SourceImport,
	}
	require.NoError(t, store.InsertAttendance(ctx, late))

	settlement, err := NewAggregator(store).Summarize(ctx, week.StartDate, Settlement())
	require.NoError(t, err)

	// Two late hours at 1600/8 per hour.
	assert.Equal(t, 1600.0, settlement.LaborCost)
	assert.Equal(t, 400.0, settlement.Deductions)
	assert.Equal(t, 1200.0, settlement.GrandTotal)

	// Projected ignores deductions entirely.
	projected, err := NewAggregator(store).Summarize(ctx, week.StartDate, Projected())
	require.NoError(t, err)
	assert.Equal(t, 0.0, projected.Deductions)
	assert.Equal(t, 1600.0, projected.GrandTotal)
}

func TestSummarizeMissingWeek(t *testing.T) {
	store, _ := setupWeek(t)

	_, err := NewAggregator(store).Summarize(context.Background(), time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC), Projected())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUnknownEmployeeWageContributesNothing(t *testing.T) {
	store, week := setupWeek(t)
	ctx := context.Background()

	rec := &model.AttendanceRecord{
		EmployeeID:    "ghost",
		Date:          week.StartDate,
		Status:        model.AttendancePresent,
		PayrollWeekID: week.ID,
		Source:        model.SourceImport,
	}
	require.NoError(t, store.InsertAttendance(ctx, rec))

	summary, err := NewAggregator(store).Summarize(ctx, week.StartDate, Projected())
	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.LaborCost)
}

func TestCoerce(t *testing.T) {
	assert.Equal(t, 0.0, coerce(math.NaN()))
	assert.Equal(t, 0.0, coerce(math.Inf(1)))
	assert.Equal(t, 0.0, coerce(math.Inf(-1)))
	assert.Equal(t, 42.5, coerce(42.5))
}
