package reconcile

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmfigueroa/planilla/internal/classify"
	"github.com/jmfigueroa/planilla/internal/model"
	"github.com/jmfigueroa/planilla/internal/storage"
)

func setupTest(t *testing.T) (*storage.SQLiteStorage, *model.PayrollWeek) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	week, err := store.EnsurePayrollWeek(context.Background(), time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), 950)
	require.NoError(t, err)
	return store, week
}

func importEvents(week *model.PayrollWeek, source model.Source) classify.Events {
	return classify.Events{
		Attendance: []model.AttendanceRecord{
			{
				EmployeeID:    "emp-1",
				Date:          week.StartDate,
				Status:        model.AttendancePresent,
				PayrollWeekID: week.ID,
				Source:        source,
			},
		},
		Certifications: []model.ContractorCertification{
			{
				ContractorID:  "con-1",
				ProjectID:     "prj-1",
				Amount:        8000,
				Currency:      model.CurrencyARS,
				Date:          week.StartDate,
				Status:        model.StatusPending,
				PayrollWeekID: week.ID,
				Source:        source,
			},
		},
		FundRequests: []model.FundRequest{
			{
				Category: "Materiales",
				Amount:   1500,
				Currency: model.CurrencyARS,
				Status:   model.StatusPending,
				Date:     week.StartDate,
				Source:   source,
			},
		},
	}
}

func TestApplyInsertsEvents(t *testing.T) {
	store, week := setupTest(t)
	ctx := context.Background()

	events := importEvents(week, model.SourceImport)
	counts, err := NewReconciler(store).Apply(ctx, []WeekEvents{{Week: week, Events: events}}, model.SourceImport)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Attendance)
	assert.Equal(t, 1, counts.Certifications)
	assert.Equal(t, 1, counts.FundRequests)

	attendance, err := store.GetAttendanceByWeek(ctx, week.ID)
	require.NoError(t, err)
	require.Len(t, attendance, 1)
	assert.NotEmpty(t, attendance[0].ID)
}

func TestApplyIsIdempotent(t *testing.T) {
	store, week := setupTest(t)
	ctx := context.Background()
	reconciler := NewReconciler(store)

	for i := 0; i < 3; i++ {
		events := importEvents(week, model.SourceImport)
		_, err := reconciler.Apply(ctx, []WeekEvents{{Week: week, Events: events}}, model.SourceImport)
		require.NoError(t, err)
	}

	attendance, err := store.GetAttendanceByWeek(ctx, week.ID)
	require.NoError(t, err)
	assert.Len(t, attendance, 1)

	certs, err := store.GetCertificationsByWeek(ctx, week.ID, nil)
	require.NoError(t, err)
	assert.Len(t, certs, 1)

	requests, err := store.GetFundRequestsByDateRange(ctx, week.StartDate, week.EndDate, nil)
	require.NoError(t, err)
	assert.Len(t, requests, 1)
}

func TestApplyReplacesOnlyOwnSource(t *testing.T) {
	store, week := setupTest(t)
	ctx := context.Background()

	manual := &model.AttendanceRecord{
		EmployeeID:    "emp-manual",
		Date:          week.StartDate,
		Status:        model.AttendancePresent,
		PayrollWeekID: week.ID,
		Source:        model.SourceManual,
	}
	require.NoError(t, store.InsertAttendance(ctx, manual))

	events := importEvents(week, model.SourceImport)
	_, err := NewReconciler(store).Apply(ctx, []WeekEvents{{Week: week, Events: events}}, model.SourceImport)
	require.NoError(t, err)

	attendance, err := store.GetAttendanceByWeek(ctx, week.ID)
	require.NoError(t, err)
	assert.Len(t, attendance, 2, "manual record must survive the import")
}

func TestApplyLegacyKeepsFundRequests(t *testing.T) {
	store, week := setupTest(t)
	ctx := context.Background()
	reconciler := NewReconciler(store)

	// Seed a legacy-tagged fund request as if written by an earlier tool.
	seed := &model.FundRequest{
		Category: "Materiales",
		Amount:   999,
		Currency: model.CurrencyARS,
		Status:   model.StatusPending,
		Date:     week.StartDate,
		Source:   model.SourceImportLegacy,
	}
	require.NoError(t, store.InsertFundRequest(ctx, seed))

	events := classify.Events{
		Attendance: []model.AttendanceRecord{
			{
				EmployeeID:    "emp-1",
				Date:          week.StartDate,
				Status:        model.AttendancePresent,
				PayrollWeekID: week.ID,
				Source:        model.SourceImportLegacy,
			},
		},
	}
	_, err := reconciler.Apply(ctx, []WeekEvents{{Week: week, Events: events}}, model.SourceImportLegacy)
	require.NoError(t, err)

	requests, err := store.GetFundRequestsByDateRange(ctx, week.StartDate, week.EndDate, nil)
	require.NoError(t, err)
	assert.Len(t, requests, 1, "legacy imports never clear fund requests")
}

func TestApplyChunksLargeEventSets(t *testing.T) {
	store, week := setupTest(t)
	ctx := context.Background()

	var events classify.Events
	for i := 0; i < MaxOpsPerTransaction+50; i++ {
		events.Attendance = append(events.Attendance, model.AttendanceRecord{
			EmployeeID:    fmt.Sprintf("emp-%d", i),
			Date:          week.StartDate,
			Status:        model.AttendancePresent,
			PayrollWeekID: week.ID,
			Source:        model.SourceImport,
		})
	}

	counts, err := NewReconciler(store).Apply(ctx, []WeekEvents{{Week: week, Events: events}}, model.SourceImport)
	require.NoError(t, err)
	assert.Equal(t, MaxOpsPerTransaction+50, counts.Attendance)

	attendance, err := store.GetAttendanceByWeek(ctx, week.ID)
	require.NoError(t, err)
	assert.Len(t, attendance, MaxOpsPerTransaction+50)
}

func TestApplyQueuesAllWeeksBeforeFlushing(t *testing.T) {
	store, week1 := setupTest(t)
	ctx := context.Background()

	week2, err := store.EnsurePayrollWeek(ctx, week1.StartDate.AddDate(0, 0, 7), 950)
	require.NoError(t, err)

	// A chunk size of 3 forces transaction boundaries that cut through both
	// weeks' operations.
	reconciler := &Reconciler{storage: store, chunkSize: 3}

	counts, err := reconciler.Apply(ctx, []WeekEvents{
		{Week: week1, Events: importEvents(week1, model.SourceImport)},
		{Week: week2, Events: importEvents(week2, model.SourceImport)},
	}, model.SourceImport)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Attendance)
	assert.Equal(t, 2, counts.Certifications)

	for _, week := range []*model.PayrollWeek{week1, week2} {
		attendance, err := store.GetAttendanceByWeek(ctx, week.ID)
		require.NoError(t, err)
		assert.Len(t, attendance, 1)
	}
}

func TestApplyRejectsNilWeek(t *testing.T) {
	store, _ := setupTest(t)
	reconciler := NewReconciler(store)

	_, err := reconciler.Apply(context.Background(), []WeekEvents{{}}, model.SourceImport)
	assert.Error(t, err)
}

func TestApplyInvalidEventRollsBack(t *testing.T) {
	store, week := setupTest(t)
	ctx := context.Background()

	events := classify.Events{
		Attendance: []model.AttendanceRecord{
			{
				EmployeeID:    "emp-1",
				Date:          week.StartDate,
				Status:        model.AttendancePresent,
				PayrollWeekID: week.ID,
				Source:        model.SourceImport,
			},
		},
		Certifications: []model.ContractorCertification{
			// Negative amount fails validation inside the transaction.
			{
				ContractorID:  "con-1",
				ProjectID:     "prj-1",
				Amount:        -5,
				Date:          week.StartDate,
				Status:        model.StatusPending,
				PayrollWeekID: week.ID,
				Source:        model.SourceImport,
			},
		},
	}

	_, err := NewReconciler(store).Apply(ctx, []WeekEvents{{Week: week, Events: events}}, model.SourceImport)
	require.Error(t, err)

	attendance, err := store.GetAttendanceByWeek(ctx, week.ID)
	require.NoError(t, err)
	assert.Empty(t, attendance, "failed chunk must roll back entirely")
}
