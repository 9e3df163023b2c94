package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jmfigueroa/planilla/internal/aggregate"
	"github.com/jmfigueroa/planilla/internal/common"
	"github.com/jmfigueroa/planilla/internal/engine"
	"github.com/jmfigueroa/planilla/internal/infer"
	"github.com/jmfigueroa/planilla/internal/model"
	"github.com/jmfigueroa/planilla/internal/service"
	"github.com/jmfigueroa/planilla/internal/sheet"
	"github.com/jmfigueroa/planilla/internal/storage"
)

func newTestServer(t *testing.T, provider infer.Provider) (*Server, *storage.SQLiteStorage) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.SaveEmployee(ctx, &model.Employee{ID: "emp-juan", Name: "Juan Perez", DailyWage: 1500}))
	require.NoError(t, store.SaveContractor(ctx, &model.Contractor{ID: "con-acme", Name: "ACME SRL"}))
	require.NoError(t, store.SaveProject(ctx, &model.Project{ID: "prj-a", Name: "Obra A"}))

	importer := engine.NewImporter(store, sheet.NewAnalyzer(provider, sheet.ModeInference))
	return NewServer("127.0.0.1:0", importer, aggregate.NewAggregator(store)), store
}

func testWorkbookBytes(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "01.07.2024"))
	// Trailing rows must carry content: the workbook reader drops all-empty
	// rows at the end of a sheet.
	rows := [][]string{
		{"Nombre", "Categoria", "Lunes", "Martes", "Obra A"},
		{"Juan Perez", "Oficial", "1", "", ""},
		{"ACME SRL", "", "", "", "8000"},
		{"Pedro Gomez", "Fletes", "", "", "1200"},
		{"Total", "", "", "", "9200"},
	}
	for ri := range rows {
		cell, err := excelize.CoordinatesToCellName(1, ri+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("01.07.2024", cell, &rows[ri]))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func testMapping() *model.StructuralMapping {
	category := 1
	return &model.StructuralMapping{
		HeaderRowIndex:      0,
		DataStartRowIndex:   1,
		NameColumnIndex:     0,
		CategoryColumnIndex: &category,
		DayColumns: []model.DayColumn{
			{Date: "2024-07-01", Index: 2},
			{Date: "2024-07-02", Index: 3},
		},
		ProjectColumnIndices: []int{4},
	}
}

func multipartImport(t *testing.T, workbook []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "planilla.xlsx")
	require.NoError(t, err)
	_, err = io.Copy(part, bytes.NewReader(workbook))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/imports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImportEndpoint(t *testing.T) {
	server, _ := newTestServer(t, &infer.StubProvider{Mapping: testMapping()})

	req := multipartImport(t, testWorkbookBytes(t), map[string]string{"exchangeRateWeekly": "950"})
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var summary service.ImportSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.SheetsProcessed)
	assert.Equal(t, 1, summary.Created.Attendance)
	assert.Equal(t, 1, summary.Created.Certifications)
	assert.Equal(t, 1, summary.Created.FundRequests)
}

func TestImportEndpointMissingFile(t *testing.T) {
	server, _ := newTestServer(t, &infer.StubProvider{Mapping: testMapping()})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("exchangeRateWeekly", "950"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/imports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportEndpointRejectsBadOptions(t *testing.T) {
	server, _ := newTestServer(t, &infer.StubProvider{Mapping: testMapping()})

	for name, fields := range map[string]map[string]string{
		"bad mode":     {"mode": "wizard"},
		"bad rate":     {"exchangeRateWeekly": "lots"},
		"bad dry run":  {"dryRun": "perhaps"},
		"bad override": {"analysisOverride": "{nope"},
	} {
		t.Run(name, func(t *testing.T) {
			req := multipartImport(t, testWorkbookBytes(t), fields)
			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestImportEndpointInferenceFailureIsBadGateway(t *testing.T) {
	server, _ := newTestServer(t, &infer.StubProvider{Err: common.ErrInference})

	req := multipartImport(t, testWorkbookBytes(t), nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestImportEndpointMissingProviderIsBadGateway(t *testing.T) {
	server, _ := newTestServer(t, nil)

	req := multipartImport(t, testWorkbookBytes(t), nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestWeekSummaryEndpoint(t *testing.T) {
	server, _ := newTestServer(t, &infer.StubProvider{Mapping: testMapping()})

	// Import first so a week exists.
	req := multipartImport(t, testWorkbookBytes(t), map[string]string{"exchangeRateWeekly": "950"})
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/weeks/2024-07-01/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var summary aggregate.WeeklySummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1500.0, summary.LaborCost)
	assert.Equal(t, 8000.0, summary.Certifications)

	// Settlement view drops the pending certification.
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/weeks/2024-07-01/summary?view=settlement", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 0.0, summary.Certifications)
}

func TestWeekSummaryEndpointErrors(t *testing.T) {
	server, _ := newTestServer(t, &infer.StubProvider{Mapping: testMapping()})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/weeks/not-a-date/summary", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/weeks/2024-07-01/summary?view=psychic", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/weeks/2024-07-01/summary", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
