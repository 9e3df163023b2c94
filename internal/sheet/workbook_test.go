package sheet

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheets map[string][][]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestReadWorkbook(t *testing.T) {
	buf := buildWorkbook(t, map[string][][]string{
		"03.02.2026": {
			{"Nombre", "Categoria", "Lunes"},
			{"Juan Perez", "Oficial", "1"},
		},
	})

	sheets, err := ReadWorkbook(buf)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "03.02.2026", sheets[0].Name)
	require.Len(t, sheets[0].Rows, 2)
	assert.Equal(t, "Juan Perez", sheets[0].Rows[1][0])
}

func TestParseSheetDate(t *testing.T) {
	tests := []struct {
		name    string
		want    time.Time
		wantErr bool
	}{
		{name: "03.02.2026", want: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)},
		{name: "3.2.2026", want: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)},
		{name: "03-02-2026", want: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)},
		{name: "2026-02-03", want: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)},
		{name: "03/02/2026", want: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)},
		{name: " 03.02.2026 ", want: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)},
		{name: "31/02/2026", wantErr: true}, // not a calendar date
		{name: "Resumen", wantErr: true},
		{name: "03.02.1999", wantErr: true}, // year outside [2000, 2030]
		{name: "03.02.2031", wantErr: true},
		{name: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSheetDate(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		cell string
		want float64
		ok   bool
	}{
		{"5000", 5000, true},
		{" 15000 ", 15000, true},
		{"$3.000", 3000, true},
		{"1.234,56", 1234.56, true},
		{"1234.56", 1234.56, true},
		{"850,5", 850.5, true},
		{"0", 0, false},
		{"-", 0, false},
		{"", 0, false},
		{"-500", 0, false},
		{"x", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			got, ok := ParseAmount(tt.cell)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestIsDayCellWorked(t *testing.T) {
	assert.True(t, IsDayCellWorked("1"))
	assert.True(t, IsDayCellWorked("5000"))
	assert.True(t, IsDayCellWorked("Obra A"))
	assert.False(t, IsDayCellWorked(""))
	assert.False(t, IsDayCellWorked(" "))
	assert.False(t, IsDayCellWorked("0"))
	assert.False(t, IsDayCellWorked("-"))
}
