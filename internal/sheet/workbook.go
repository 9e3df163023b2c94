// Package sheet reads payroll workbooks and derives the structural mapping
// used to interpret their rows.
package sheet

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet's raw cell data.
type Sheet struct {
	Name string
	Rows [][]string
}

// ReadWorkbook parses an XLSX workbook from r and returns every sheet's raw
// rows in workbook order.
func ReadWorkbook(r io.Reader) ([]Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	sheets := make([]Sheet, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		sheets = append(sheets, Sheet{Name: name, Rows: rows})
	}

	return sheets, nil
}

// Sheet names are human-typed dates. Layouts are tried in order; the padded
// and single-digit variants of each format are separate entries.
var sheetDateLayouts = []string{
	"02.01.2006",
	"2.1.2006",
	"02-01-2006",
	"2-1-2006",
	"2006-01-02",
	"2006-1-2",
	"02/01/2006",
	"2/1/2006",
}

// ParseSheetDate parses a sheet name as the date its payroll data starts at.
// The first layout that parses wins, provided its year falls in [2000, 2030];
// anything else is an error and the caller skips the sheet with a warning.
func ParseSheetDate(name string) (time.Time, error) {
	trimmed := strings.TrimSpace(name)
	for _, layout := range sheetDateLayouts {
		t, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		if t.Year() < 2000 || t.Year() > 2030 {
			return time.Time{}, fmt.Errorf("sheet name %q parses to implausible year %d", name, t.Year())
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("sheet name %q is not a recognizable date", name)
}
