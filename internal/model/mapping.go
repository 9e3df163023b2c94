package model

import (
	"fmt"
	"time"
)

// DayColumn ties a spreadsheet column index to the calendar date its header
// names. Date is ISO formatted (2006-01-02) as returned by the structure
// inference provider.
type DayColumn struct {
	Date  string `json:"date"`
	Index int    `json:"index"`
}

// StructuralMapping describes how to read one spreadsheet: where the header
// and data rows start and which columns carry names, categories, day cells
// and per-project amounts. CategoryColumnIndex is a pointer because column
// zero is a valid index and the provider may omit the field entirely.
type StructuralMapping struct {
	CategoryColumnIndex  *int        `json:"categoryColumnIndex,omitempty"`
	HeaderRowIndex       int         `json:"headerRowIndex"`
	DataStartRowIndex    int         `json:"dataStartRowIndex"`
	NameColumnIndex      int         `json:"nameColumnIndex"`
	ProjectColumnIndices []int       `json:"projectColumnIndices"`
	DayColumns           []DayColumn `json:"dayColumnIndices"`
}

// Validate checks the mapping for internally consistent indices.
func (m *StructuralMapping) Validate() error {
	if m.HeaderRowIndex < 0 {
		return fmt.Errorf("header row index %d is negative", m.HeaderRowIndex)
	}
	if m.DataStartRowIndex <= m.HeaderRowIndex {
		return fmt.Errorf("data start row %d does not follow header row %d", m.DataStartRowIndex, m.HeaderRowIndex)
	}
	if m.NameColumnIndex < 0 {
		return fmt.Errorf("name column index %d is negative", m.NameColumnIndex)
	}
	for _, dc := range m.DayColumns {
		if dc.Index < 0 {
			return fmt.Errorf("day column index %d is negative", dc.Index)
		}
		if dc.Date != "" {
			if _, err := time.Parse("2006-01-02", dc.Date); err != nil {
				return fmt.Errorf("day column %d has malformed date %q", dc.Index, dc.Date)
			}
		}
	}
	return nil
}
