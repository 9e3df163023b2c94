package sheet

import (
	"sort"
	"strconv"
	"strings"

	"github.com/jmfigueroa/planilla/internal/model"
)

// RowView exposes typed accessors over one raw spreadsheet row, built once
// from the structural mapping so cell offsets are not re-derived per cell.
type RowView struct {
	mapping *model.StructuralMapping
	row     []string
	dayCols []model.DayColumn
}

// NewRowView builds a view of row under mapping. Day columns are sorted by
// ascending column index; their ordinal position drives attendance dating.
func NewRowView(row []string, mapping *model.StructuralMapping) RowView {
	dayCols := make([]model.DayColumn, len(mapping.DayColumns))
	copy(dayCols, mapping.DayColumns)
	sort.Slice(dayCols, func(i, j int) bool { return dayCols[i].Index < dayCols[j].Index })

	return RowView{row: row, mapping: mapping, dayCols: dayCols}
}

// Cell returns the trimmed cell at column index i, or "" when the row is
// shorter than i.
func (v RowView) Cell(i int) string {
	if i < 0 || i >= len(v.row) {
		return ""
	}
	return strings.TrimSpace(v.row[i])
}

// Name returns the row's name cell.
func (v RowView) Name() string {
	return v.Cell(v.mapping.NameColumnIndex)
}

// Category returns the row's category cell, or "" when the mapping has no
// category column.
func (v RowView) Category() string {
	if v.mapping.CategoryColumnIndex == nil {
		return ""
	}
	return v.Cell(*v.mapping.CategoryColumnIndex)
}

// DayColumns returns the mapping's day columns sorted by column index.
func (v RowView) DayColumns() []model.DayColumn {
	return v.dayCols
}

// ProjectColumns returns the mapping's project-amount column indices.
func (v RowView) ProjectColumns() []int {
	return v.mapping.ProjectColumnIndices
}

// IsDayCellWorked reports whether a day cell counts as a worked day. Blank,
// "0" and "-" cells never produce events.
func IsDayCellWorked(cell string) bool {
	cell = strings.TrimSpace(cell)
	return cell != "" && cell != "0" && cell != "-"
}

// ParseAmount parses a human-typed monetary cell into a strictly positive
// amount. Currency signs, spaces and thousands separators are tolerated;
// both "1234.56" and "1.234,56" styles parse. Anything non-positive or
// non-numeric reports false.
func ParseAmount(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" || s == "-" {
		return 0, false
	}

	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		// Latin style: dots group thousands, comma is the decimal mark.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case strings.Contains(s, ","):
		s = strings.Replace(s, ",", ".", 1)
	case strings.Contains(s, "."):
		// A lone dot followed by exactly three-digit groups is thousands
		// grouping ("3.000"), not a decimal point.
		if groups := strings.Split(s, "."); allThousandsGroups(groups) {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	amount, err := strconv.ParseFloat(s, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}

func allThousandsGroups(groups []string) bool {
	if len(groups) < 2 {
		return false
	}
	for i, g := range groups {
		if i == 0 {
			if g == "" || len(g) > 3 {
				return false
			}
			continue
		}
		if len(g) != 3 {
			return false
		}
	}
	return true
}
