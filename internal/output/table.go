package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorBlue).PaddingRight(1)
	tableCellStyle   = lipgloss.NewStyle().PaddingRight(1)
)

// Table collects rows for borderless column output, the layout used by
// list commands.
type Table struct {
	headers []string
	rows    [][]string
	right   map[int]bool
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, right: map[int]bool{}}
}

// Row appends a row. Missing cells render empty.
func (t *Table) Row(cells ...string) *Table {
	t.rows = append(t.rows, cells)
	return t
}

// AlignRight right-aligns the given zero-based columns, for numbers.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		t.right[c] = true
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// String renders the table.
func (t *Table) String() string {
	tbl := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		Headers(t.headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := tableCellStyle
			if row == table.HeaderRow {
				s = tableHeaderStyle
			}
			if t.right[col] {
				return s.Align(lipgloss.Right)
			}
			return s
		})
	for _, row := range t.rows {
		tbl.Row(row...)
	}
	return tbl.String()
}
