package format

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Tabular values can be written with --format table.
type Tabular interface {
	TableHeaders() []string
	TableRows() [][]string
}

var (
	tableHeader = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCell   = lipgloss.NewStyle().Padding(0, 1)
)

func WriteTable(w io.Writer, v any) error {
	t, ok := v.(Tabular)
	if !ok {
		return fmt.Errorf("format table is not supported for %T", v)
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(t.TableHeaders()...).
		Rows(t.TableRows()...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeader
			}
			return tableCell
		})
	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}
