package steps

import (
	"strings"

	"github.com/cucumber/godog"
	messages "github.com/cucumber/messages/go/v21"
)

// tableCells returns the trimmed cell values of every row
func tableCells(table *godog.Table) [][]string {
	rows := make([][]string, len(table.Rows))
	for i, row := range table.Rows {
		rows[i] = rowValues(row)
	}
	return rows
}

func rowValues(row *messages.PickleTableRow) []string {
	values := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		values[i] = strings.TrimSpace(cell.Value)
	}
	return values
}

// tableLines joins each row into a whitespace-separated line
func tableLines(table *godog.Table) []string {
	rows := tableCells(table)
	lines := make([]string, len(rows))
	for i, cells := range rows {
		lines[i] = strings.Join(cells, " ")
	}
	return lines
}
