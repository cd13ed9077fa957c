package ingest

import (
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX turns every sheet of a workbook into one table. The sheet name
// doubles as the table title, so a sheet called "損益表" classifies even when
// its header row is ambiguous.
func ReadXLSX(r io.Reader) ([]Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &DocumentError{Format: "xlsx", Err: err}
	}
	defer f.Close()

	var tables []Table
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		grid := make([][]string, 0, len(rows))
		for _, row := range rows {
			if !blank(row) {
				grid = append(grid, row)
			}
		}
		if t, ok := NewTable("xlsx:"+sheet, 0, grid); ok {
			t.Title = sheet
			tables = append(tables, t)
		}
	}
	if len(tables) == 0 {
		return nil, ErrEmptyDocument
	}
	return tables, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
