package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/baiirun/reqtrack/internal/model"
)

// XLSXContentType is the media type served for spreadsheet exports.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet is the worksheet the export is written to.
const Sheet = "Sheet1"

// numeric columns are stored as numbers on primary rows.
var numericColumns = map[int]bool{0: true, 5: true}

// WriteXLSX writes the same table as WriteCSV to a single-sheet workbook.
func WriteXLSX(w io.Writer, rows []model.ExportRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := setRow(f, 1, toCells(Header, false)); err != nil {
		return err
	}
	for i, row := range Flatten(rows) {
		if err := setRow(f, i+2, toCells(row, true)); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, n int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", n, err)
	}
	if err := f.SetSheetRow(Sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", n, err)
	}
	return nil
}

func toCells(row []string, numbers bool) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
		if !numbers || !numericColumns[i] || v == "" {
			continue
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cells[i] = n
		}
	}
	return cells
}
