package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"reportclean/internal/dataset"
)

const defaultSheetName = "Report"

// WriteXLSX writes ds as a single-sheet workbook. The header occupies row 1.
func WriteXLSX(w io.Writer, ds dataset.Dataset, sheet string) error {
	if sheet == "" {
		sheet = defaultSheetName
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := setRow(f, sheet, 1, ds.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range ds.Rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheet, cell, &cells)
}
