package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"waste-platform/internal/services"
)

const variationSheet = "Variation"

// WriteVariationXLSX writes the variation table to an XLSX workbook with
// year-qualified column headers, matching what the dashboard displays.
func WriteVariationXLSX(result *services.VariationResult, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(variationSheet)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"District",
		"Percent change (%)",
		result.StartLabel,
		result.EndLabel,
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(variationSheet, cell, header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for rowIdx, row := range result.Rows {
		values := []interface{}{
			row.District,
			row.PercentChange,
			row.StartValue,
			row.EndValue,
		}
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(variationSheet, cell, value); err != nil {
				return fmt.Errorf("writing row %d: %w", rowIdx+1, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}
