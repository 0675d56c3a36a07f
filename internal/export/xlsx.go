// Package export serializes the daily cumulative report as an xlsx
// workbook for download.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"fecviz/internal/fec"
)

// WorkbookName is the conventional download name of the export.
const WorkbookName = "dfCAHT.xlsx"

const sheet = "Sheet1"

// Workbook serializes the threshold-filtered daily sequence as a single
// sheet with a header row and no index column: one row per day, the date
// as an ISO string and the cumulative total as a number.
func Workbook(report *fec.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(sheet, "A1", &[]any{"EcritureDate", "Cumul_TOTAL"}); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, day := range report.Days {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		total, _ := day.Total.Float64()
		if err := f.SetSheetRow(sheet, cell, &[]any{day.Date.String(), total}); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
