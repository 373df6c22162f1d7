package dashboard

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

var historyHeader = []string{
	"Order ID", "Project", "Project Key", "Vintage",
	"Tonnes", "Unit Price", "Total Cost", "Currency", "Retired At",
}

// ExportCSV renders retirement history as CSV
func ExportCSV(rows []HistoryRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(historyHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.OrderID,
			row.ProjectName,
			row.ProjectKey,
			row.Vintage,
			strconv.FormatFloat(row.Quantity, 'f', -1, 64),
			row.UnitPrice,
			row.TotalCost,
			row.Currency,
			row.RetiredAt.Format("2006-01-02"),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportExcel renders retirement history as an Excel workbook
func ExportExcel(rows []HistoryRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Retirements"
	f.SetSheetName("Sheet1", sheet)

	for col, title := range historyHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, row := range rows {
		values := []any{
			row.OrderID, row.ProjectName, row.ProjectKey, row.Vintage,
			row.Quantity, row.UnitPrice, row.TotalCost, row.Currency,
			row.RetiredAt.Format("2006-01-02"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}
