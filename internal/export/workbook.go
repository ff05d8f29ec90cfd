// Package export renders persisted bills as spreadsheets.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/sdfghub/property-sub001/internal/models"
)

const (
	linesSheet  = "Bill Lines"
	totalsSheet = "Totals"
)

// BillWorkbook renders the bills of one period as an XLSX workbook with a
// line-per-expense sheet and a per-billing-entity totals sheet.
func BillWorkbook(periodCode string, bills []models.Bill) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(linesSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(totalsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return nil, fmt.Errorf("failed to create amount style: %w", err)
	}

	if err := writeHeader(f, linesSheet, headerStyle, "Period", "Billing Entity", "Expense", "Amount"); err != nil {
		return nil, err
	}
	if err := writeHeader(f, totalsSheet, headerStyle, "Period", "Billing Entity", "Lines", "Total"); err != nil {
		return nil, err
	}

	row := 2
	for i, bill := range bills {
		for _, line := range bill.Lines {
			values := []interface{}{periodCode, bill.BillingEntityID, line.ExpenseID, line.Amount.InexactFloat64()}
			if err := writeRow(f, linesSheet, row, values); err != nil {
				return nil, err
			}
			row++
		}

		totalsRow := i + 2
		values := []interface{}{periodCode, bill.BillingEntityID, len(bill.Lines), bill.Total.InexactFloat64()}
		if err := writeRow(f, totalsSheet, totalsRow, values); err != nil {
			return nil, err
		}
	}

	if err := f.SetCellStyle(linesSheet, "D2", fmt.Sprintf("D%d", max(row-1, 2)), amountStyle); err != nil {
		return nil, fmt.Errorf("failed to set amount style: %w", err)
	}
	if err := f.SetCellStyle(totalsSheet, "D2", fmt.Sprintf("D%d", max(len(bills)+1, 2)), amountStyle); err != nil {
		return nil, fmt.Errorf("failed to set amount style: %w", err)
	}
	for _, sheet := range []string{linesSheet, totalsSheet} {
		if err := f.SetColWidth(sheet, "A", "C", 38); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, style int, headers ...string) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
