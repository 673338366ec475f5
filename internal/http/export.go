package http

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"strata/internal/core"
)

const exportSheetName = "Expenses"

// buildExpenseWorkbook renders a month of expenses as an xlsx workbook with
// a header row, one row per expense and a totals row. The caller owns the
// returned file and must Close it.
func buildExpenseWorkbook(expenses []core.Expense) (*excelize.File, error) {
	f := excelize.NewFile()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(sheet, exportSheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := []interface{}{"Date", "Description", "Category", "Amount"}
	if err := f.SetSheetRow(exportSheetName, "A1", &header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	row := 2
	total := core.Money{}
	for _, e := range expenses {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cell name for row %d: %w", row, err)
		}
		values := []interface{}{
			e.Date.String(),
			e.Description,
			e.Category,
			float64(e.Amount.Cents) / 100.0,
		}
		if err := f.SetSheetRow(exportSheetName, cell, &values); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
		total.Cents += e.Amount.Cents
		row++
	}

	totalRow := []interface{}{"Total", "", "", float64(total.Cents) / 100.0}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("cell name for totals row: %w", err)
	}
	if err := f.SetSheetRow(exportSheetName, cell, &totalRow); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write totals row: %w", err)
	}

	_ = f.SetColWidth(exportSheetName, "A", "A", 12)
	_ = f.SetColWidth(exportSheetName, "B", "B", 40)
	_ = f.SetColWidth(exportSheetName, "C", "C", 18)

	return f, nil
}

func exportFilename(year, month int) string {
	return fmt.Sprintf(`attachment; filename="expenses-%04d-%02d.xlsx"`, year, month)
}
