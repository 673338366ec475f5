package http

import (
	"testing"

	"strata/internal/core"
)

func TestBuildExpenseWorkbook(t *testing.T) {
	expenses := []core.Expense{
		{
			ID:          1,
			StrataID:    1,
			Date:        core.NewDate(2024, 3, 5),
			Description: "Elevator inspection",
			Amount:      core.Money{Cents: 45000},
			Category:    "maintenance",
		},
		{
			ID:          2,
			StrataID:    1,
			Date:        core.NewDate(2024, 3, 20),
			Description: "Lobby cleaning",
			Amount:      core.Money{Cents: 12050},
			Category:    "cleaning",
		},
	}

	book, err := buildExpenseWorkbook(expenses)
	if err != nil {
		t.Fatalf("buildExpenseWorkbook: %v", err)
	}
	defer book.Close()

	got, err := book.GetCellValue(exportSheetName, "A1")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if got != "Date" {
		t.Errorf("header A1 = %q, want %q", got, "Date")
	}

	got, _ = book.GetCellValue(exportSheetName, "B2")
	if got != "Elevator inspection" {
		t.Errorf("B2 = %q, want elevator row", got)
	}
	got, _ = book.GetCellValue(exportSheetName, "D3")
	if got != "120.5" {
		t.Errorf("D3 = %q, want %q", got, "120.5")
	}

	// Totals row follows the last expense.
	got, _ = book.GetCellValue(exportSheetName, "A4")
	if got != "Total" {
		t.Errorf("A4 = %q, want %q", got, "Total")
	}
	got, _ = book.GetCellValue(exportSheetName, "D4")
	if got != "570.5" {
		t.Errorf("D4 = %q, want %q", got, "570.5")
	}
}

func TestBuildExpenseWorkbook_Empty(t *testing.T) {
	book, err := buildExpenseWorkbook(nil)
	if err != nil {
		t.Fatalf("buildExpenseWorkbook: %v", err)
	}
	defer book.Close()

	got, _ := book.GetCellValue(exportSheetName, "A2")
	if got != "Total" {
		t.Errorf("A2 = %q, want totals row right after the header", got)
	}
}

func TestExportFilename(t *testing.T) {
	got := exportFilename(2024, 3)
	want := `attachment; filename="expenses-2024-03.xlsx"`
	if got != want {
		t.Errorf("exportFilename = %q, want %q", got, want)
	}
}
