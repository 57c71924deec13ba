package expense

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

// exportRow is the flat export shape shared by the CSV and Excel writers.
type exportRow struct {
	Date     string `csv:"date"`
	Note     string `csv:"note"`
	Category string `csv:"category"`
	Amount   string `csv:"amount"`
}

const exportDateLayout = "2006-01-02 15:04"

func toExportRows(expenses []Expense) []exportRow {
	rows := make([]exportRow, 0, len(expenses))
	for _, e := range expenses {
		category := ""
		if e.CategoryName != nil {
			category = *e.CategoryName
		}
		rows = append(rows, exportRow{
			Date:     e.TransactionDatetime.Format(exportDateLayout),
			Note:     e.Note,
			Category: category,
			Amount:   e.Amount.StringFixed(2),
		})
	}
	return rows
}

// WriteCSV writes the expenses as CSV with a header row.
func WriteCSV(w io.Writer, expenses []Expense) error {
	if err := gocsv.Marshal(toExportRows(expenses), w); err != nil {
		return fmt.Errorf("failed to write CSV export: %w", err)
	}
	return nil
}

// WriteExcel writes the expenses as a single-sheet xlsx workbook.
func WriteExcel(w io.Writer, expenses []Expense) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Expenses"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headers := []string{"Date", "Note", "Category", "Amount"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, row := range toExportRows(expenses) {
		values := []any{row.Date, row.Note, row.Category, row.Amount}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
