package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"tripplan/internal/breakdown"
)

const (
	sheetPlan      = "Plan"
	sheetSpots     = "Spots"
	sheetExpenses  = "Expenses"
	sheetBreakdown = "Breakdown"
)

func writeXLSX(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetPlan); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetSpots, sheetExpenses, sheetBreakdown} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#2563EB"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	p := doc.Plan
	planRows := [][]any{
		{"Title", p.Title},
		{"Destination", p.Destination},
		{"Dates", p.DateRange()},
		{"Preferences", p.Preferences},
		{"Created", p.CreatedAt.Format(time.RFC3339)},
	}
	if p.Budget != nil {
		planRows = append(planRows, []any{"Budget", *p.Budget})
	}
	if p.NumPeople != nil {
		planRows = append(planRows, []any{"People", *p.NumPeople})
	}
	planRows = append(planRows, []any{"Itinerary", p.Content})
	if err := writeRows(f, sheetPlan, planRows); err != nil {
		return err
	}

	spotRows := [][]any{{"Name", "Latitude", "Longitude", "Description"}}
	for _, s := range doc.Spots {
		spotRows = append(spotRows, []any{s.Name, s.Latitude, s.Longitude, s.Description})
	}
	if err := writeRows(f, sheetSpots, spotRows); err != nil {
		return err
	}

	expenseRows := [][]any{{"Date", "Category", "Amount", "Currency", "Note"}}
	for _, e := range doc.Expenses {
		date := ""
		if e.OccurredAt != nil {
			date = e.OccurredAt.Format(time.DateOnly)
		}
		expenseRows = append(expenseRows, []any{date, breakdown.CategoryLabel(e.Category), e.Amount, e.Currency, e.Note})
	}
	if err := writeRows(f, sheetExpenses, expenseRows); err != nil {
		return err
	}

	summary := breakdown.Summarize(doc.Expenses)
	labels := breakdown.PercentLabels(summary)
	breakdownRows := [][]any{{"Category", "Total", "Count", "Percent"}}
	for i, b := range summary.Buckets {
		breakdownRows = append(breakdownRows, []any{b.Category, b.Total.InexactFloat64(), b.Count, labels[i] + "%"})
	}
	breakdownRows = append(breakdownRows, []any{"Total", summary.Total.InexactFloat64()})
	if err := writeRows(f, sheetBreakdown, breakdownRows); err != nil {
		return err
	}

	for _, name := range []string{sheetSpots, sheetExpenses, sheetBreakdown} {
		if err := f.SetCellStyle(name, "A1", "E1", headerStyle); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}
	if err := f.SetColWidth(sheetPlan, "B", "B", 80); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
