package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"tripplan/internal/core"
	"tripplan/internal/sheets"
)

const (
	colID = iota
	colPlan
	colUser
	colDate
	colCategory
	colAmount
	colCurrency
	colNote
	colCreated
)

// expenseRow renders an expense in sheets.Header column order.
func expenseRow(e core.Expense) []any {
	date := ""
	if e.OccurredAt != nil {
		date = e.OccurredAt.Format(time.DateOnly)
	}
	return []any{
		e.ID,
		e.PlanID,
		e.OwnerID,
		date,
		e.Category,
		e.Amount,
		e.Currency,
		e.Note,
		e.CreatedAt.Format(time.RFC3339),
	}
}

// parseRow reads a row back. Rows shorter than the amount column or with an
// unreadable amount are rejected; trailing columns may be missing.
func parseRow(row []any) (core.Expense, error) {
	cols := toStrings(row)
	if len(cols) <= colAmount {
		return core.Expense{}, fmt.Errorf("row has %d columns, want at least %d", len(cols), colAmount+1)
	}

	amount, err := parseAmount(cols[colAmount])
	if err != nil {
		return core.Expense{}, err
	}
	e := core.Expense{
		ID:       cols[colID],
		PlanID:   cols[colPlan],
		OwnerID:  cols[colUser],
		Category: cols[colCategory],
		Amount:   amount,
		Currency: safeGet(cols, colCurrency),
		Note:     safeGet(cols, colNote),
	}
	if d := cols[colDate]; d != "" {
		t, err := time.Parse(time.DateOnly, d)
		if err != nil {
			return core.Expense{}, fmt.Errorf("parse date %q: %w", d, err)
		}
		e.OccurredAt = &t
	}
	if c := safeGet(cols, colCreated); c != "" {
		if t, err := time.Parse(time.RFC3339, c); err == nil {
			e.CreatedAt = t
		}
	}
	return e, nil
}

func isHeader(row []any) bool {
	cols := toStrings(row)
	return len(cols) > 0 && strings.EqualFold(cols[0], sheets.Header[0])
}

// parseAmount accepts both decimal separators, since USER_ENTERED values may
// come back localized.
func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return f, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
