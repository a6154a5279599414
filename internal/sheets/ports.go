// Package sheets mirrors expenses into an external spreadsheet.
package sheets

import (
	"context"

	"tripplan/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseWriter appends one row per expense and returns a reference to it.
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// ExpenseDeleter removes the row previously written for an expense.
	// Deleting an expense that has no row is not an error.
	ExpenseDeleter interface {
		DeleteExpense(ctx context.Context, id string) error
	}

	// ExpenseLister returns the mirrored rows for one plan.
	ExpenseLister interface {
		ListExpenses(ctx context.Context, planID string) ([]core.Expense, error)
	}

	Mirror interface {
		ExpenseWriter
		ExpenseDeleter
		ExpenseLister
	}
)

// Header is the first row of the expenses sheet. Rows follow this column order.
var Header = []string{"ID", "Plan", "User", "Date", "Category", "Amount", "Currency", "Note", "Created"}
