// Package sheets mirrors stored expenses into an external spreadsheet.
// The database stays the source of truth; the mirror is fed by the
// expense event consumer and may lag behind it.
package sheets

import (
	"context"

	"expensetracker/internal/core"
)

// Mirror is an outbound copy of the expense table keyed by expense id.
// Both operations must be idempotent because events are delivered at
// least once.
type Mirror interface {
	// AppendExpense adds e unless a row with its id already exists and
	// returns a reference to the row.
	AppendExpense(ctx context.Context, e core.Expense) (rowRef string, err error)
	// DeleteExpense removes the row for id; a missing row is not an error.
	DeleteExpense(ctx context.Context, id int64) error
}

// Header is the first row written to an empty mirror sheet.
var Header = []string{"ID", "Date", "Amount", "Category", "Description"}

// Row renders e in Header column order.
func Row(e core.Expense) []string {
	return []string{
		formatID(e.ID),
		e.Date.String(),
		core.FormatAmount(e.Amount),
		e.CategoryName(),
		e.DescriptionText(),
	}
}
