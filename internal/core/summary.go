package core

import "github.com/shopspring/decimal"

// CategoryTotal is the sum of amounts for one category.
// A nil Category is the group of uncategorised expenses.
type CategoryTotal struct {
	Category *string
	Total    decimal.Decimal
}

// Totals indexes a summary by category name, with the empty string
// standing for the uncategorised group.
func Totals(summary []CategoryTotal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(summary))
	for _, ct := range summary {
		key := ""
		if ct.Category != nil {
			key = *ct.Category
		}
		out[key] = out[key].Add(ct.Total)
	}
	return out
}
