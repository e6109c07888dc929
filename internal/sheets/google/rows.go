package google

import "finstress/internal/core"

// BudgetRows lays a budget out as sheet rows:
// id, date, category, allocated, spent, income, savings, unallocated.
// A budget without categories still yields one row so the totals are kept.
func BudgetRows(rec core.BudgetRecord) [][]any {
	date := rec.CreatedAt.Format("2006-01-02")
	b := rec.Budget
	tail := []any{b.Income.String(), b.Savings.String(), b.Unallocated().String()}

	if len(b.Expenses) == 0 {
		return [][]any{append([]any{rec.ID, date, "", "0.00", "0.00"}, tail...)}
	}
	rows := make([][]any, 0, len(b.Expenses))
	for _, e := range b.Expenses {
		row := []any{rec.ID, date, e.Category, e.AllocatedAmount.String(), e.ActualSpent.String()}
		rows = append(rows, append(row, tail...))
	}
	return rows
}
