package core

import (
	"fmt"
	"strings"
)

type (
	BudgetCategory struct {
		Category        string `json:"category"`
		AllocatedAmount Money  `json:"allocated_amount"`
		ActualSpent     Money  `json:"actual_spent"`
	}

	// Budget is returned by value and never mutated after NormalizeBudget
	// builds it; Expenses is a fresh slice owned by the Budget.
	Budget struct {
		Income   Money            `json:"income"`
		Savings  Money            `json:"savings"`
		Expenses []BudgetCategory `json:"expenses"`
	}

	// BudgetPayload is the unvalidated input. Pointer fields distinguish an
	// absent value from an explicit zero.
	BudgetPayload struct {
		Income   *Money                  `json:"income"`
		Savings  *Money                  `json:"savings"`
		Expenses []BudgetCategoryPayload `json:"expenses"`
	}

	BudgetCategoryPayload struct {
		Category        string `json:"category"`
		AllocatedAmount *Money `json:"allocated_amount"`
		ActualSpent     *Money `json:"actual_spent,omitempty"`
	}
)

// NormalizeBudget validates p and assembles a Budget. Every violated field is
// reported in a single *ValidationError. A missing actual_spent defaults to 0.
func NormalizeBudget(p BudgetPayload) (Budget, error) {
	verr := &ValidationError{}

	checkMoney(verr, "income", p.Income, true)
	checkMoney(verr, "savings", p.Savings, true)
	if p.Expenses == nil {
		verr.Add("expenses", "is required")
	}

	expenses := make([]BudgetCategory, 0, len(p.Expenses))
	for i, e := range p.Expenses {
		prefix := fmt.Sprintf("expenses[%d].", i)
		if strings.TrimSpace(e.Category) == "" {
			verr.Add(prefix+"category", "is required")
		}
		checkMoney(verr, prefix+"allocated_amount", e.AllocatedAmount, true)
		checkMoney(verr, prefix+"actual_spent", e.ActualSpent, false)

		bc := BudgetCategory{Category: strings.TrimSpace(e.Category)}
		if e.AllocatedAmount != nil {
			bc.AllocatedAmount = *e.AllocatedAmount
		}
		if e.ActualSpent != nil {
			bc.ActualSpent = *e.ActualSpent
		}
		expenses = append(expenses, bc)
	}

	if err := verr.ErrOrNil(); err != nil {
		return Budget{}, err
	}

	b := Budget{Expenses: expenses}
	b.Income = *p.Income
	b.Savings = *p.Savings
	return b, nil
}

func checkMoney(verr *ValidationError, field string, m *Money, required bool) {
	if m == nil {
		if required {
			verr.Add(field, "is required")
		}
		return
	}
	if m.Cents < 0 {
		verr.Add(field, "must be non-negative")
	}
}

// Payload converts a normalized Budget back into its input form.
func (b Budget) Payload() BudgetPayload {
	income, savings := b.Income, b.Savings
	p := BudgetPayload{Income: &income, Savings: &savings, Expenses: make([]BudgetCategoryPayload, 0, len(b.Expenses))}
	for _, e := range b.Expenses {
		allocated, spent := e.AllocatedAmount, e.ActualSpent
		p.Expenses = append(p.Expenses, BudgetCategoryPayload{
			Category:        e.Category,
			AllocatedAmount: &allocated,
			ActualSpent:     &spent,
		})
	}
	return p
}

// TotalAllocated sums allocated_amount over all categories.
func (b Budget) TotalAllocated() Money {
	var total int64
	for _, e := range b.Expenses {
		total += e.AllocatedAmount.Cents
	}
	return Money{Cents: total}
}

// TotalSpent sums actual_spent over all categories.
func (b Budget) TotalSpent() Money {
	var total int64
	for _, e := range b.Expenses {
		total += e.ActualSpent.Cents
	}
	return Money{Cents: total}
}

// Unallocated is income minus savings minus every allocation. It can be negative.
func (b Budget) Unallocated() Money {
	return Money{Cents: b.Income.Cents - b.Savings.Cents - b.TotalAllocated().Cents}
}
