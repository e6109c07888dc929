package core

import (
	"errors"
	"testing"
)

func TestSummarize(t *testing.T) {
	txs := []Transaction{
		tx(2024, 4, 28, 99999, "Dining", Debit),
		tx(2024, 5, 1, 500000, "Salary", Credit),
		tx(2024, 5, 3, 200000, "Rent", Debit),
		tx(2024, 5, 5, 30000, "Dining", Debit),
		tx(2024, 5, 9, 12000, "Dining", Debit),
		tx(2024, 5, 9, 42000, "Groceries", Debit),
	}
	sum, err := Summarize(txs, DefaultClassifier())
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.Year != 2024 || sum.Month != 5 {
		t.Fatalf("period=%d-%d", sum.Year, sum.Month)
	}
	if sum.Income.Cents != 500000 || sum.TotalSpent.Cents != 284000 {
		t.Fatalf("totals income=%d spent=%d", sum.Income.Cents, sum.TotalSpent.Cents)
	}
	want := []CategoryAmount{
		{Name: "Rent", Bucket: BucketEssential, Amount: Money{Cents: 200000}},
		{Name: "Dining", Bucket: BucketVariable, Amount: Money{Cents: 42000}},
		{Name: "Groceries", Bucket: BucketOther, Amount: Money{Cents: 42000}},
	}
	if len(sum.ByCategory) != len(want) {
		t.Fatalf("by category=%v", sum.ByCategory)
	}
	for i := range want {
		if sum.ByCategory[i] != want[i] {
			t.Fatalf("row %d = %+v, want %+v", i, sum.ByCategory[i], want[i])
		}
	}
	if sum.BucketTotal(BucketVariable).Cents != 42000 {
		t.Fatalf("variable bucket total=%d", sum.BucketTotal(BucketVariable).Cents)
	}

	if _, err := Summarize(nil, DefaultClassifier()); !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestSummarizeRejectsOverflowingTotals(t *testing.T) {
	const half = 5_000_000_000_000_000_000
	txs := []Transaction{
		tx(2024, 5, 1, half, "Dining", Debit),
		tx(2024, 5, 2, half, "Rent", Debit),
	}
	if _, err := Summarize(txs, DefaultClassifier()); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
