package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finstress/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestBudgetRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	b := core.Budget{
		Income:  core.Money{Cents: 500000},
		Savings: core.Money{Cents: 100000},
		Expenses: []core.BudgetCategory{
			{Category: "Rent", AllocatedAmount: core.Money{Cents: 200000}},
			{Category: "Groceries", AllocatedAmount: core.Money{Cents: 50000}, ActualSpent: core.Money{Cents: 42000}},
		},
	}
	rec, err := repo.SaveBudget(ctx, b)
	if err != nil {
		t.Fatalf("SaveBudget: %v", err)
	}

	got, err := repo.GetBudget(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	if got.Budget.Income != b.Income || got.Budget.Savings != b.Savings || len(got.Budget.Expenses) != 2 {
		t.Fatalf("unexpected budget %+v", got.Budget)
	}
	for i := range b.Expenses {
		if got.Budget.Expenses[i] != b.Expenses[i] {
			t.Fatalf("category %d = %+v, want %+v", i, got.Budget.Expenses[i], b.Expenses[i])
		}
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Fatalf("created_at %v != %v", got.CreatedAt, rec.CreatedAt)
	}

	if _, err := repo.GetBudget(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	snap := core.FinancialSnapshot{
		Year:             2024,
		Month:            5,
		Income:           core.Money{Cents: 500000},
		FixedExpenses:    core.Money{Cents: 200000},
		VariableExpenses: map[string]core.Money{"Dining": {Cents: 30000}},
		Subscriptions:    []core.Subscription{{Name: "Music", Cost: core.Money{Cents: 999}}},
		Debts:            []core.Debt{},
		TimeFrameMonths:  12,
	}.WithScore(0.326)

	rec, err := repo.SaveSnapshot(ctx, snap)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	got, err := repo.GetSnapshot(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	s := got.Snapshot
	if s.Income != snap.Income || s.VariableExpenses["Dining"].Cents != 30000 || s.Subscriptions[0].Cost.Cents != 999 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if s.StressScore == nil || *s.StressScore != 0.326 {
		t.Fatalf("score lost: %v", s.StressScore)
	}
	if _, err := repo.GetSnapshot(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecommendationsAndPending(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { clock = clock.Add(time.Second); return clock }

	var ids []string
	for i := 0; i < 3; i++ {
		rec, err := repo.SaveSnapshot(ctx, core.FinancialSnapshot{Income: core.Money{Cents: int64(i + 1)}})
		if err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
		ids = append(ids, rec.ID)
	}

	if err := repo.SaveRecommendations(ctx, core.Recommendations{SnapshotID: ids[1], Items: []string{"cut dining", "build a buffer"}}); err != nil {
		t.Fatalf("SaveRecommendations: %v", err)
	}
	if err := repo.SaveRecommendations(ctx, core.Recommendations{SnapshotID: "missing"}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	pending, err := repo.ListSnapshotsWithoutRecommendations(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != ids[0] || pending[1].ID != ids[2] {
		t.Fatalf("unexpected pending %+v", pending)
	}
	limited, _ := repo.ListSnapshotsWithoutRecommendations(ctx, 1)
	if len(limited) != 1 || limited[0].ID != ids[0] {
		t.Fatalf("limit not applied: %+v", limited)
	}

	got, err := repo.GetRecommendations(ctx, ids[1])
	if err != nil {
		t.Fatalf("GetRecommendations: %v", err)
	}
	if len(got.Items) != 2 || got.Items[0] != "cut dining" {
		t.Fatalf("unexpected items %v", got.Items)
	}

	// Saving again replaces the previous set.
	if err := repo.SaveRecommendations(ctx, core.Recommendations{SnapshotID: ids[1], Items: []string{"only one"}}); err != nil {
		t.Fatalf("SaveRecommendations: %v", err)
	}
	got, _ = repo.GetRecommendations(ctx, ids[1])
	if len(got.Items) != 1 {
		t.Fatalf("upsert did not replace: %v", got.Items)
	}
}
