package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"finstress/internal/core"
	"finstress/internal/sheets/memory"
)

func exampleTransactions() []core.Transaction {
	return []core.Transaction{
		{Date: core.NewDate(2024, 5, 1), Amount: core.Money{Cents: 500000}, Category: "Salary", Direction: core.Credit},
		{Date: core.NewDate(2024, 5, 3), Amount: core.Money{Cents: 200000}, Category: "Rent", Direction: core.Debit},
		{Date: core.NewDate(2024, 5, 5), Amount: core.Money{Cents: 30000}, Category: "Dining", Direction: core.Debit},
	}
}

func TestAnalyze(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{}
	svc := NewAnalysisService(AnalysisConfig{TimeFrameMonths: 6}, store, pub, nil)

	res, err := svc.Analyze(context.Background(), AnalysisInput{
		Transactions:  exampleTransactions(),
		Subscriptions: []core.Subscription{{Name: "Streaming", Cost: core.Money{Cents: 1299}}},
		SavingsGoal:   core.Money{Cents: 1000000},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if math.Abs(res.Score-0.326) > 1e-9 {
		t.Fatalf("score=%v", res.Score)
	}
	if res.Snapshot.StressScore == nil || *res.Snapshot.StressScore != res.Score {
		t.Fatalf("snapshot not stamped with score")
	}
	if res.Snapshot.TimeFrameMonths != 6 || len(res.Snapshot.Subscriptions) != 1 || res.Snapshot.SavingsGoal.Cents != 1000000 {
		t.Fatalf("pass-through fields lost: %+v", res.Snapshot)
	}
	if res.Summary.TotalSpent.Cents != 230000 {
		t.Fatalf("summary=%+v", res.Summary)
	}
	if res.SnapshotID == "" || len(pub.ids) != 1 || pub.ids[0] != res.SnapshotID {
		t.Fatalf("snapshot not stored and enqueued: id=%q published=%v", res.SnapshotID, pub.ids)
	}
	if _, err := store.GetSnapshot(context.Background(), res.SnapshotID); err != nil {
		t.Fatalf("stored snapshot missing: %v", err)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	svc := NewAnalysisService(AnalysisConfig{}, nil, nil, nil)
	ctx := context.Background()

	if _, err := svc.Analyze(ctx, AnalysisInput{}); !errors.Is(err, core.ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}

	noIncome := []core.Transaction{{Date: core.NewDate(2024, 5, 3), Amount: core.Money{Cents: 100}, Category: "Rent", Direction: core.Debit}}
	if _, err := svc.Analyze(ctx, AnalysisInput{Transactions: noIncome}); !errors.Is(err, core.ErrDivisionUndefined) {
		t.Fatalf("expected ErrDivisionUndefined, got %v", err)
	}

	bad := exampleTransactions()
	bad[1].Direction = "sideways"
	bad[2].Amount = core.Money{Cents: -5}
	_, err := svc.Analyze(ctx, AnalysisInput{Transactions: bad})
	var verr *core.ValidationError
	if !errors.As(err, &verr) || !verr.Has("transactions[1]") || !verr.Has("transactions[2]") {
		t.Fatalf("expected both transactions reported, got %v", err)
	}

	// Two credits of 5e16 units used to wrap income negative.
	big := core.Money{Cents: 5_000_000_000_000_000_000}
	wrap := []core.Transaction{
		{Date: core.NewDate(2024, 5, 1), Amount: big, Category: "Salary", Direction: core.Credit},
		{Date: core.NewDate(2024, 5, 2), Amount: big, Category: "Salary", Direction: core.Credit},
	}
	_, err = svc.Analyze(ctx, AnalysisInput{Transactions: wrap})
	if errors.Is(err, core.ErrDivisionUndefined) || !errors.As(err, &verr) || !verr.Has("income") {
		t.Fatalf("expected income overflow validation error, got %v", err)
	}
}

func TestAnalyzePublishFailureIsNotFatal(t *testing.T) {
	svc := NewAnalysisService(AnalysisConfig{}, memory.New(), &fakePublisher{err: errors.New("broker down")}, nil)
	res, err := svc.Analyze(context.Background(), AnalysisInput{Transactions: exampleTransactions()})
	if err != nil || res.SnapshotID == "" {
		t.Fatalf("Analyze = %+v, %v", res, err)
	}
}

func TestScoreSnapshot(t *testing.T) {
	svc := NewAnalysisService(AnalysisConfig{}, nil, nil, nil)
	stale := 99.0
	got, err := svc.ScoreSnapshot(context.Background(), core.FinancialSnapshot{
		Income:           core.Money{Cents: 500000},
		FixedExpenses:    core.Money{Cents: 200000},
		VariableExpenses: map[string]core.Money{"Dining": {Cents: 30000}},
		StressScore:      &stale,
	})
	if err != nil {
		t.Fatalf("ScoreSnapshot: %v", err)
	}
	if math.Abs(*got.StressScore-0.326) > 1e-9 || got.TimeFrameMonths != core.DefaultTimeFrameMonths {
		t.Fatalf("unexpected snapshot %+v", got)
	}

	_, err = svc.ScoreSnapshot(context.Background(), core.FinancialSnapshot{Income: core.Money{Cents: 1}, FixedExpenses: core.Money{Cents: -1}})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestScoreBatch(t *testing.T) {
	svc := NewAnalysisService(AnalysisConfig{Concurrency: 2}, nil, nil, nil)
	snaps := []core.FinancialSnapshot{
		{Income: core.Money{Cents: 500000}, FixedExpenses: core.Money{Cents: 200000}, VariableExpenses: map[string]core.Money{"Dining": {Cents: 30000}}},
		{Income: core.Money{Cents: 0}},
		{Income: core.Money{Cents: 100000}},
		{Income: core.Money{Cents: 100000}, FixedExpenses: core.Money{Cents: -1}},
	}
	items, err := svc.ScoreBatch(context.Background(), snaps)
	if err != nil {
		t.Fatalf("ScoreBatch: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("items=%d", len(items))
	}
	for i, it := range items {
		if it.Index != i {
			t.Fatalf("order not kept: %+v", items)
		}
	}
	if items[0].Score == nil || math.Abs(*items[0].Score-0.326) > 1e-9 {
		t.Fatalf("item 0 = %+v", items[0])
	}
	if !errors.Is(items[1].Err(), core.ErrDivisionUndefined) || items[1].Score != nil {
		t.Fatalf("item 1 = %+v", items[1])
	}
	if items[2].Score == nil || *items[2].Score != 0.2 {
		t.Fatalf("item 2 = %+v", items[2])
	}
	if !errors.Is(items[3].Err(), core.ErrValidation) || items[3].Error == "" {
		t.Fatalf("item 3 = %+v", items[3])
	}
}

func TestScoreBatchCancelled(t *testing.T) {
	svc := NewAnalysisService(AnalysisConfig{}, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.ScoreBatch(ctx, []core.FinancialSnapshot{{Income: core.Money{Cents: 1}}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	svc := NewAnalysisService(AnalysisConfig{}, nil, nil, nil)

	sum, err := svc.Summarize(context.Background(), exampleTransactions())
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.Year != 2024 || sum.Month != 5 || len(sum.ByCategory) != 2 || sum.ByCategory[0].Name != "Rent" {
		t.Fatalf("summary=%+v", sum)
	}

	bad := exampleTransactions()
	bad[1].Direction = "sideways"
	var verr *core.ValidationError
	if _, err := svc.Summarize(context.Background(), bad); !errors.As(err, &verr) || !verr.Has("transactions[1]") {
		t.Fatalf("expected validation error on transactions[1], got %v", err)
	}
}
