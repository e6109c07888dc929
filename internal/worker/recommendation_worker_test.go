package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finstress/internal/amqp"
	"finstress/internal/core"
	"finstress/internal/sheets/memory"
)

type fakeRecommender struct {
	mu    sync.Mutex
	store *memory.Store
	fail  map[string]bool
	seen  []string
}

func (f *fakeRecommender) RecommendForSnapshot(ctx context.Context, id string) (core.Recommendations, error) {
	f.mu.Lock()
	f.seen = append(f.seen, id)
	fail := f.fail[id]
	f.mu.Unlock()
	if fail {
		return core.Recommendations{}, core.ErrGeneration
	}
	r := core.Recommendations{SnapshotID: id, Items: []string{"ok"}}
	return r, f.store.SaveRecommendations(ctx, r)
}

func TestHandleRequest(t *testing.T) {
	store := memory.New()
	rec, _ := store.SaveSnapshot(context.Background(), core.FinancialSnapshot{Income: core.Money{Cents: 1}})
	fr := &fakeRecommender{store: store, fail: map[string]bool{"bad": true}}
	w := NewRecommendationWorker(fr, store, 2, 5)

	if err := w.HandleRequest(context.Background(), amqp.NewRecommendationRequest(rec.ID)); err != nil {
		t.Fatalf("HandleRequest: %v", err)
	}
	if err := w.HandleRequest(context.Background(), amqp.NewRecommendationRequest("bad")); !errors.Is(err, core.ErrGeneration) {
		t.Fatalf("expected wrapped ErrGeneration, got %v", err)
	}
}

func TestProcessPending(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	var ids []string
	for i := 0; i < 4; i++ {
		rec, _ := store.SaveSnapshot(ctx, core.FinancialSnapshot{Income: core.Money{Cents: int64(i + 1)}})
		ids = append(ids, rec.ID)
	}
	fr := &fakeRecommender{store: store, fail: map[string]bool{ids[2]: true}}
	w := NewRecommendationWorker(fr, store, 3, 10)
	clock := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	n, err := w.ProcessPending(ctx)
	if err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if n != 3 || len(fr.seen) != 4 {
		t.Fatalf("processed=%d seen=%d", n, len(fr.seen))
	}

	left, _ := store.ListSnapshotsWithoutRecommendations(ctx, 0)
	if len(left) != 1 || left[0].ID != ids[2] {
		t.Fatalf("unexpected pending after sweep: %+v", left)
	}

	fr.fail = nil
	if n, _ := w.ProcessPending(ctx); n != 0 {
		t.Fatalf("snapshot retried before its backoff elapsed, processed %d", n)
	}
	clock = clock.Add(defaultRetryBase)
	if n, _ := w.ProcessPending(ctx); n != 1 {
		t.Fatalf("retry sweep processed %d", n)
	}
	if n, _ := w.ProcessPending(ctx); n != 0 {
		t.Fatalf("nothing should be left, processed %d", n)
	}
}

func TestProcessPendingBacksOffFailingSnapshot(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	bad, _ := store.SaveSnapshot(ctx, core.FinancialSnapshot{Income: core.Money{Cents: 1}})

	fr := &fakeRecommender{store: store, fail: map[string]bool{bad.ID: true}}
	w := NewRecommendationWorker(fr, store, 1, 1).WithRetry(time.Minute, 3)
	clock := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	// The failing snapshot is the oldest, so without backoff it would hold the
	// only batch slot on every sweep.
	if n, _ := w.ProcessPending(ctx); n != 0 {
		t.Fatalf("first sweep processed %d", n)
	}
	var good []string
	for i := 0; i < 2; i++ {
		rec, _ := store.SaveSnapshot(ctx, core.FinancialSnapshot{Income: core.Money{Cents: int64(i + 2)}})
		good = append(good, rec.ID)
	}

	for i, want := range good {
		if n, _ := w.ProcessPending(ctx); n != 1 {
			t.Fatalf("sweep %d processed %d", i, n)
		}
		if last := fr.seen[len(fr.seen)-1]; last != want {
			t.Fatalf("sweep %d handled %s, want %s", i, last, want)
		}
	}

	// Delays double: 1m after the first failure, 2m after the second.
	steps := []struct {
		advance time.Duration
		tried   bool
	}{
		{30 * time.Second, false},
		{30 * time.Second, true},
		{time.Minute, false},
		{time.Minute, true},
		{time.Hour, false},
		{24 * time.Hour, false},
	}
	for i, step := range steps {
		clock = clock.Add(step.advance)
		before := len(fr.seen)
		if _, err := w.ProcessPending(ctx); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if tried := len(fr.seen) > before; tried != step.tried {
			t.Fatalf("step %d: tried=%v want %v", i, tried, step.tried)
		}
	}

	count := 0
	for _, id := range fr.seen {
		if id == bad.ID {
			count++
		}
	}
	if count != 3 {
		t.Fatalf("expected 3 attempts before giving up, got %d", count)
	}

	// A queue message still reaches it and clears the record on success.
	fr.mu.Lock()
	fr.fail = nil
	fr.mu.Unlock()
	if err := w.HandleRequest(ctx, amqp.NewRecommendationRequest(bad.ID)); err != nil {
		t.Fatalf("HandleRequest: %v", err)
	}
	w.mu.Lock()
	left := len(w.failures)
	w.mu.Unlock()
	if left != 0 {
		t.Fatalf("failure record kept after success: %d", left)
	}
}

func TestProcessPendingForgetsResolvedFailures(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	bad, _ := store.SaveSnapshot(ctx, core.FinancialSnapshot{Income: core.Money{Cents: 1}})

	fr := &fakeRecommender{store: store, fail: map[string]bool{bad.ID: true}}
	w := NewRecommendationWorker(fr, store, 1, 5)
	if _, err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if len(w.failures) != 1 {
		t.Fatalf("failure not recorded: %v", w.failures)
	}

	// Recommendations arrive through the API instead of the sweep.
	if err := store.SaveRecommendations(ctx, core.Recommendations{SnapshotID: bad.ID, Items: []string{"x"}}); err != nil {
		t.Fatalf("SaveRecommendations: %v", err)
	}
	if _, err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if len(w.failures) != 0 {
		t.Fatalf("stale failure kept: %v", w.failures)
	}
}
