package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"finstress/internal/amqp"
	"finstress/internal/core"
	ports "finstress/internal/sheets"
)

// Recommender is the part of the recommendation service the worker drives.
type Recommender interface {
	RecommendForSnapshot(ctx context.Context, snapshotID string) (core.Recommendations, error)
}

const (
	defaultRetryBase   = time.Minute
	defaultMaxAttempts = 5
	maxRetryDelay      = 6 * time.Hour
)

// RecommendationWorker generates recommendations for stored snapshots, either
// on demand from queue messages or by sweeping snapshots that have none.
//
// A snapshot that fails in a sweep waits retryBase, doubling per failure,
// before the next sweep picks it up again. After maxAttempts failures the
// sweep leaves it alone until a queue message succeeds for it or the worker
// restarts.
type RecommendationWorker struct {
	recommender Recommender
	snapshots   ports.SnapshotStore
	concurrency int
	batchSize   int

	retryBase   time.Duration
	maxAttempts int
	now         func() time.Time

	mu       sync.Mutex
	failures map[string]sweepFailure
}

type sweepFailure struct {
	attempts int
	next     time.Time
}

func NewRecommendationWorker(recommender Recommender, snapshots ports.SnapshotStore, concurrency, batchSize int) *RecommendationWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	if batchSize < 1 {
		batchSize = 10
	}
	return &RecommendationWorker{
		recommender: recommender,
		snapshots:   snapshots,
		concurrency: concurrency,
		batchSize:   batchSize,
		retryBase:   defaultRetryBase,
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
		failures:    map[string]sweepFailure{},
	}
}

// WithRetry sets the sweep backoff. Non-positive values keep the defaults.
func (w *RecommendationWorker) WithRetry(base time.Duration, maxAttempts int) *RecommendationWorker {
	if base > 0 {
		w.retryBase = base
	}
	if maxAttempts > 0 {
		w.maxAttempts = maxAttempts
	}
	return w
}

// HandleRequest processes one queue message.
func (w *RecommendationWorker) HandleRequest(ctx context.Context, msg *amqp.RecommendationRequest) error {
	slog.InfoContext(ctx, "Processing recommendation request", "snapshot_id", msg.SnapshotID, "queued_at", msg.Timestamp)
	if _, err := w.recommender.RecommendForSnapshot(ctx, msg.SnapshotID); err != nil {
		return fmt.Errorf("recommend for snapshot %s: %w", msg.SnapshotID, err)
	}
	w.clearFailure(msg.SnapshotID)
	return nil
}

// ProcessPending sweeps one batch of snapshots without recommendations and
// returns how many succeeded. Individual failures are logged and recorded for
// backoff, not returned. Snapshots still backing off do not take a batch slot.
func (w *RecommendationWorker) ProcessPending(ctx context.Context) (int, error) {
	w.mu.Lock()
	tracked := len(w.failures)
	w.mu.Unlock()

	// Over-fetch by the tracked count so skipped snapshots cannot starve the batch.
	listed, err := w.snapshots.ListSnapshotsWithoutRecommendations(ctx, w.batchSize+tracked)
	if err != nil {
		return 0, fmt.Errorf("list pending snapshots: %w", err)
	}
	pending := w.due(listed, len(listed) < w.batchSize+tracked)
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending snapshots", "count", len(pending))

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, rec := range pending {
		g.Go(func() error {
			if _, err := w.recommender.RecommendForSnapshot(gctx, rec.ID); err != nil {
				if gctx.Err() != nil {
					return nil
				}
				attempts, next := w.recordFailure(rec.ID)
				if attempts >= w.maxAttempts {
					slog.ErrorContext(gctx, "Giving up on snapshot", "snapshot_id", rec.ID, "attempts", attempts, "error", err)
				} else {
					slog.ErrorContext(gctx, "Failed to generate recommendations", "snapshot_id", rec.ID,
						"attempts", attempts, "retry_at", next, "error", err)
				}
				return nil
			}
			w.clearFailure(rec.ID)
			done.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(done.Load()), ctx.Err()
}

// due drops snapshots that are backing off or exhausted and trims the rest to
// one batch. When listed holds every pending snapshot, records for snapshots
// that got recommendations some other way are forgotten.
func (w *RecommendationWorker) due(listed []core.SnapshotRecord, complete bool) []core.SnapshotRecord {
	now := w.now()
	w.mu.Lock()
	defer w.mu.Unlock()

	if complete {
		still := make(map[string]bool, len(listed))
		for _, rec := range listed {
			still[rec.ID] = true
		}
		for id := range w.failures {
			if !still[id] {
				delete(w.failures, id)
			}
		}
	}

	out := make([]core.SnapshotRecord, 0, min(len(listed), w.batchSize))
	for _, rec := range listed {
		if len(out) == w.batchSize {
			break
		}
		if f, ok := w.failures[rec.ID]; ok && (f.attempts >= w.maxAttempts || now.Before(f.next)) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (w *RecommendationWorker) recordFailure(id string) (int, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f := w.failures[id]
	f.attempts++
	delay := maxRetryDelay
	if shift := f.attempts - 1; shift < 16 && w.retryBase <= maxRetryDelay>>shift {
		delay = w.retryBase << shift
	}
	f.next = w.now().Add(delay)
	w.failures[id] = f
	return f.attempts, f.next
}

func (w *RecommendationWorker) clearFailure(id string) {
	w.mu.Lock()
	delete(w.failures, id)
	w.mu.Unlock()
}

// RunSweeper calls ProcessPending every interval until ctx is cancelled.
func (w *RecommendationWorker) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, err := w.ProcessPending(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.ErrorContext(ctx, "Sweep failed", "error", err)
		} else if n > 0 {
			slog.InfoContext(ctx, "Sweep completed", "processed", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
