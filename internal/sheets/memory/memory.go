package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"finstress/internal/core"
	ports "finstress/internal/sheets"
)

var _ ports.Store = (*Store)(nil)

// Store keeps every record in process memory. Values are copied on the way in
// and out so callers never share maps or slices with the store.
type Store struct {
	mu        sync.RWMutex
	now       func() time.Time
	budgets   map[string]core.BudgetRecord
	snapshots map[string]core.SnapshotRecord
	recs      map[string]core.Recommendations
}

func New() *Store {
	return &Store{
		now:       time.Now,
		budgets:   map[string]core.BudgetRecord{},
		snapshots: map[string]core.SnapshotRecord{},
		recs:      map[string]core.Recommendations{},
	}
}

func (s *Store) SaveBudget(_ context.Context, b core.Budget) (core.BudgetRecord, error) {
	rec := core.BudgetRecord{ID: uuid.NewString(), CreatedAt: s.now().UTC(), Budget: copyBudget(b)}
	s.mu.Lock()
	s.budgets[rec.ID] = rec
	s.mu.Unlock()
	return core.BudgetRecord{ID: rec.ID, CreatedAt: rec.CreatedAt, Budget: copyBudget(rec.Budget)}, nil
}

func (s *Store) GetBudget(_ context.Context, id string) (core.BudgetRecord, error) {
	s.mu.RLock()
	rec, ok := s.budgets[id]
	s.mu.RUnlock()
	if !ok {
		return core.BudgetRecord{}, fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
	}
	rec.Budget = copyBudget(rec.Budget)
	return rec, nil
}

func (s *Store) SaveSnapshot(_ context.Context, snap core.FinancialSnapshot) (core.SnapshotRecord, error) {
	rec := core.SnapshotRecord{ID: uuid.NewString(), CreatedAt: s.now().UTC(), Snapshot: snap.Clone()}
	s.mu.Lock()
	s.snapshots[rec.ID] = rec
	s.mu.Unlock()
	rec.Snapshot = rec.Snapshot.Clone()
	return rec, nil
}

func (s *Store) GetSnapshot(_ context.Context, id string) (core.SnapshotRecord, error) {
	s.mu.RLock()
	rec, ok := s.snapshots[id]
	s.mu.RUnlock()
	if !ok {
		return core.SnapshotRecord{}, fmt.Errorf("snapshot %s: %w", id, core.ErrNotFound)
	}
	rec.Snapshot = rec.Snapshot.Clone()
	return rec, nil
}

func (s *Store) ListSnapshotsWithoutRecommendations(_ context.Context, limit int) ([]core.SnapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []core.SnapshotRecord{}
	for id, rec := range s.snapshots {
		if _, done := s.recs[id]; done {
			continue
		}
		rec.Snapshot = rec.Snapshot.Clone()
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SaveRecommendations(_ context.Context, r core.Recommendations) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[r.SnapshotID]; !ok {
		return fmt.Errorf("snapshot %s: %w", r.SnapshotID, core.ErrNotFound)
	}
	r.Items = append([]string(nil), r.Items...)
	s.recs[r.SnapshotID] = r
	return nil
}

func (s *Store) GetRecommendations(_ context.Context, snapshotID string) (core.Recommendations, error) {
	s.mu.RLock()
	r, ok := s.recs[snapshotID]
	s.mu.RUnlock()
	if !ok {
		return core.Recommendations{}, fmt.Errorf("recommendations for %s: %w", snapshotID, core.ErrNotFound)
	}
	r.Items = append([]string(nil), r.Items...)
	return r, nil
}

func copyBudget(b core.Budget) core.Budget {
	b.Expenses = append([]core.BudgetCategory(nil), b.Expenses...)
	return b
}
