package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"finstress/internal/core"
	ports "finstress/internal/sheets"
)

var _ ports.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db), now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveBudget writes the budget and its categories in one transaction.
func (r *SQLiteRepository) SaveBudget(ctx context.Context, b core.Budget) (core.BudgetRecord, error) {
	rec := core.BudgetRecord{ID: uuid.NewString(), CreatedAt: r.now().UTC(), Budget: b}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.BudgetRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.CreateBudget(ctx, Budget{
		ID:           rec.ID,
		IncomeCents:  b.Income.Cents,
		SavingsCents: b.Savings.Cents,
		CreatedAt:    rec.CreatedAt.UnixNano(),
	}); err != nil {
		return core.BudgetRecord{}, fmt.Errorf("create budget: %w", err)
	}
	for i, e := range b.Expenses {
		if err := q.CreateBudgetCategory(ctx, BudgetCategory{
			BudgetID:       rec.ID,
			Position:       int64(i),
			Category:       e.Category,
			AllocatedCents: e.AllocatedAmount.Cents,
			SpentCents:     e.ActualSpent.Cents,
		}); err != nil {
			return core.BudgetRecord{}, fmt.Errorf("create budget category %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return core.BudgetRecord{}, fmt.Errorf("commit budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved to SQLite", "id", rec.ID, "categories", len(b.Expenses))
	rec.Budget.Expenses = append([]core.BudgetCategory(nil), b.Expenses...)
	return rec, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id string) (core.BudgetRecord, error) {
	row, err := r.queries.GetBudget(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BudgetRecord{}, fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.BudgetRecord{}, fmt.Errorf("get budget: %w", err)
	}
	cats, err := r.queries.ListBudgetCategories(ctx, id)
	if err != nil {
		return core.BudgetRecord{}, fmt.Errorf("list budget categories: %w", err)
	}

	b := core.Budget{
		Income:   core.Money{Cents: row.IncomeCents},
		Savings:  core.Money{Cents: row.SavingsCents},
		Expenses: make([]core.BudgetCategory, 0, len(cats)),
	}
	for _, c := range cats {
		b.Expenses = append(b.Expenses, core.BudgetCategory{
			Category:        c.Category,
			AllocatedAmount: core.Money{Cents: c.AllocatedCents},
			ActualSpent:     core.Money{Cents: c.SpentCents},
		})
	}
	return core.BudgetRecord{ID: row.ID, CreatedAt: time.Unix(0, row.CreatedAt).UTC(), Budget: b}, nil
}

// SaveSnapshot stores the whole snapshot as a JSON document next to a few
// queryable columns.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, s core.FinancialSnapshot) (core.SnapshotRecord, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return core.SnapshotRecord{}, fmt.Errorf("encode snapshot: %w", err)
	}
	rec := core.SnapshotRecord{ID: uuid.NewString(), CreatedAt: r.now().UTC(), Snapshot: s.Clone()}

	row := Snapshot{
		ID:          rec.ID,
		Year:        int64(s.Year),
		Month:       int64(s.Month),
		IncomeCents: s.Income.Cents,
		Payload:     string(payload),
		CreatedAt:   rec.CreatedAt.UnixNano(),
	}
	if s.StressScore != nil {
		row.StressScore = sql.NullFloat64{Float64: *s.StressScore, Valid: true}
	}
	if err := r.queries.CreateSnapshot(ctx, row); err != nil {
		return core.SnapshotRecord{}, fmt.Errorf("create snapshot: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) GetSnapshot(ctx context.Context, id string) (core.SnapshotRecord, error) {
	row, err := r.queries.GetSnapshot(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SnapshotRecord{}, fmt.Errorf("snapshot %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.SnapshotRecord{}, fmt.Errorf("get snapshot: %w", err)
	}
	return snapshotRecord(row)
}

func (r *SQLiteRepository) ListSnapshotsWithoutRecommendations(ctx context.Context, limit int) ([]core.SnapshotRecord, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := r.queries.ListSnapshotsWithoutRecommendations(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending snapshots: %w", err)
	}
	out := make([]core.SnapshotRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := snapshotRecord(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *SQLiteRepository) SaveRecommendations(ctx context.Context, rec core.Recommendations) error {
	exists, err := r.queries.SnapshotExists(ctx, rec.SnapshotID)
	if err != nil {
		return fmt.Errorf("check snapshot: %w", err)
	}
	if !exists {
		return fmt.Errorf("snapshot %s: %w", rec.SnapshotID, core.ErrNotFound)
	}

	items := rec.Items
	if items == nil {
		items = []string{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	if err := r.queries.UpsertRecommendation(ctx, Recommendation{
		SnapshotID: rec.SnapshotID,
		Items:      string(encoded),
		CreatedAt:  createdAt.UTC().UnixNano(),
	}); err != nil {
		return fmt.Errorf("save recommendations: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetRecommendations(ctx context.Context, snapshotID string) (core.Recommendations, error) {
	row, err := r.queries.GetRecommendation(ctx, snapshotID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Recommendations{}, fmt.Errorf("recommendations for %s: %w", snapshotID, core.ErrNotFound)
	}
	if err != nil {
		return core.Recommendations{}, fmt.Errorf("get recommendations: %w", err)
	}
	var items []string
	if err := json.Unmarshal([]byte(row.Items), &items); err != nil {
		return core.Recommendations{}, fmt.Errorf("decode recommendations: %w", err)
	}
	return core.Recommendations{
		SnapshotID: row.SnapshotID,
		Items:      items,
		CreatedAt:  time.Unix(0, row.CreatedAt).UTC(),
	}, nil
}

func snapshotRecord(row Snapshot) (core.SnapshotRecord, error) {
	var s core.FinancialSnapshot
	if err := json.Unmarshal([]byte(row.Payload), &s); err != nil {
		return core.SnapshotRecord{}, fmt.Errorf("decode snapshot %s: %w", row.ID, err)
	}
	return core.SnapshotRecord{ID: row.ID, CreatedAt: time.Unix(0, row.CreatedAt).UTC(), Snapshot: s}, nil
}
