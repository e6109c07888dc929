package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Budget struct {
	ID           string
	IncomeCents  int64
	SavingsCents int64
	CreatedAt    int64
}

type BudgetCategory struct {
	BudgetID       string
	Position       int64
	Category       string
	AllocatedCents int64
	SpentCents     int64
}

type Snapshot struct {
	ID          string
	Year        int64
	Month       int64
	IncomeCents int64
	StressScore sql.NullFloat64
	Payload     string
	CreatedAt   int64
}

type Recommendation struct {
	SnapshotID string
	Items      string
	CreatedAt  int64
}

const createBudget = `INSERT INTO budgets (id, income_cents, savings_cents, created_at) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateBudget(ctx context.Context, arg Budget) error {
	_, err := q.db.ExecContext(ctx, createBudget, arg.ID, arg.IncomeCents, arg.SavingsCents, arg.CreatedAt)
	return err
}

const createBudgetCategory = `INSERT INTO budget_categories (budget_id, position, category, allocated_cents, spent_cents) VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateBudgetCategory(ctx context.Context, arg BudgetCategory) error {
	_, err := q.db.ExecContext(ctx, createBudgetCategory, arg.BudgetID, arg.Position, arg.Category, arg.AllocatedCents, arg.SpentCents)
	return err
}

const getBudget = `SELECT id, income_cents, savings_cents, created_at FROM budgets WHERE id = ?`

func (q *Queries) GetBudget(ctx context.Context, id string) (Budget, error) {
	var b Budget
	err := q.db.QueryRowContext(ctx, getBudget, id).Scan(&b.ID, &b.IncomeCents, &b.SavingsCents, &b.CreatedAt)
	return b, err
}

const listBudgetCategories = `SELECT budget_id, position, category, allocated_cents, spent_cents
FROM budget_categories WHERE budget_id = ? ORDER BY position`

func (q *Queries) ListBudgetCategories(ctx context.Context, budgetID string) ([]BudgetCategory, error) {
	rows, err := q.db.QueryContext(ctx, listBudgetCategories, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BudgetCategory
	for rows.Next() {
		var c BudgetCategory
		if err := rows.Scan(&c.BudgetID, &c.Position, &c.Category, &c.AllocatedCents, &c.SpentCents); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const createSnapshot = `INSERT INTO snapshots (id, year, month, income_cents, stress_score, payload, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateSnapshot(ctx context.Context, arg Snapshot) error {
	_, err := q.db.ExecContext(ctx, createSnapshot, arg.ID, arg.Year, arg.Month, arg.IncomeCents, arg.StressScore, arg.Payload, arg.CreatedAt)
	return err
}

const getSnapshot = `SELECT id, year, month, income_cents, stress_score, payload, created_at FROM snapshots WHERE id = ?`

func (q *Queries) GetSnapshot(ctx context.Context, id string) (Snapshot, error) {
	var s Snapshot
	err := q.db.QueryRowContext(ctx, getSnapshot, id).Scan(&s.ID, &s.Year, &s.Month, &s.IncomeCents, &s.StressScore, &s.Payload, &s.CreatedAt)
	return s, err
}

const listSnapshotsWithoutRecommendations = `SELECT s.id, s.year, s.month, s.income_cents, s.stress_score, s.payload, s.created_at
FROM snapshots s
LEFT JOIN recommendations r ON r.snapshot_id = s.id
WHERE r.snapshot_id IS NULL
ORDER BY s.created_at, s.id
LIMIT ?`

func (q *Queries) ListSnapshotsWithoutRecommendations(ctx context.Context, limit int64) ([]Snapshot, error) {
	rows, err := q.db.QueryContext(ctx, listSnapshotsWithoutRecommendations, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.Year, &s.Month, &s.IncomeCents, &s.StressScore, &s.Payload, &s.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const upsertRecommendation = `INSERT INTO recommendations (snapshot_id, items, created_at) VALUES (?, ?, ?)
ON CONFLICT(snapshot_id) DO UPDATE SET items = excluded.items, created_at = excluded.created_at`

func (q *Queries) UpsertRecommendation(ctx context.Context, arg Recommendation) error {
	_, err := q.db.ExecContext(ctx, upsertRecommendation, arg.SnapshotID, arg.Items, arg.CreatedAt)
	return err
}

const getRecommendation = `SELECT snapshot_id, items, created_at FROM recommendations WHERE snapshot_id = ?`

func (q *Queries) GetRecommendation(ctx context.Context, snapshotID string) (Recommendation, error) {
	var r Recommendation
	err := q.db.QueryRowContext(ctx, getRecommendation, snapshotID).Scan(&r.SnapshotID, &r.Items, &r.CreatedAt)
	return r, err
}

const snapshotExists = `SELECT EXISTS(SELECT 1 FROM snapshots WHERE id = ?)`

func (q *Queries) SnapshotExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, snapshotExists, id).Scan(&exists)
	return exists, err
}
