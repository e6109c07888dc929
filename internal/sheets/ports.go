package sheets

import (
	"context"

	"finstress/internal/core"
)

// Ports for outbound adapters. Lookups of unknown IDs fail with
// core.ErrNotFound.
type (
	BudgetStore interface {
		SaveBudget(ctx context.Context, b core.Budget) (core.BudgetRecord, error)
		GetBudget(ctx context.Context, id string) (core.BudgetRecord, error)
	}

	SnapshotStore interface {
		SaveSnapshot(ctx context.Context, s core.FinancialSnapshot) (core.SnapshotRecord, error)
		GetSnapshot(ctx context.Context, id string) (core.SnapshotRecord, error)
		// ListSnapshotsWithoutRecommendations returns the oldest snapshots that
		// have no recommendations yet, at most limit of them.
		ListSnapshotsWithoutRecommendations(ctx context.Context, limit int) ([]core.SnapshotRecord, error)
	}

	RecommendationStore interface {
		SaveRecommendations(ctx context.Context, r core.Recommendations) error
		GetRecommendations(ctx context.Context, snapshotID string) (core.Recommendations, error)
	}

	// BudgetExporter mirrors a stored budget into an external spreadsheet.
	BudgetExporter interface {
		ExportBudget(ctx context.Context, rec core.BudgetRecord) error
	}

	// Store groups every persistence port a backend provides.
	Store interface {
		BudgetStore
		SnapshotStore
		RecommendationStore
	}
)
