package core

import "time"

// Stored records wrap a domain value with the identity and timestamp assigned
// on persistence.
type (
	BudgetRecord struct {
		ID        string    `json:"id"`
		CreatedAt time.Time `json:"created_at"`
		Budget    Budget    `json:"budget"`
	}

	SnapshotRecord struct {
		ID        string            `json:"id"`
		CreatedAt time.Time         `json:"created_at"`
		Snapshot  FinancialSnapshot `json:"snapshot"`
	}
)
