package backend

import (
	"context"

	"finstress/internal/amqp"
	"finstress/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the stores and optional integrations built for a
// configuration. Exporter and Publisher are nil when not configured.
type BackendResult struct {
	Store     sheets.Store
	Exporter  sheets.BudgetExporter
	Publisher *amqp.Client
	Cleanup   CleanupFunc

	ping func(context.Context) error
}

// Ping reports whether the store is reachable. Memory backends always are.
func (r *BackendResult) Ping(ctx context.Context) error {
	if r.ping == nil {
		return nil
	}
	return r.ping(ctx)
}

// Close runs the cleanup function if one was registered.
func (r *BackendResult) Close() error {
	if r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// AMQP, optional for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets budget export, optional
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
