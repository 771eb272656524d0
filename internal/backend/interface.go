package backend

import (
	"context"

	"expensetracker/internal/services"
	"expensetracker/internal/sheets"
	"expensetracker/internal/sheets/google"
	"expensetracker/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds a ready expense service and the store behind it.
type BackendResult struct {
	Service *services.ExpenseService
	Store   *storage.Store
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend opens the store, ensures its schema and wires the
	// optional event publisher.
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateMirror builds the spreadsheet mirror used by the worker.
	CreateMirror(ctx context.Context, config Config) (sheets.Mirror, error)
}

// Config holds configuration for backend creation
type Config struct {
	Dialect storage.Dialect

	// SQLite specific
	SQLiteDBPath string

	// PostgreSQL specific
	Postgres storage.PostgresOptions

	// Expense events; an empty URL disables publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Sheets mirror; an empty spreadsheet id selects the in-memory mirror.
	Sheets google.Config
}
