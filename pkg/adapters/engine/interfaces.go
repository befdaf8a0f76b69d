// Package engine defines the SQL engine contract consumed by the metadata
// cache and services, and the registry through which dialect adapters plug in.
package engine

import "context"

// Column is one introspected column of a live table.
type Column struct {
	Name         string `json:"name"`
	DataType     string `json:"data_type"`
	IsPrimaryKey bool   `json:"is_primary_key"`
}

// Engine executes SQL against the backing database.
// Implementations are safe for concurrent use and own their connection pool.
// Cancellation and timeouts are carried by ctx; the engine is the only
// component that blocks on I/O.
type Engine interface {
	// Execute runs any statement (DDL/DML/SELECT) and discards its rows.
	Execute(ctx context.Context, statement string) error

	// QueryTableNames lists user tables visible to the connection.
	QueryTableNames(ctx context.Context) ([]string, error)

	// QueryColumns returns the columns of table in ordinal order.
	// The table name is matched case-insensitively.
	QueryColumns(ctx context.Context, table string) ([]Column, error)

	// QueryScalar runs a query and returns the first column of the first row
	// rendered as a string.
	QueryScalar(ctx context.Context, query string) (string, error)

	// NormalizeType maps a type spelling onto the comparison form used by
	// report validation.
	NormalizeType(dataType string) string

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection pool.
	Close() error
}
