// Package adapter provides the database adapter contract used by the ORM engine.
//
// An adapter owns one connection pool for one backend and exposes the
// dialect the statement compilers must target. Concrete implementations
// live in pkg/adapters/ subdirectories and register themselves in init().
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/dialect"
)

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Connect opens the pool described by cfg and verifies it with a ping.
	Connect(ctx context.Context, cfg core.AdapterConfig) error

	// Close closes the pool and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows (e.g., CREATE).
	Exec(ctx context.Context, sql string) error

	// GetTableMetadata retrieves metadata for a specified table.
	GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error)

	// Pool returns the underlying connection pool, nil before Connect.
	Pool() *sql.DB

	// Dialect returns the SQL dialect statements must be compiled for.
	Dialect() *dialect.Dialect
}
