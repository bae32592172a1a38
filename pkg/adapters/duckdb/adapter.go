// Package duckdb provides a DuckDB database adapter for leaporm.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/leaporm/pkg/adapter"
	"github.com/leapstack-labs/leaporm/pkg/adapters/duckdb/dialect"
	"github.com/leapstack-labs/leaporm/pkg/core"
	pkgdialect "github.com/leapstack-labs/leaporm/pkg/dialect"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Dialect returns the DuckDB dialect.
func (a *Adapter) Dialect() *pkgdialect.Dialect {
	return dialect.DuckDB
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" (or an empty path) for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg core.AdapterConfig) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return fmt.Errorf("invalid duckdb params: %w", err)
	}

	path := cfg.Path
	if path == ":memory:" {
		path = ""
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", cfg.Path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	adapter.ConfigurePool(db, cfg)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	if err := applyParams(ctx, db, params); err != nil {
		_ = db.Close()
		return err
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// applyParams installs and loads extensions, then applies global settings.
func applyParams(ctx context.Context, db *sql.DB, p *Params) error {
	d := dialect.DuckDB
	for _, ext := range p.Extensions {
		if _, err := db.ExecContext(ctx, "INSTALL "+d.QuoteIdentifier(ext)); err != nil {
			return fmt.Errorf("failed to install extension %s: %w", ext, err)
		}
		if _, err := db.ExecContext(ctx, "LOAD "+d.QuoteIdentifier(ext)); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	keys := make([]string, 0, len(p.Settings))
	for k := range p.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stmt := fmt.Sprintf("SET GLOBAL %s = %s", k, d.QuoteLiteral(p.Settings[k]))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", k, err)
		}
	}
	return nil
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error) {
	return a.GetTableMetadataCommon(ctx, table, dialect.DuckDB)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
