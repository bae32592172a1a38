// Package sqlite provides a SQLite database adapter for leaporm.
//
// The default build uses the pure Go modernc.org/sqlite driver.
// Build with -tags cgo_sqlite to use github.com/mattn/go-sqlite3 instead.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leaporm/pkg/adapter"
	"github.com/leapstack-labs/leaporm/pkg/adapters/sqlite/dialect"
	"github.com/leapstack-labs/leaporm/pkg/core"
	pkgdialect "github.com/leapstack-labs/leaporm/pkg/dialect"
)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter

	// tempDir holds the files of an in-memory database.
	tempDir string
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Dialect returns the SQLite dialect.
func (a *Adapter) Dialect() *pkgdialect.Dialect {
	return dialect.SQLite
}

// Connect opens a SQLite database.
// Use ":memory:" (or an empty path) for a private scratch database. It lives
// in a temporary WAL file that every pooled connection shares and that Close
// removes.
func (a *Adapter) Connect(ctx context.Context, cfg core.AdapterConfig) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return fmt.Errorf("invalid sqlite params: %w", err)
	}

	path := cfg.Path
	if path == "" || path == ":memory:" {
		dir, err := os.MkdirTemp("", "leaporm-memdb-*")
		if err != nil {
			return fmt.Errorf("failed to create in-memory database: %w", err)
		}
		a.tempDir = dir
		path = filepath.Join(dir, "memory.db")
	}
	dsn := buildDSN(path, params)

	a.Logger.Debug("connecting to sqlite",
		slog.String("path", cfg.Path),
		slog.String("driver", DriverName()))

	db, err := sql.Open(DriverName(), dsn)
	if err != nil {
		a.removeTemp()
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	adapter.ConfigurePool(db, cfg)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		a.removeTemp()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// Close closes the pool and deletes the files of an in-memory database.
func (a *Adapter) Close() error {
	err := a.BaseSQLAdapter.Close()
	return errors.Join(err, a.removeTemp())
}

func (a *Adapter) removeTemp() error {
	if a.tempDir == "" {
		return nil
	}
	err := os.RemoveAll(a.tempDir)
	a.tempDir = ""
	return err
}

// GetTableMetadata retrieves metadata for a table using pragma_table_info.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error) {
	if a.DB == nil {
		return nil, adapter.ErrNotConnected
	}

	schema, tableName := adapter.ParseQualifiedName(table, dialect.SQLite)

	rows, err := a.DB.QueryContext(ctx,
		`SELECT cid, name, type, "notnull", pk FROM pragma_table_info(?, ?) ORDER BY cid`,
		tableName, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.ColumnMetadata
	for rows.Next() {
		var (
			col     core.ColumnMetadata
			notNull int
			pk      int
		)
		if err := rows.Scan(&col.Position, &col.Name, &col.Type, &notNull, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Position++
		col.Nullable = notNull == 0 && pk == 0
		col.PrimaryKey = pk > 0
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	var rowCount int64
	//nolint:gosec // identifiers are quoted by the dialect
	countQuery := "SELECT COUNT(*) FROM " + dialect.SQLite.QuoteIdentifier(schema) + "." + dialect.SQLite.QuoteIdentifier(tableName)
	if err := a.DB.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		rowCount = 0
	}

	return &core.TableMetadata{
		Schema:   schema,
		Name:     tableName,
		Columns:  columns,
		RowCount: rowCount,
	}, nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
