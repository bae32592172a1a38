// Package postgres provides a PostgreSQL database adapter for leaporm.
//
// The pool uses github.com/jackc/pgx/v5/stdlib by default. Set
// options.driver to "pq" to use github.com/lib/pq instead.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/lib/pq"              // registers "postgres"

	"github.com/leapstack-labs/leaporm/pkg/adapter"
	"github.com/leapstack-labs/leaporm/pkg/adapters/postgres/dialect"
	"github.com/leapstack-labs/leaporm/pkg/core"
	pkgdialect "github.com/leapstack-labs/leaporm/pkg/dialect"
)

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Dialect returns the PostgreSQL dialect.
func (a *Adapter) Dialect() *pkgdialect.Dialect {
	return dialect.Postgres
}

// Connect establishes a connection pool to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg core.AdapterConfig) error {
	driver, err := driverName(cfg)
	if err != nil {
		return err
	}
	dsn := buildPostgresDSN(cfg)

	a.Logger.Debug("connecting to postgres",
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Database),
		slog.String("driver", driver))

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	adapter.ConfigurePool(db, cfg)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// driverName maps options.driver to a registered database/sql driver.
func driverName(cfg core.AdapterConfig) (string, error) {
	switch strings.ToLower(cfg.Options["driver"]) {
	case "", "pgx":
		return "pgx", nil
	case "pq", "lib/pq":
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported postgres driver %q (want pgx or pq)", cfg.Options["driver"])
	}
}

// buildPostgresDSN constructs a key=value PostgreSQL connection string
// understood by both pgx and lib/pq.
func buildPostgresDSN(cfg core.AdapterConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	parts := []string{
		"host=" + dsnValue(host),
		fmt.Sprintf("port=%d", port),
		"dbname=" + dsnValue(cfg.Database),
		"sslmode=" + dsnValue(sslmode),
	}
	if cfg.Username != "" {
		parts = append(parts, "user="+dsnValue(cfg.Username))
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+dsnValue(cfg.Password))
	}
	if cfg.Schema != "" {
		parts = append(parts, "search_path="+dsnValue(cfg.Schema))
	}

	// Remaining options pass through as connection parameters.
	var extra []string
	for k := range cfg.Options {
		switch k {
		case "driver", "sslmode", "search_path":
			continue
		}
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		parts = append(parts, k+"="+dsnValue(cfg.Options[k]))
	}

	return strings.Join(parts, " ")
}

// dsnValue quotes a value when it is empty or contains spaces, quotes or backslashes.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error) {
	d := dialect.Postgres
	if a.Cfg.Schema != "" && !strings.Contains(table, ".") {
		table = a.Cfg.Schema + "." + table
	}
	return a.GetTableMetadataCommon(ctx, table, d)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
