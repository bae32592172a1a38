// Package commands implements the leaporm subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/leapstack-labs/leaporm/internal/config"
	"github.com/leapstack-labs/leaporm/pkg/dialect"
	"github.com/leapstack-labs/leaporm/pkg/orm"
	"github.com/spf13/cobra"
)

// getConfig returns the configuration loaded by the root command,
// falling back to defaults when a command runs standalone.
func getConfig(ctx context.Context) *config.Config {
	if cfg := config.FromContext(ctx); cfg != nil {
		return cfg
	}
	return &config.Config{
		Database:   config.TargetConfig{Type: config.DefaultDatabaseType, Database: config.DefaultDatabasePath},
		SchemasDir: config.DefaultSchemasDir,
		PoolSize:   config.DefaultPoolSize,
		Output:     config.DefaultOutput,
	}
}

// openEngine registers every schema in the schemas directory and connects.
// The caller must Close the returned engine.
func openEngine(ctx context.Context, cfg *config.Config, autoMigrate bool) (*orm.Engine, error) {
	files, err := LoadSchemaFiles(cfg.SchemasDir)
	if err != nil {
		return nil, err
	}
	return connectWith(ctx, cfg, files, autoMigrate)
}

func connectWith(ctx context.Context, cfg *config.Config, files []SchemaFile, autoMigrate bool) (*orm.Engine, error) {
	logger := config.GetLogger(ctx)
	e := orm.New(orm.WithLogger(logger), orm.WithPoolSize(cfg.PoolSize))
	for _, f := range files {
		if err := e.RegisterSchema(f.Model, f.JSON); err != nil {
			return nil, err
		}
		logger.Debug("registered schema", "model", f.Model, "file", f.Path)
	}

	ac, err := cfg.AdapterConfig()
	if err != nil {
		return nil, err
	}
	if err := e.Connect(ctx, ac, autoMigrate); err != nil {
		return nil, err
	}
	return e, nil
}

// targetDialect resolves the SQL dialect of the configured database
// without connecting.
func targetDialect(cfg *config.Config) (*dialect.Dialect, error) {
	ac, err := cfg.AdapterConfig()
	if err != nil {
		return nil, err
	}
	d, ok := dialect.Get(ac.Type)
	if !ok {
		return nil, fmt.Errorf("no dialect registered for %q", ac.Type)
	}
	return d, nil
}

// readQuery returns the query document named by args[i].
// "-" reads stdin; a missing argument selects every row of model.
func readQuery(cmd *cobra.Command, args []string, i int, model string) ([]byte, error) {
	if len(args) <= i {
		return json.Marshal(map[string]string{"model_name": model})
	}
	if args[i] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	raw, err := os.ReadFile(args[i])
	if err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}
	return raw, nil
}

func closeEngine(ctx context.Context, e *orm.Engine) {
	if err := e.Close(); err != nil {
		config.GetLogger(ctx).Warn("failed to close engine", "error", err)
	}
}
