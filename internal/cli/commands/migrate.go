package commands

import (
	"fmt"
	"io"

	"github.com/leapstack-labs/leaporm/internal/config"
	"github.com/leapstack-labs/leaporm/pkg/ddl"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create tables for every schema",
		Long: `Load every schema in the schemas directory and create the missing
tables, sequences and indexes. Statements use IF NOT EXISTS, so running
migrate twice is harmless. Existing tables are never altered.`,
		Example: `  # Create tables in the configured database
  leaporm migrate

  # Print the DDL without connecting
  leaporm migrate --dry-run --database postgres://localhost/app`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := getConfig(ctx)
			logger := config.GetLogger(ctx)

			files, err := LoadSchemaFiles(cfg.SchemasDir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				logger.Warn("no schema files found", "dir", cfg.SchemasDir)
			}

			if dryRun {
				return printPlan(cmd.OutOrStdout(), cfg, files)
			}

			e, err := connectWith(ctx, cfg, files, false)
			if err != nil {
				return err
			}
			defer closeEngine(ctx, e)

			if err := e.CreateTables(ctx); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d models\n", len(files))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the DDL plan instead of executing it")
	return cmd
}

func printPlan(w io.Writer, cfg *config.Config, files []SchemaFile) error {
	d, err := targetDialect(cfg)
	if err != nil {
		return err
	}
	reg, err := buildRegistry(files)
	if err != nil {
		return err
	}
	plans, err := ddl.CompileAll(reg.Snapshot(), d)
	if err != nil {
		return err
	}

	for _, p := range plans {
		_, _ = fmt.Fprintf(w, "-- %s (%s)\n", p.Model, p.Table)
		for _, warning := range p.Warnings {
			_, _ = fmt.Fprintf(w, "-- warning: %s\n", warning)
		}
		for _, stmt := range p.Statements() {
			_, _ = fmt.Fprintf(w, "%s;\n", stmt)
		}
		_, _ = fmt.Fprintln(w)
	}
	return nil
}
