package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCountCommand creates the count command.
func NewCountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "count <model> [query.json|-]",
		Short: "Count rows of a model",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := getConfig(ctx)
			model := args[0]

			e, err := openEngine(ctx, cfg, cfg.AutoMigrate)
			if err != nil {
				return err
			}
			defer closeEngine(ctx, e)

			raw, err := readQuery(cmd, args, 1, model)
			if err != nil {
				return err
			}
			n, err := e.CountFiltered(ctx, model, raw, "")
			if err != nil {
				return err
			}

			if cfg.Output == "json" {
				return renderJSON(cmd.OutOrStdout(), map[string]any{"model": model, "count": n})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}
