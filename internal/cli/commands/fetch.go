package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewFetchCommand creates the fetch command.
func NewFetchCommand() *cobra.Command {
	var pk string

	cmd := &cobra.Command{
		Use:   "fetch <model> [query.json|-]",
		Short: "Fetch rows of a model",
		Long: `Fetch rows of a model, optionally filtered by a query document,
and print them decoded by column type.`,
		Example: `  # All rows
  leaporm fetch user

  # Filtered rows as JSON
  leaporm fetch user adults.json -o json

  # One row by primary key
  leaporm fetch user --pk 42`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := getConfig(ctx)
			model := args[0]

			e, err := openEngine(ctx, cfg, cfg.AutoMigrate)
			if err != nil {
				return err
			}
			defer closeEngine(ctx, e)

			s, err := e.Registry().Get(model)
			if err != nil {
				return err
			}

			if pk != "" {
				h, found, err := e.FetchOne(ctx, model, pk, "")
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("%s %s not found", model, pk)
				}
				return renderRecords(cmd.OutOrStdout(), s, []any{h}, cfg.Output)
			}

			raw, err := readQuery(cmd, args, 1, model)
			if err != nil {
				return err
			}
			handles, err := e.FetchFiltered(ctx, model, raw, "")
			if err != nil {
				return err
			}
			return renderRecords(cmd.OutOrStdout(), s, handles, cfg.Output)
		},
	}

	cmd.Flags().StringVar(&pk, "pk", "", "Fetch the single row with this primary key")
	return cmd
}
