package commands

import (
	"github.com/spf13/cobra"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <table>",
		Short: "Show the live columns of a table",
		Long: `Query the database catalog for a table's columns and row count.
Accepts schema-qualified names such as public.user.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := getConfig(ctx)

			e, err := connectWith(ctx, cfg, nil, false)
			if err != nil {
				return err
			}
			defer closeEngine(ctx, e)

			meta, err := e.TableMetadata(ctx, args[0])
			if err != nil {
				return err
			}
			return renderMetadata(cmd.OutOrStdout(), meta, cfg.Output)
		},
	}
}
