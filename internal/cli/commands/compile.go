package commands

import (
	"fmt"

	"github.com/leapstack-labs/leaporm/pkg/query"
	"github.com/spf13/cobra"
)

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	var count bool

	cmd := &cobra.Command{
		Use:   "compile <model> [query.json|-]",
		Short: "Print the SQL a query compiles to",
		Long: `Compile a query document against a model schema and print the
parameterized SQL with its bound arguments. No connection is made; the
dialect comes from the configured database type.`,
		Example: `  leaporm compile user query.json
  echo '{"model_name":"user","where_clause":[{"is_compound":false,"column":"name","operator":"LIKE","value":"a%"}]}' | leaporm compile user -`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd.Context())
			model := args[0]

			d, err := targetDialect(cfg)
			if err != nil {
				return err
			}
			files, err := LoadSchemaFiles(cfg.SchemasDir)
			if err != nil {
				return err
			}
			reg, err := buildRegistry(files)
			if err != nil {
				return err
			}
			s, err := reg.Get(model)
			if err != nil {
				return err
			}

			raw, err := readQuery(cmd, args, 1, model)
			if err != nil {
				return err
			}
			def, err := query.Parse(raw)
			if err != nil {
				return err
			}

			c := query.NewCompiler(d)
			var stmt query.Statement
			if count {
				stmt, err = c.Count(s, def)
			} else {
				stmt, err = c.Select(s, def)
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if cfg.Output == "json" {
				return renderJSON(w, map[string]any{"sql": stmt.SQL, "args": stmt.Args})
			}
			_, _ = fmt.Fprintln(w, stmt.SQL)
			for i, arg := range stmt.Args {
				_, _ = fmt.Fprintf(w, "  $%d = %#v\n", i+1, arg)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&count, "count", false, "Compile a COUNT query instead of a SELECT")
	return cmd
}
