package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const configTemplate = `# leaporm project configuration
database:
  type: sqlite
  database: leaporm.db
  # For postgres:
  # type: postgres
  # host: localhost
  # database: app
  # user: app
  # password: ${PGPASSWORD}

schemas_dir: schemas
auto_migrate: true
pool_size: 5
output: table
`

const userSchemaTemplate = `{
  "properties": {
    "id": {"type": "integer", "primary_key": true},
    "name": {"type": "string"},
    "email": {"anyOf": [{"type": "string"}, {"type": "null"}], "unique": true},
    "created_at": {"type": "string", "format": "date-time"}
  }
}
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new leaporm project",
		Long: `Create a leaporm.yaml configuration file and a schemas/ directory
holding an example model schema.`,
		Example: `  leaporm init
  leaporm init my-project --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			if err := runInit(dir, force); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(w, "Created leaporm.yaml")
			_, _ = fmt.Fprintln(w, "Created schemas/user.json")
			_, _ = fmt.Fprintln(w)
			_, _ = fmt.Fprintln(w, "Next steps:")
			_, _ = fmt.Fprintln(w, "  1. Edit leaporm.yaml to point at your database")
			_, _ = fmt.Fprintln(w, "  2. Add model schemas to schemas/")
			_, _ = fmt.Fprintln(w, "  3. Run 'leaporm migrate' to create the tables")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return cmd
}

func runInit(dir string, force bool) error {
	configPath := filepath.Join(dir, "leaporm.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("leaporm.yaml already exists. Use --force to overwrite")
	}

	schemasDir := filepath.Join(dir, "schemas")
	if err := os.MkdirAll(schemasDir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", schemasDir, err)
	}
	if err := os.WriteFile(configPath, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	schemaPath := filepath.Join(schemasDir, "user.json")
	if _, err := os.Stat(schemaPath); err == nil && !force {
		return nil
	}
	if err := os.WriteFile(schemaPath, []byte(userSchemaTemplate), 0o600); err != nil {
		return fmt.Errorf("failed to write example schema: %w", err)
	}
	return nil
}
