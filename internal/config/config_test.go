package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leaporm/internal/testutil"
	"github.com/leapstack-labs/leaporm/pkg/adapter"
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Register adapters via init()
	_ "github.com/leapstack-labs/leaporm/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leaporm/pkg/adapters/sqlite"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.String("database", "", "")
	fs.String("schemas-dir", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.StringP("output", "o", "", "")
	return fs
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	return testutil.WriteFile(t, dir, "leaporm.yaml", body)
}

func TestTargetConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		target    TargetConfig
		errSubstr string
	}{
		{name: "empty type", target: TargetConfig{}, errSubstr: "database type is required"},
		{name: "sqlite", target: TargetConfig{Type: "sqlite"}},
		{name: "sqlite uppercase", target: TargetConfig{Type: "SQLite"}},
		{name: "postgres", target: TargetConfig{Type: "postgres", Database: "app"}},
		{name: "postgres without database", target: TargetConfig{Type: "postgres"}, errSubstr: "database name is required"},
		{name: "unknown mysql", target: TargetConfig{Type: "mysql"}, errSubstr: "unknown adapter type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestTargetConfig_UnknownTypeMatchesSentinel(t *testing.T) {
	err := (&TargetConfig{Type: "oracle"}).Validate()
	var unknownErr *adapter.UnknownAdapterError
	require.ErrorAs(t, err, &unknownErr)
	assert.ErrorIs(t, err, core.ErrUnknownAdapter)
	assert.Contains(t, unknownErr.Available, "sqlite")
}

func TestTargetConfig_ApplyDefaults(t *testing.T) {
	pg := TargetConfig{Type: "Postgres"}
	pg.ApplyDefaults()
	assert.Equal(t, "postgres", pg.Type)
	assert.Equal(t, "public", pg.Schema)
	assert.Equal(t, DefaultPostgresPort, pg.Port)
	assert.Equal(t, "localhost", pg.Host)

	lite := TargetConfig{Type: "sqlite"}
	lite.ApplyDefaults()
	assert.Equal(t, "main", lite.Schema)
	assert.Zero(t, lite.Port)

	assert.Equal(t, "main", DefaultSchemaForType("unknown"))
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, filepath.Join(dir, DefaultDatabasePath), cfg.Database.Database)
	assert.Equal(t, filepath.Join(dir, DefaultSchemasDir), cfg.SchemasDir)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, DefaultPoolSize, cfg.PoolSize)
	assert.False(t, cfg.AutoMigrate)
	assert.Empty(t, cfg.FileUsed)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LEAPORM_TEST_PG_PASSWORD", "s3cret")
	path := writeConfig(t, dir, `
database:
  type: postgres
  host: db.internal
  database: orders
  user: app
  password: ${LEAPORM_TEST_PG_PASSWORD}
  options:
    sslmode: disable
schemas_dir: models
auto_migrate: true
pool_size: 8
output: json
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.FileUsed)
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, "models"), cfg.SchemasDir)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, 8, cfg.PoolSize)
	assert.Equal(t, "json", cfg.Output)

	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "public", cfg.Database.Schema)

	ac, err := cfg.AdapterConfig()
	require.NoError(t, err)
	assert.Equal(t, core.AdapterConfig{
		Type:     "postgres",
		Host:     "db.internal",
		Port:     5432,
		Database: "orders",
		Username: "app",
		Password: "s3cret",
		Schema:   "public",
		PoolSize: 8,
		Options:  map[string]string{"sslmode": "disable"},
	}, ac)
}

func TestLoad_SearchesUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "schemas_dir: defs\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "leaporm.yaml"), cfg.FileUsed)
	assert.Equal(t, filepath.Join(root, "defs"), cfg.SchemasDir)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeConfig(t, dir, "output: json\npool_size: 3\nschemas_dir: from-file\n")

	t.Setenv("LEAPORM_POOL_SIZE", "7")
	t.Setenv("LEAPORM_OUTPUT", "json")

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--output", "table", "--schemas-dir", "flagged"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)

	assert.Equal(t, "table", cfg.Output, "flag beats env and file")
	assert.Equal(t, 7, cfg.PoolSize, "env beats file")
	assert.Equal(t, filepath.Join(dir, "flagged"), cfg.SchemasDir, "flag paths resolve against the working directory")
	assert.False(t, cfg.Verbose, "unset flags do not override")
}

func TestLoad_NestedEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LEAPORM_DATABASE__DATABASE", ":memory:")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Database.Database)
}

func TestLoad_DatabaseFlagIsURL(t *testing.T) {
	t.Chdir(t.TempDir())

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--database", "sqlite::memory:"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "sqlite::memory:", cfg.URL)

	ac, err := cfg.AdapterConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", ac.Type)
	assert.Equal(t, ":memory:", ac.Path)
	assert.Equal(t, DefaultPoolSize, ac.PoolSize)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		errSubstr string
	}{
		{name: "unknown adapter", body: "database:\n  type: mysql\n", errSubstr: "unknown adapter type"},
		{name: "bad output", body: "output: xml\n", errSubstr: "invalid output format"},
		{name: "negative pool", body: "pool_size: -1\n", errSubstr: "pool_size"},
		{name: "malformed yaml", body: "database: [\n", errSubstr: "error reading config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := Load(path, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("LEAPORM_TEST_HOST", "db.example")
	assert.Equal(t, "db.example:5432", expandEnvVars("${LEAPORM_TEST_HOST}:5432"))
	assert.Equal(t, "${LEAPORM_TEST_UNSET}", expandEnvVars("${LEAPORM_TEST_UNSET}"))
	assert.Equal(t, "plain", expandEnvVars("plain"))
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()), "falls back to a discard logger")

	logger := GetLogger(WithLogger(context.Background(), nil))
	assert.NotNil(t, logger)
}

func TestFromContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	cfg := &Config{Output: "json"}
	assert.Same(t, cfg, FromContext(WithConfig(context.Background(), cfg)))
}
