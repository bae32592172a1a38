package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/orm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/leaporm/pkg/adapters/sqlite"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	if errOut.Len() > 0 {
		t.Log(errOut.String())
	}
	return out.String(), err
}

// seed inserts rows into the project database through the engine.
func seed(t *testing.T, dir string, records ...string) {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, "schemas", "user.json"))
	require.NoError(t, err)

	ctx := context.Background()
	e := orm.New()
	require.NoError(t, e.RegisterSchema("user", raw))
	require.NoError(t, e.Connect(ctx, core.AdapterConfig{Type: "sqlite", Path: filepath.Join(dir, "leaporm.db")}, true))
	defer func() { _ = e.Close() }()

	for _, r := range records {
		_, err := e.Save(ctx, "user", []byte(r), "")
		require.NoError(t, err)
	}
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"config", "database", "schemas-dir", "verbose", "output"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "flag %q should exist", name)
	}

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"migrate", "compile", "fetch", "count", "inspect", "shell", "init", "version"})
}

func TestCLI_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	out, err := run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "leaporm.yaml")
	assert.FileExists(t, filepath.Join(dir, "schemas", "user.json"))

	out, err = run(t, "migrate", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, `CREATE TABLE IF NOT EXISTS "user"`)
	assert.NoFileExists(t, filepath.Join(dir, "leaporm.db"), "dry run must not connect")

	out, err = run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated 1 models")

	seed(t, dir, `{"name": "alice", "email": "a@example.com"}`, `{"name": "bob"}`)

	out, err = run(t, "count", "user")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = run(t, "fetch", "user", "-o", "json")
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0]["name"])
	assert.Nil(t, rows[1]["email"])

	out, err = run(t, "fetch", "user")
	require.NoError(t, err)
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(2 rows)")

	out, err = run(t, "fetch", "user", "--pk", "2", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"bob"`)

	queryPath := filepath.Join(dir, "named.json")
	require.NoError(t, os.WriteFile(queryPath, []byte(
		`{"model_name": "user", "where_clause": [{"is_compound": false, "column": "name", "operator": "==", "value": "bob"}]}`,
	), 0o600))

	out, err = run(t, "count", "user", queryPath)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	out, err = run(t, "compile", "user", queryPath, "-o", "json")
	require.NoError(t, err)
	var compiled struct {
		SQL  string `json:"sql"`
		Args []any  `json:"args"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &compiled))
	assert.Contains(t, compiled.SQL, `FROM "user" WHERE "name" = ?`)
	assert.Equal(t, []any{"bob"}, compiled.Args)

	out, err = run(t, "inspect", "user")
	require.NoError(t, err)
	assert.Contains(t, out, "email")
}

func TestCLI_Errors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	_, err := run(t, "init")
	require.NoError(t, err)

	_, err = run(t, "fetch", "missing")
	assert.ErrorIs(t, err, core.ErrModelNotFound)

	_, err = run(t, "compile", "missing")
	assert.ErrorIs(t, err, core.ErrModelNotFound)

	_, err = run(t, "count", "user", "--database", "mysql://localhost/app")
	assert.ErrorIs(t, err, core.ErrUnknownAdapter)

	_, err = run(t, "fetch", "user", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")

	_, err = run(t, "init")
	require.Error(t, err, "init refuses to overwrite without --force")
}

func TestCLI_DatabaseURLOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	_, err := run(t, "init")
	require.NoError(t, err)

	out, err := run(t, "count", "user", "--database", "sqlite::memory:")
	require.NoError(t, err, "auto_migrate creates the table in the in-memory database")
	assert.Equal(t, "0\n", out)
	assert.NoFileExists(t, filepath.Join(dir, "leaporm.db"))
}
