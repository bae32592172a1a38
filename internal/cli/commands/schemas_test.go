package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leaporm/internal/testutil"
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSchemaFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "user.json", `{"properties": {"id": {"type": "integer", "primary_key": true}}}`)
	testutil.WriteFile(t, dir, "post.yaml", "properties:\n  id:\n    type: integer\n    primary_key: true\n  title:\n    type: string\n")
	testutil.WriteFile(t, dir, "README.md", "not a schema")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o750))

	files, err := LoadSchemaFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "post", files[0].Model)
	assert.JSONEq(t, `{"properties": {"id": {"type": "integer", "primary_key": true}, "title": {"type": "string"}}}`, string(files[0].JSON))
	assert.Equal(t, "user", files[1].Model)

	reg, err := buildRegistry(files)
	require.NoError(t, err)
	post, err := reg.Get("post")
	require.NoError(t, err)
	assert.Len(t, post.Columns, 2)
}

func TestLoadSchemaFiles_Errors(t *testing.T) {
	_, err := LoadSchemaFiles(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schemas directory")

	dir := t.TempDir()
	testutil.WriteFile(t, dir, "user.json", `{"properties": {}}`)
	testutil.WriteFile(t, dir, "user.yml", "properties: {}\n")
	_, err = LoadSchemaFiles(dir)
	assert.ErrorIs(t, err, core.ErrInvalidSchema)

	dir = t.TempDir()
	testutil.WriteFile(t, dir, "bad.yaml", "properties: [\n")
	_, err = LoadSchemaFiles(dir)
	assert.ErrorIs(t, err, core.ErrInvalidSchema)

	dir = t.TempDir()
	testutil.WriteFile(t, dir, "empty.json", `{"properties": {}}`)
	files, err := LoadSchemaFiles(dir)
	require.NoError(t, err)
	_, err = buildRegistry(files)
	assert.ErrorIs(t, err, core.ErrInvalidSchema)
}
