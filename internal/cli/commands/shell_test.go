package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leaporm/internal/config"
	"github.com/leapstack-labs/leaporm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShell(t *testing.T) (*shellSession, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "schemas/note.json",
		`{"properties": {"id": {"type": "integer", "primary_key": true}, "body": {"type": "string"}}}`)
	cfg := &config.Config{
		Database:   config.TargetConfig{Type: "sqlite", Database: filepath.Join(dir, "shell.db")},
		SchemasDir: filepath.Join(dir, "schemas"),
		Output:     "table",
	}

	ctx := config.WithLogger(context.Background(), testutil.NewTestLogger(t))
	e, err := openEngine(ctx, cfg, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	return newShellSession(e, out, errOut, "table"), out, errOut
}

func TestShellSession_Query(t *testing.T) {
	ctx := context.Background()
	s, out, errOut := newShell(t)
	_, err := s.e.Save(ctx, "note", []byte(`{"body": "first"}`), "")
	require.NoError(t, err)

	assert.Equal(t, shellPrompt, s.prompt())
	assert.False(t, s.handle(ctx, `{"model_name": "note",`))
	assert.Equal(t, shellMorePrompt, s.prompt(), "unterminated documents continue")
	assert.False(t, s.handle(ctx, `"limit": 5};`))
	assert.Equal(t, shellPrompt, s.prompt())

	assert.Contains(t, out.String(), "first")
	assert.Contains(t, out.String(), "(1 rows)")
	assert.Empty(t, errOut.String())

	out.Reset()
	s.handle(ctx, `{"model_name": "ghost"};`)
	assert.Contains(t, errOut.String(), "model not found")
}

func TestShellSession_DotCommands(t *testing.T) {
	ctx := context.Background()
	s, out, errOut := newShell(t)

	s.handle(ctx, ".models")
	assert.Contains(t, out.String(), "note")

	out.Reset()
	s.handle(ctx, ".inspect note")
	assert.Contains(t, out.String(), "body")

	out.Reset()
	s.handle(ctx, ".count note")
	assert.Equal(t, "0\n", out.String())

	s.handle(ctx, ".count")
	assert.Contains(t, errOut.String(), "Usage: .count")

	s.handle(ctx, ".bogus")
	assert.Contains(t, errOut.String(), "Unknown command: .bogus")

	out.Reset()
	s.handle(ctx, ".help")
	assert.Contains(t, out.String(), ".rollback")

	assert.True(t, s.handle(ctx, ".quit"))
	assert.True(t, s.handle(ctx, ".EXIT"))
}

func TestShellSession_Transaction(t *testing.T) {
	ctx := context.Background()
	s, out, errOut := newShell(t)

	s.handle(ctx, ".commit")
	assert.Contains(t, errOut.String(), "No open transaction")

	s.handle(ctx, ".begin")
	require.NotEmpty(t, s.txID)
	assert.Equal(t, shellTxPrompt, s.prompt())

	s.handle(ctx, ".begin")
	assert.Contains(t, errOut.String(), "already open")

	_, err := s.e.Save(ctx, "note", []byte(`{"body": "pending"}`), s.txID)
	require.NoError(t, err)

	out.Reset()
	s.handle(ctx, ".count note")
	assert.Equal(t, "1\n", out.String(), "queries run inside the open transaction")

	s.handle(ctx, ".rollback")
	assert.Empty(t, s.txID)
	assert.Equal(t, 0, s.e.OpenTransactions())

	out.Reset()
	s.handle(ctx, ".count note")
	assert.Equal(t, "0\n", out.String())

	s.handle(ctx, ".begin")
	s.close(ctx)
	assert.Empty(t, s.txID, "close rolls back an open transaction")
}
