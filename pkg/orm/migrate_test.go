package orm

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/leapstack-labs/leaporm/internal/testutil"
	"github.com/leapstack-labs/leaporm/pkg/adapter"
	"github.com/leapstack-labs/leaporm/pkg/adapters/sqlite"
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingAdapter is a sqlite adapter that keeps every statement passed to Exec.
type recordingAdapter struct {
	*sqlite.Adapter
	mu    sync.Mutex
	stmts []string
}

func (r *recordingAdapter) Exec(ctx context.Context, sql string) error {
	r.mu.Lock()
	r.stmts = append(r.stmts, sql)
	r.mu.Unlock()
	return r.Adapter.Exec(ctx, sql)
}

func TestCreateTables_ExecutesThroughAdapter(t *testing.T) {
	rec := &recordingAdapter{Adapter: sqlite.New(nil)}
	adapter.Register("recording_sqlite", func(*slog.Logger) adapter.Adapter { return rec })

	e := New(WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, e.RegisterSchema("Membership", []byte(membershipSchema)))
	require.NoError(t, e.RegisterSchema("User", []byte(userSchema)))
	require.NoError(t, e.RegisterSchema("Group", []byte(groupSchema)))

	cfg := core.AdapterConfig{Type: "recording_sqlite", Path: filepath.Join(t.TempDir(), "orm.db")}
	require.NoError(t, e.Connect(context.Background(), cfg, true))
	t.Cleanup(func() { _ = e.Close() })

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.NotEmpty(t, rec.stmts)
	assert.Contains(t, rec.stmts[0], `CREATE TABLE IF NOT EXISTS "group"`, "referenced tables come first")

	assert.Contains(t, rec.stmts[len(rec.stmts)-1], `"membership"`, "the referencing table comes last")
}
