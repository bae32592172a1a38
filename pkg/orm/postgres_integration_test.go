//go:build integration

package orm

import (
	"context"
	"testing"
	"time"

	"github.com/leapstack-labs/leaporm/internal/testutil"
	_ "github.com/leapstack-labs/leaporm/pkg/adapters/postgres"
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newPostgresEngine(t *testing.T) *Engine {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("leaporm"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	e := New(WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, e.RegisterSchema("Membership", []byte(membershipSchema)))
	require.NoError(t, e.RegisterSchema("User", []byte(userSchema)))
	require.NoError(t, e.RegisterSchema("Group", []byte(groupSchema)))
	require.NoError(t, e.ConnectURL(ctx, dsn+"sslmode=disable", true))
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestPostgres_EndToEnd(t *testing.T) {
	ctx := context.Background()
	e := newPostgresEngine(t)

	first := save(t, e, "User", `{"email": "a@x.io", "active": true, "balance": "12.50"}`, "")
	second := save(t, e, "User", `{"email": "b@x.io"}`, "")
	require.IsType(t, int64(0), first)
	assert.Greater(t, second.(int64), first.(int64))

	key := save(t, e, "User", `{"id": 1, "email": "a@x.io", "name": "upserted"}`, "")
	assert.Equal(t, int64(1), key)

	h, ok, err := e.FetchOne(ctx, "User", "1", "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, core.Text("upserted"), field(t, h, "name"))
	assert.Equal(t, core.Bool(true), field(t, h, "active"))
	assert.Equal(t, core.Decimal("12.50"), field(t, h, "balance"))

	again, _, err := e.FetchOne(ctx, "User", "1", "")
	require.NoError(t, err)
	assert.Same(t, h, again)

	handles, err := e.FetchFiltered(ctx, "User", []byte(`{
		"where_clause": [{"is_compound": true, "operator": "OR",
			"left":  {"column": "email", "operator": "==", "value": "b@x.io"},
			"right": {"column": "name",  "operator": "LIKE", "value": "up%"}}],
		"order_by": [{"column": "id"}], "limit": 10
	}`), "")
	require.NoError(t, err)
	assert.Len(t, handles, 2)
}

func TestPostgres_Transactions(t *testing.T) {
	ctx := context.Background()
	e := newPostgresEngine(t)

	txID, err := e.Begin(ctx)
	require.NoError(t, err)
	save(t, e, "User", `{"email": "tx@x.io"}`, txID)

	outside, err := e.CountFiltered(ctx, "User", []byte(`{}`), "")
	require.NoError(t, err)
	assert.Zero(t, outside)

	require.NoError(t, e.Rollback(ctx, txID))
	count, err := e.CountFiltered(ctx, "User", []byte(`{}`), "")
	require.NoError(t, err)
	assert.Zero(t, count)
}
