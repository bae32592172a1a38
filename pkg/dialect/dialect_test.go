package dialect

import (
	"testing"

	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPlaceholder(t *testing.T) {
	question := NewDialect("q").Build()
	dollar := NewDialect("d").PlaceholderStyle(core.PlaceholderDollar).Build()

	assert.Equal(t, "?", question.FormatPlaceholder(1))
	assert.Equal(t, "?", question.FormatPlaceholder(7))
	assert.Equal(t, "$1", dollar.FormatPlaceholder(1))
	assert.Equal(t, "$12", dollar.FormatPlaceholder(12))
}

func TestQuoteIdentifier(t *testing.T) {
	d := NewDialect("test").Build()
	backtick := NewDialect("bt").Identifiers("`", "`", "``").Build()

	tests := []struct {
		name string
		d    *Dialect
		in   string
		want string
	}{
		{"plain", d, "users", `"users"`},
		{"reserved word", d, "order", `"order"`},
		{"embedded quote", d, `we"ird`, `"we""ird"`},
		{"backtick", backtick, "a`b", "`a``b`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.QuoteIdentifier(tt.in))
		})
	}
}

func TestQuoteLiteral(t *testing.T) {
	d := NewDialect("test").Build()
	assert.Equal(t, `'seq_user_id'`, d.QuoteLiteral("seq_user_id"))
	assert.Equal(t, `'it''s'`, d.QuoteLiteral("it's"))
}

func TestColumnType_Fallback(t *testing.T) {
	d := NewDialect("test").
		Types(map[core.ColumnType]string{
			core.TypeInteger: "BIGINT",
			core.TypeText:    "VARCHAR",
		}).
		Build()

	assert.Equal(t, "BIGINT", d.ColumnType(core.TypeInteger))
	assert.Equal(t, "VARCHAR", d.ColumnType(core.TypeUUID))

	bare := NewDialect("bare").Build()
	assert.Equal(t, "TEXT", bare.ColumnType(core.TypeJSON))
}

func TestBuilder_Defaults(t *testing.T) {
	d := NewDialect("test").Build()
	assert.True(t, d.ForeignKeyActions)
	assert.Equal(t, core.InsertIDLastInsert, d.InsertID)
	assert.Equal(t, core.AutoIncrementKeyword, d.AutoIncrement)
	assert.Empty(t, d.UnboundedLimit)
}

func TestRegistry(t *testing.T) {
	d := NewDialect("Registry_Test").Build()
	Register(d)

	got, ok := Get("registry_test")
	require.True(t, ok)
	assert.Same(t, d, got)
	assert.Contains(t, List(), "registry_test")

	_, ok = Get("does_not_exist")
	assert.False(t, ok)
}
