package decode

import (
	"math"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accountSchema = `{
	"properties": {
		"id":         {"type": "integer", "primary_key": true},
		"name":       {"type": "string"},
		"active":     {"type": "boolean"},
		"balance":    {"anyOf": [{"type": "number"}, {"type": "string", "pattern": "^\\d+\\.\\d+$"}]},
		"ratio":      {"type": "number"},
		"avatar":     {"type": "string", "format": "binary"},
		"created_at": {"type": "string", "format": "date-time"},
		"born_on":    {"type": "string", "format": "date"},
		"token":      {"type": "string", "format": "uuid"},
		"settings":   {"anyOf": [{"type": "object"}, {"type": "null"}]}
	}
}`

func accountModel(t *testing.T) *core.ModelSchema {
	t.Helper()
	s, err := schema.Parse("Account", []byte(accountSchema))
	require.NoError(t, err)
	return s
}

func TestDecoder_RuleOrder(t *testing.T) {
	assert.Equal(t, []string{
		"null", "decimal", "binary", "integer", "float", "text",
		"blob", "boolean", "time", "uuid", "structured",
	}, New().Rules())
}

func TestDecoder_Decode(t *testing.T) {
	s := accountModel(t)
	d := New()
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		column string
		raw    any
		want   core.Value
	}{
		{"null wins over hints", "balance", nil, core.Null()},
		{"integer", "id", int64(7), core.Int(7)},
		{"narrow integer", "id", int32(7), core.Int(7)},
		{"boolean stored as one", "active", int64(1), core.Bool(true)},
		{"boolean stored as zero", "active", int64(0), core.Bool(false)},
		{"boolean stored as other integer", "active", int64(-3), core.Bool(true)},
		{"native boolean", "active", true, core.Bool(true)},
		{"decimal text keeps trailing zeros", "balance", "12.50", core.Decimal("12.50")},
		{"decimal bytes", "balance", []byte("0.10"), core.Decimal("0.10")},
		{"decimal from float has no exponent", "balance", 1e21, core.Decimal("1000000000000000000000")},
		{"decimal from integer", "balance", int64(12), core.Decimal("12")},
		{"float", "ratio", 0.25, core.Float(0.25)},
		{"float column holding integer", "ratio", int64(2), core.Int(2)},
		{"text", "name", "ada", core.Text("ada")},
		{"text from bytes", "name", []byte("ada"), core.Text("ada")},
		{"binary from bytes", "avatar", []byte{0, 1}, core.Blob([]byte{0, 1})},
		{"binary from text", "avatar", "ab", core.Blob([]byte("ab"))},
		{"date-time text", "created_at", "2024-03-01T12:30:00Z", core.DateTime("2024-03-01T12:30:00Z")},
		{"date text", "born_on", "2024-03-01", core.Date("2024-03-01")},
		{"uuid text", "token", id.String(), core.UUID(id.String())},
		{"native time", "created_at", ts, core.DateTime("2024-03-01T12:30:00Z")},
		{"native date", "born_on", ts, core.Date("2024-03-01")},
		{"native uuid", "token", id, core.UUID(id.String())},
		{"uuid byte array", "token", [16]byte(id), core.UUID(id.String())},
		{"json object", "settings", `{"theme": "dark"}`, core.JSON(map[string]any{"theme": "dark"})},
		{"json number stays exact", "settings", `[9007199254740993]`, core.JSON([]any{json.Number("9007199254740993")})},
		{"invalid json falls back to text", "settings", `{oops`, core.Text(`{oops`)},
		{"unknown column integer", "missing", int64(3), core.Int(3)},
		{"unsigned within int64", "missing", uint64(42), core.Int(42)},
		{"unsigned past int64", "missing", uint64(math.MaxUint64), core.Decimal("18446744073709551615")},
		{"decimal from large unsigned", "balance", uint64(1 << 63), core.Decimal("9223372036854775808")},
		{"unknown column bytes", "missing", []byte("x"), core.Blob([]byte("x"))},
		{"unknown column text", "missing", "x", core.Text("x")},
		{"unsupported type", "name", struct{}{}, core.Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Decode(s, tt.column, tt.raw))
		})
	}
}

func TestDecoder_DecodeRow(t *testing.T) {
	s := accountModel(t)
	fields := New().DecodeRow(s,
		[]string{"id", "active", "balance"},
		[]any{int64(1), int64(1), "3.00"})

	assert.Equal(t, []Field{
		{Name: "id", Value: core.Int(1)},
		{Name: "active", Value: core.Bool(true)},
		{Name: "balance", Value: core.Decimal("3.00")},
	}, fields)
}

func TestDecoder_NilSchema(t *testing.T) {
	assert.Equal(t, core.Int(1), New().Decode(nil, "x", int64(1)))
	assert.Equal(t, core.JSON([]any{"a"}), New().Decode(nil, "x", []any{"a"}))
}
