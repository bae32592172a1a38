package schema

import (
	"testing"

	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userSchema = `{
	"title": "User",
	"type": "object",
	"properties": {
		"id":         {"type": "integer", "primary_key": true},
		"email":      {"type": "string", "unique": true, "index": true},
		"nickname":   {"anyOf": [{"type": "string"}, {"type": "null"}], "default": null},
		"balance":    {"anyOf": [{"type": "number"}, {"type": "string", "pattern": "^(?!^[-+.]*$)[+-]?0*\\d*\\.?\\d*$"}]},
		"active":     {"type": "boolean"},
		"created_at": {"type": "string", "format": "date-time"},
		"born_on":    {"anyOf": [{"type": "string", "format": "date"}, {"type": "null"}]},
		"token":      {"type": "string", "format": "uuid"},
		"avatar":     {"type": "string", "format": "binary"},
		"settings":   {"type": "object"},
		"tags":       {"type": "array", "items": {"type": "string"}},
		"team_id":    {"type": "integer", "foreign_key": {"to_table": "team", "on_delete": "set null"}}
	},
	"required": ["email"]
}`

func TestParse_UserSchema(t *testing.T) {
	s, err := Parse("User", []byte(userSchema))
	require.NoError(t, err)

	assert.Equal(t, "User", s.Name)
	assert.Equal(t, "user", s.Table)
	assert.Equal(t, []string{
		"id", "email", "nickname", "balance", "active", "created_at",
		"born_on", "token", "avatar", "settings", "tags", "team_id",
	}, s.ColumnNames(), "columns keep declaration order")

	pk := s.PrimaryKey()
	require.NotNil(t, pk)
	assert.Equal(t, "id", pk.Name)
	assert.True(t, pk.AutoIncrement, "autoincrement defaults to true")

	tests := []struct {
		column   string
		typ      core.ColumnType
		nullable bool
	}{
		{"id", core.TypeInteger, false},
		{"email", core.TypeText, false},
		{"nickname", core.TypeText, true},
		{"balance", core.TypeDecimal, false},
		{"active", core.TypeBoolean, false},
		{"created_at", core.TypeDateTime, false},
		{"born_on", core.TypeDate, true},
		{"token", core.TypeUUID, false},
		{"avatar", core.TypeBlob, false},
		{"settings", core.TypeJSON, false},
		{"tags", core.TypeJSON, false},
		{"team_id", core.TypeInteger, false},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			col, ok := s.Column(tt.column)
			require.True(t, ok)
			assert.Equal(t, tt.typ, col.Type())
			assert.Equal(t, tt.nullable, col.Nullable)
		})
	}

	email, _ := s.Column("email")
	assert.True(t, email.Unique)
	assert.True(t, email.Index)

	balance, _ := s.Column("balance")
	assert.Equal(t, "number", balance.JSONType, "first non-null anyOf member gives the type")

	team, _ := s.Column("team_id")
	require.NotNil(t, team.ForeignKey)
	assert.Equal(t, "team", team.ForeignKey.ToTable)
	assert.Equal(t, "id", team.ForeignKey.ToColumn)
	assert.Equal(t, core.OnDeleteSetNull, team.ForeignKey.OnDelete)
}

func TestParse_DecimalDetection(t *testing.T) {
	tests := []struct {
		name    string
		prop    string
		decimal bool
		typ     core.ColumnType
	}{
		{"patterned string", `{"type": "string", "pattern": "^[a-z-]+$"}`, false, core.TypeText},
		{"optional patterned string", `{"anyOf": [{"type": "string", "pattern": "^[a-z-]+$"}, {"type": "null"}]}`, false, core.TypeText},
		{"number or patterned string", `{"anyOf": [{"type": "number"}, {"type": "string", "pattern": "^\\d+$"}, {"type": "null"}]}`, true, core.TypeDecimal},
		{"decimal format", `{"type": "string", "format": "decimal"}`, true, core.TypeDecimal},
		{"plain number", `{"type": "number"}`, false, core.TypeFloat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse("Item", []byte(`{"properties": {"value": `+tt.prop+`}}`))
			require.NoError(t, err)
			col, ok := s.Column("value")
			require.True(t, ok)
			assert.Equal(t, tt.decimal, col.Decimal)
			assert.Equal(t, tt.typ, col.Type())
		})
	}
}

func TestParse_AutoIncrementOff(t *testing.T) {
	s, err := Parse("Tag", []byte(`{"properties": {"code": {"type": "string", "primary_key": true, "autoincrement": false}}}`))
	require.NoError(t, err)
	assert.False(t, s.PrimaryKey().AutoIncrement)
}

func TestParse_ForeignKeyDefaults(t *testing.T) {
	s, err := Parse("Post", []byte(`{"properties": {"author_id": {"type": "integer", "foreign_key": {"to_table": "user", "to_column": "uid"}}}}`))
	require.NoError(t, err)
	col, _ := s.Column("author_id")
	assert.Equal(t, "uid", col.ForeignKey.ToColumn)
	assert.Equal(t, core.OnDeleteCascade, col.ForeignKey.OnDelete)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		model  string
		raw    string
		errMsg string
	}{
		{"not json", "User", `{"properties":`, "User"},
		{"missing properties", "User", `{"title": "User"}`, "missing properties"},
		{"null properties", "User", `{"properties": null}`, "missing properties"},
		{"properties not an object", "User", `{"properties": [1, 2]}`, "expected an object"},
		{"column not an object", "User", `{"properties": {"id": 5}}`, "properties"},
		{"unsupported type", "User", `{"properties": {"id": {"type": "tuple"}}}`, "unsupported type"},
		{"fk without table", "User", `{"properties": {"t": {"type": "integer", "foreign_key": {}}}}`, "to_table"},
		{"empty model name", "", `{"properties": {"id": {"type": "integer"}}}`, "empty model name"},
		{
			"multiple primary keys", "User",
			`{"properties": {"a": {"type": "integer", "primary_key": true}, "b": {"type": "integer", "primary_key": true}}}`,
			"multiple primary key columns (a, b)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.model, []byte(tt.raw))
			require.ErrorIs(t, err, core.ErrInvalidSchema)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestObjectKeys_Duplicates(t *testing.T) {
	keys, err := objectKeys([]byte(`{"b": 1, "a": {"x": [1, 2]}, "b": 2}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, keys)
}
