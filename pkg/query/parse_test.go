package query

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	def, err := Parse([]byte(`{
		"model_name": "Person",
		"where_clause": [{"is_compound": false, "column": "id", "operator": "==", "value": 9007199254740993}],
		"order_by": [{"column": "age", "direction": "desc"}, ["name"]],
		"limit": 5
	}`))
	require.NoError(t, err)

	assert.Equal(t, "Person", def.Model)
	require.Len(t, def.Where, 1)
	assert.Equal(t, json.Number("9007199254740993"), def.Where[0].Value, "integers are not routed through float64")
	assert.Equal(t, []core.OrderBy{{Column: "age", Direction: "desc"}, {Column: "name"}}, def.OrderBy)
	require.NotNil(t, def.Limit)
	assert.Equal(t, int64(5), *def.Limit)
	assert.Nil(t, def.Offset)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed", `{"model_name":`},
		{"trailing data", `{} {}`},
		{"negative limit", `{"limit": -1}`},
		{"negative offset", `{"offset": -2}`},
		{"empty order pair", `{"order_by": [[]]}`},
		{"order without column", `{"order_by": [{"direction": "asc"}]}`},
		{"incomplete m2m", `{"m2m": {"join_table": "x"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			assert.ErrorIs(t, err, core.ErrInvalidQuery)
		})
	}
}

func TestParseRecords(t *testing.T) {
	recs, err := ParseRecords([]byte(`[{"a": 1}, {"b": "x"}]`))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, json.Number("1"), recs[0]["a"])

	_, err = ParseRecords([]byte(`[1]`))
	assert.ErrorIs(t, err, core.ErrInvalidRecord)

	_, err = ParseRecord([]byte(`null`))
	assert.ErrorIs(t, err, core.ErrInvalidRecord)
}
