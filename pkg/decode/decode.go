// Package decode classifies raw driver values into tagged core.Value kinds.
//
// Classification runs an ordered list of rules per column. Schema hints are
// consulted first because a stored 0/1 and a boolean, or a JSON document and
// plain text, cannot be told apart from the driver type alone.
package decode

import (
	"bytes"
	"io"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/leapstack-labs/leaporm/pkg/core"
)

// Field is one decoded column of a row.
type Field struct {
	Name  string
	Value core.Value
}

// Rule is one entry of the decision table. Apply reports false when the
// rule does not match and the next rule should be tried. col is nil for
// columns the schema does not declare.
type Rule struct {
	Name  string
	Apply func(col *core.Column, raw any) (core.Value, bool)
}

// Decoder classifies values with an ordered rule table.
type Decoder struct {
	rules []Rule
}

// New returns a decoder with the default rule order.
func New() *Decoder {
	return &Decoder{rules: []Rule{
		{Name: "null", Apply: decodeNull},
		{Name: "decimal", Apply: decodeDecimal},
		{Name: "binary", Apply: decodeBinary},
		{Name: "integer", Apply: decodeInteger},
		{Name: "float", Apply: decodeFloat},
		{Name: "text", Apply: decodeText},
		{Name: "blob", Apply: decodeBlob},
		{Name: "boolean", Apply: decodeBool},
		{Name: "time", Apply: decodeTime},
		{Name: "uuid", Apply: decodeUUID},
		{Name: "structured", Apply: decodeStructured},
	}}
}

// Rules returns the rule names in evaluation order.
func (d *Decoder) Rules() []string {
	names := make([]string, len(d.rules))
	for i, r := range d.rules {
		names[i] = r.Name
	}
	return names
}

// Decode classifies raw for the named column of s. Unmatched values decode
// to Null.
func (d *Decoder) Decode(s *core.ModelSchema, column string, raw any) core.Value {
	var col *core.Column
	if s != nil {
		col, _ = s.Column(column)
	}
	return d.decodeColumn(col, raw)
}

func (d *Decoder) decodeColumn(col *core.Column, raw any) core.Value {
	for _, r := range d.rules {
		if v, ok := r.Apply(col, raw); ok {
			return v
		}
	}
	return core.Null()
}

// DecodeRow decodes a scanned row. columns and raw are parallel.
func (d *Decoder) DecodeRow(s *core.ModelSchema, columns []string, raw []any) []Field {
	fields := make([]Field, len(columns))
	for i, name := range columns {
		var v any
		if i < len(raw) {
			v = raw[i]
		}
		fields[i] = Field{Name: name, Value: d.Decode(s, name, v)}
	}
	return fields
}

func decodeNull(_ *core.Column, raw any) (core.Value, bool) {
	return core.Null(), raw == nil
}

func decodeDecimal(col *core.Column, raw any) (core.Value, bool) {
	if col == nil || !col.Decimal {
		return core.Value{}, false
	}
	switch x := raw.(type) {
	case string:
		return core.Decimal(x), true
	case []byte:
		return core.Decimal(string(x)), true
	case float64:
		return core.Decimal(strconv.FormatFloat(x, 'f', -1, 64)), true
	case float32:
		return core.Decimal(strconv.FormatFloat(float64(x), 'f', -1, 32)), true
	}
	if i, ok := toInt64(raw); ok {
		return core.Decimal(strconv.FormatInt(i, 10)), true
	}
	if u, ok := bigUnsigned(raw); ok {
		return core.Decimal(strconv.FormatUint(u, 10)), true
	}
	if s, ok := raw.(interface{ String() string }); ok {
		return core.Decimal(s.String()), true
	}
	return core.Value{}, false
}

func decodeBinary(col *core.Column, raw any) (core.Value, bool) {
	if col == nil || col.Format != "binary" {
		return core.Value{}, false
	}
	switch x := raw.(type) {
	case []byte:
		return core.Blob(x), true
	case string:
		return core.Blob([]byte(x)), true
	}
	return core.Value{}, false
}

// decodeInteger keeps unsigned values past int64 as Decimal text.
func decodeInteger(col *core.Column, raw any) (core.Value, bool) {
	if u, ok := bigUnsigned(raw); ok {
		return core.Decimal(strconv.FormatUint(u, 10)), true
	}
	i, ok := toInt64(raw)
	if !ok {
		return core.Value{}, false
	}
	if col != nil && col.Type() == core.TypeBoolean {
		return core.Bool(i != 0), true
	}
	return core.Int(i), true
}

func decodeFloat(_ *core.Column, raw any) (core.Value, bool) {
	switch x := raw.(type) {
	case float64:
		return core.Float(x), true
	case float32:
		return core.Float(float64(x)), true
	}
	return core.Value{}, false
}

// decodeText handles strings, and byte slices on columns declared as text.
func decodeText(col *core.Column, raw any) (core.Value, bool) {
	var s string
	switch x := raw.(type) {
	case string:
		s = x
	case []byte:
		if col == nil || !textHinted(col) {
			return core.Value{}, false
		}
		s = string(x)
	default:
		return core.Value{}, false
	}
	if col == nil {
		return core.Text(s), true
	}

	switch col.Type() {
	case core.TypeDateTime:
		return core.DateTime(s), true
	case core.TypeDate:
		return core.Date(s), true
	case core.TypeUUID:
		return core.UUID(s), true
	case core.TypeJSON:
		if v, err := parseJSON(s); err == nil {
			return core.JSON(v), true
		}
	}
	return core.Text(s), true
}

func textHinted(col *core.Column) bool {
	switch col.Type() {
	case core.TypeText, core.TypeJSON, core.TypeDateTime, core.TypeDate, core.TypeUUID:
		return true
	}
	return false
}

func parseJSON(s string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, strconv.ErrSyntax
	}
	return v, nil
}

func decodeBlob(_ *core.Column, raw any) (core.Value, bool) {
	if b, ok := raw.([]byte); ok {
		return core.Blob(b), true
	}
	return core.Value{}, false
}

func decodeBool(_ *core.Column, raw any) (core.Value, bool) {
	if b, ok := raw.(bool); ok {
		return core.Bool(b), true
	}
	return core.Value{}, false
}

// decodeTime handles drivers that return time.Time for date and timestamp columns.
func decodeTime(col *core.Column, raw any) (core.Value, bool) {
	t, ok := raw.(time.Time)
	if !ok {
		return core.Value{}, false
	}
	if col != nil && col.Type() == core.TypeDate {
		return core.Date(t.Format(time.DateOnly)), true
	}
	return core.DateTime(t.Format(time.RFC3339Nano)), true
}

// decodeUUID handles 16-byte arrays such as uuid.UUID and driver UUID types.
func decodeUUID(_ *core.Column, raw any) (core.Value, bool) {
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Array || rv.Len() != 16 || rv.Type().Elem().Kind() != reflect.Uint8 {
		return core.Value{}, false
	}
	var id uuid.UUID
	reflect.Copy(reflect.ValueOf(id[:]), rv)
	return core.UUID(id.String()), true
}

func decodeStructured(_ *core.Column, raw any) (core.Value, bool) {
	switch raw.(type) {
	case map[string]any, []any:
		return core.JSON(raw), true
	}
	return core.Value{}, false
}

func toInt64(raw any) (int64, bool) {
	switch x := raw.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int16:
		return int64(x), true
	case int8:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint64:
		return int64(x), x <= math.MaxInt64
	case uint:
		return int64(x), uint64(x) <= math.MaxInt64
	}
	return 0, false
}

// bigUnsigned returns unsigned values that do not fit an int64.
func bigUnsigned(raw any) (uint64, bool) {
	switch x := raw.(type) {
	case uint64:
		return x, x > math.MaxInt64
	case uint:
		return uint64(x), uint64(x) > math.MaxInt64
	}
	return 0, false
}
