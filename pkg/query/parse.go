package query

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/leapstack-labs/leaporm/pkg/core"
)

// wireQuery is the wire shape of a query document.
type wireQuery struct {
	Model   string            `json:"model_name"`
	Where   []*core.QueryNode `json:"where_clause"`
	OrderBy []json.RawMessage `json:"order_by"`
	Limit   *int64            `json:"limit"`
	Offset  *int64            `json:"offset"`
	M2M     *core.M2MContext  `json:"m2m"`
}

type wireOrder struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}

// newDecoder returns a decoder that keeps numbers as json.Number so that
// integer literals never pass through float64.
func newDecoder(raw []byte) *json.Decoder {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec
}

// decodeStrict decodes exactly one JSON value from raw into v.
func decodeStrict(raw []byte, v any) error {
	dec := newDecoder(raw)
	if err := dec.Decode(v); err != nil {
		return err
	}
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}

// Parse decodes a query document.
//
// order_by entries may be objects ({"column": "age", "direction": "desc"})
// or two-element arrays (["age", "desc"]).
func Parse(raw []byte) (*core.QueryDef, error) {
	var w wireQuery
	if err := decodeStrict(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidQuery, err)
	}

	def := &core.QueryDef{
		Model:  w.Model,
		Where:  w.Where,
		Limit:  w.Limit,
		Offset: w.Offset,
		M2M:    w.M2M,
	}
	if def.Limit != nil && *def.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit %d", core.ErrInvalidQuery, *def.Limit)
	}
	if def.Offset != nil && *def.Offset < 0 {
		return nil, fmt.Errorf("%w: negative offset %d", core.ErrInvalidQuery, *def.Offset)
	}

	for i, rawOrder := range w.OrderBy {
		o, err := parseOrder(rawOrder)
		if err != nil {
			return nil, fmt.Errorf("%w: order_by[%d]: %v", core.ErrInvalidQuery, i, err)
		}
		def.OrderBy = append(def.OrderBy, o)
	}

	if def.M2M != nil {
		m := def.M2M
		if m.JoinTable == "" || m.SourceCol == "" || m.TargetCol == "" {
			return nil, fmt.Errorf("%w: m2m requires join_table, source_col and target_col", core.ErrInvalidQuery)
		}
	}
	return def, nil
}

func parseOrder(raw json.RawMessage) (core.OrderBy, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var pair []string
		if err := json.Unmarshal(trimmed, &pair); err != nil {
			return core.OrderBy{}, err
		}
		if len(pair) == 0 || len(pair) > 2 || pair[0] == "" {
			return core.OrderBy{}, fmt.Errorf("expected [column, direction]")
		}
		o := core.OrderBy{Column: pair[0]}
		if len(pair) == 2 {
			o.Direction = pair[1]
		}
		return o, nil
	}

	var o wireOrder
	if err := json.Unmarshal(trimmed, &o); err != nil {
		return core.OrderBy{}, err
	}
	if o.Column == "" {
		return core.OrderBy{}, fmt.Errorf("missing column")
	}
	return core.OrderBy{Column: o.Column, Direction: o.Direction}, nil
}

// ParseRecord decodes a single record object.
func ParseRecord(raw []byte) (map[string]any, error) {
	var rec map[string]any
	if err := decodeStrict(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidRecord, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: expected an object", core.ErrInvalidRecord)
	}
	return rec, nil
}

// ParseRecords decodes an array of record objects.
func ParseRecords(raw []byte) ([]map[string]any, error) {
	var recs []map[string]any
	if err := decodeStrict(raw, &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidRecord, err)
	}
	for i, r := range recs {
		if r == nil {
			return nil, fmt.Errorf("%w: records[%d] is not an object", core.ErrInvalidRecord, i)
		}
	}
	return recs, nil
}
