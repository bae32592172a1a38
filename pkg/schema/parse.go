package schema

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/leapstack-labs/leaporm/pkg/core"
)

// document is the wire shape of a schema registration.
type document struct {
	Properties json.RawMessage `json:"properties"`
}

// property is the wire shape of one column declaration.
type property struct {
	Type          string      `json:"type"`
	Format        string      `json:"format"`
	PrimaryKey    bool        `json:"primary_key"`
	AutoIncrement *bool       `json:"autoincrement"`
	Unique        bool        `json:"unique"`
	Index         bool        `json:"index"`
	ForeignKey    *foreignKey `json:"foreign_key"`
	AnyOf         []variant   `json:"anyOf"`
}

type variant struct {
	Type    string `json:"type"`
	Format  string `json:"format"`
	Pattern string `json:"pattern"`
}

type foreignKey struct {
	ToTable  string `json:"to_table"`
	ToColumn string `json:"to_column"`
	OnDelete string `json:"on_delete"`
}

// Parse converts a wire-format schema document into a typed ModelSchema.
// Columns keep the declaration order of the properties object.
func Parse(name string, raw []byte) (*core.ModelSchema, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty model name", core.ErrInvalidSchema)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrInvalidSchema, name, err)
	}
	if len(doc.Properties) == 0 || bytes.Equal(doc.Properties, []byte("null")) {
		return nil, fmt.Errorf("%w: %s: missing properties", core.ErrInvalidSchema, name)
	}

	order, err := objectKeys(doc.Properties)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: properties: %v", core.ErrInvalidSchema, name, err)
	}

	var props map[string]property
	if err := json.Unmarshal(doc.Properties, &props); err != nil {
		return nil, fmt.Errorf("%w: %s: properties: %v", core.ErrInvalidSchema, name, err)
	}

	columns := make([]*core.Column, 0, len(order))
	var pk string
	for _, colName := range order {
		col, err := buildColumn(colName, props[colName])
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", core.ErrInvalidSchema, name, colName, err)
		}
		if col.PrimaryKey {
			if pk != "" {
				return nil, fmt.Errorf("%w: %s: multiple primary key columns (%s, %s)",
					core.ErrInvalidSchema, name, pk, colName)
			}
			pk = colName
		}
		columns = append(columns, col)
	}

	return core.NewModelSchema(name, columns), nil
}

func buildColumn(name string, p property) (*core.Column, error) {
	col := &core.Column{
		Name:          name,
		JSONType:      p.Type,
		Format:        p.Format,
		Decimal:       p.Format == "decimal",
		PrimaryKey:    p.PrimaryKey,
		AutoIncrement: true,
		Unique:        p.Unique,
		Index:         p.Index,
	}
	if p.AutoIncrement != nil {
		col.AutoIncrement = *p.AutoIncrement
	}

	// anyOf encodes optional and union types: the first non-null member wins.
	// A number member next to a patterned string member is a decimal.
	var number, patterned bool
	for _, v := range p.AnyOf {
		switch {
		case v.Format == "decimal":
			col.Decimal = true
		case v.Type == "number":
			number = true
		case v.Type == "string" && v.Pattern != "":
			patterned = true
		}
		if v.Type == "null" {
			col.Nullable = true
			continue
		}
		if col.JSONType == "" {
			col.JSONType = v.Type
			if col.Format == "" {
				col.Format = v.Format
			}
		}
	}

	if number && patterned {
		col.Decimal = true
	}

	switch col.JSONType {
	case "", "integer", "string", "number", "boolean", "object", "array":
	default:
		return nil, fmt.Errorf("unsupported type %q", col.JSONType)
	}

	if p.ForeignKey != nil {
		if p.ForeignKey.ToTable == "" {
			return nil, errors.New("foreign_key requires to_table")
		}
		toColumn := p.ForeignKey.ToColumn
		if toColumn == "" {
			toColumn = "id"
		}
		col.ForeignKey = &core.ForeignKey{
			ToTable:  p.ForeignKey.ToTable,
			ToColumn: toColumn,
			OnDelete: core.ParseOnDelete(p.ForeignKey.OnDelete),
		}
	}
	return col, nil
}

// objectKeys returns the top-level keys of a JSON object in document order.
func objectKeys(raw []byte) ([]string, error) {
	dec := stdjson.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(stdjson.Delim); !ok || d != '{' {
		return nil, errors.New("expected an object")
	}

	var keys []string
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.New("expected an object key")
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		// skip the value
		var skip stdjson.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return keys, nil
}
