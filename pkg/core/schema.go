package core

import (
	"strings"
)

// ColumnType is the logical storage type of a model column.
// Dialects map each ColumnType to a concrete SQL type.
type ColumnType string

// Logical column types.
const (
	TypeInteger  ColumnType = "integer"
	TypeText     ColumnType = "text"
	TypeFloat    ColumnType = "float"
	TypeBoolean  ColumnType = "boolean"
	TypeJSON     ColumnType = "json"
	TypeDateTime ColumnType = "datetime"
	TypeDate     ColumnType = "date"
	TypeUUID     ColumnType = "uuid"
	TypeBlob     ColumnType = "blob"
	TypeDecimal  ColumnType = "decimal"
)

// OnDelete is a referential action for a foreign key.
type OnDelete string

// Supported referential actions.
const (
	OnDeleteCascade    OnDelete = "CASCADE"
	OnDeleteRestrict   OnDelete = "RESTRICT"
	OnDeleteSetNull    OnDelete = "SET NULL"
	OnDeleteSetDefault OnDelete = "SET DEFAULT"
	OnDeleteNoAction   OnDelete = "NO ACTION"
)

// ParseOnDelete maps a wire value to an OnDelete action.
// Unrecognized and empty values default to CASCADE.
func ParseOnDelete(s string) OnDelete {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RESTRICT":
		return OnDeleteRestrict
	case "SET NULL":
		return OnDeleteSetNull
	case "SET DEFAULT":
		return OnDeleteSetDefault
	case "NO ACTION":
		return OnDeleteNoAction
	default:
		return OnDeleteCascade
	}
}

// ForeignKey describes a reference from a column to another table.
type ForeignKey struct {
	ToTable  string
	ToColumn string
	OnDelete OnDelete
}

// Column is one declared property of a model.
type Column struct {
	Name string
	// JSONType is the declared JSON type: integer, string, number, boolean, object, array.
	JSONType string
	// Format is the declared string format: date, date-time, uuid, binary, or empty.
	Format        string
	Nullable      bool
	Decimal       bool
	PrimaryKey    bool
	AutoIncrement bool
	Unique        bool
	Index         bool
	ForeignKey    *ForeignKey
}

// Type resolves the logical storage type of the column.
func (c *Column) Type() ColumnType {
	if c.Decimal {
		return TypeDecimal
	}
	switch c.JSONType {
	case "integer":
		return TypeInteger
	case "number":
		return TypeFloat
	case "boolean":
		return TypeBoolean
	case "object", "array":
		return TypeJSON
	}
	switch c.Format {
	case "date-time":
		return TypeDateTime
	case "date":
		return TypeDate
	case "uuid":
		return TypeUUID
	case "binary":
		return TypeBlob
	}
	return TypeText
}

// IsAutoIncrement reports whether the column is an integer primary key
// whose value is generated by the database.
func (c *Column) IsAutoIncrement() bool {
	return c.PrimaryKey && c.AutoIncrement && c.Type() == TypeInteger
}

// ModelSchema is the parsed, registered description of one model.
type ModelSchema struct {
	Name  string
	Table string
	// Columns are kept in declaration order.
	Columns []*Column

	byName map[string]*Column
	pk     *Column
}

// NewModelSchema builds a schema and its column index.
// The table name is the lower-cased model name.
func NewModelSchema(name string, columns []*Column) *ModelSchema {
	s := &ModelSchema{
		Name:    name,
		Table:   strings.ToLower(name),
		Columns: columns,
		byName:  make(map[string]*Column, len(columns)),
	}
	for _, c := range columns {
		s.byName[c.Name] = c
		if c.PrimaryKey && s.pk == nil {
			s.pk = c
		}
	}
	return s
}

// Column returns the named column.
func (s *ModelSchema) Column(name string) (*Column, bool) {
	c, ok := s.byName[name]
	return c, ok
}

// PrimaryKey returns the primary-key column, or nil if none is declared.
func (s *ModelSchema) PrimaryKey() *Column {
	return s.pk
}

// ColumnNames returns column names in declaration order.
func (s *ModelSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// References returns the distinct tables this schema points at through foreign keys.
func (s *ModelSchema) References() []string {
	var refs []string
	seen := make(map[string]bool)
	for _, c := range s.Columns {
		if c.ForeignKey == nil || seen[c.ForeignKey.ToTable] {
			continue
		}
		seen[c.ForeignKey.ToTable] = true
		refs = append(refs, c.ForeignKey.ToTable)
	}
	return refs
}
