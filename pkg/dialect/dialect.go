// Package dialect provides SQL dialect descriptors for the statement compilers.
//
// A Dialect is static data: identifier quoting, placeholder style, the
// mapping from logical column types to SQL types, and the strategies for
// auto-increment keys and generated-key retrieval. Concrete dialects are
// registered from pkg/adapters/*/dialect packages.
package dialect

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/leaporm/pkg/core"
)

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name          string
	Identifiers   core.IdentifierConfig
	DefaultSchema string
	Placeholder   core.PlaceholderStyle

	InsertID      core.InsertIDStrategy
	AutoIncrement core.AutoIncrementStyle
	// LastInsertIDQuery reads the last generated key on the current connection.
	LastInsertIDQuery string
	// UnboundedLimit is emitted as LIMIT when OFFSET is used without LIMIT.
	// Empty means OFFSET is accepted on its own.
	UnboundedLimit string
	// ForeignKeyActions reports whether ON DELETE actions are supported.
	ForeignKeyActions bool

	types map[core.ColumnType]string
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
// Returns "?" for PlaceholderQuestion style, "$1", "$2" etc. for PlaceholderDollar style.
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case core.PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// QuoteIdentifier wraps a name in the dialect's identifier quotes.
func (d *Dialect) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QuoteLiteral renders s as a single-quoted SQL string literal.
func (d *Dialect) QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ColumnType returns the SQL type for a logical column type.
// Unmapped types fall back to the dialect's text type.
func (d *Dialect) ColumnType(t core.ColumnType) string {
	if s, ok := d.types[t]; ok {
		return s
	}
	if s, ok := d.types[core.TypeText]; ok {
		return s
	}
	return "TEXT"
}

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect starts building a new dialect with the given name.
// Identifiers default to ANSI double quotes.
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			Name: name,
			Identifiers: core.IdentifierConfig{
				Quote:    `"`,
				QuoteEnd: `"`,
				Escape:   `""`,
			},
			ForeignKeyActions: true,
			types:             make(map[core.ColumnType]string),
		},
	}
}

// Identifiers configures identifier quoting.
func (b *Builder) Identifiers(quote, quoteEnd, escape string) *Builder {
	b.dialect.Identifiers = core.IdentifierConfig{
		Quote:    quote,
		QuoteEnd: quoteEnd,
		Escape:   escape,
	}
	return b
}

// DefaultSchema sets the default schema name.
func (b *Builder) DefaultSchema(schema string) *Builder {
	b.dialect.DefaultSchema = schema
	return b
}

// PlaceholderStyle sets how query parameters are formatted.
func (b *Builder) PlaceholderStyle(style core.PlaceholderStyle) *Builder {
	b.dialect.Placeholder = style
	return b
}

// InsertID sets how generated keys are read back.
func (b *Builder) InsertID(strategy core.InsertIDStrategy, lastInsertIDQuery string) *Builder {
	b.dialect.InsertID = strategy
	b.dialect.LastInsertIDQuery = lastInsertIDQuery
	return b
}

// AutoIncrement sets how auto-increment keys are declared.
func (b *Builder) AutoIncrement(style core.AutoIncrementStyle) *Builder {
	b.dialect.AutoIncrement = style
	return b
}

// UnboundedLimit sets the LIMIT value used when only OFFSET is given.
func (b *Builder) UnboundedLimit(limit string) *Builder {
	b.dialect.UnboundedLimit = limit
	return b
}

// ForeignKeyActions sets whether ON DELETE actions are emitted.
func (b *Builder) ForeignKeyActions(supported bool) *Builder {
	b.dialect.ForeignKeyActions = supported
	return b
}

// Types maps logical column types to SQL types.
func (b *Builder) Types(types map[core.ColumnType]string) *Builder {
	for k, v := range types {
		b.dialect.types[k] = v
	}
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}
