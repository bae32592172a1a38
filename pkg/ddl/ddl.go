// Package ddl compiles model schemas into idempotent CREATE statements.
//
// Every statement uses IF NOT EXISTS, so executing a plan against an
// already materialized schema is a no-op. There is no ALTER support.
package ddl

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaporm/internal/dag"
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/dialect"
)

// Plan is the compiled DDL for one model.
type Plan struct {
	Model string
	Table string
	// Prelude holds statements that must run before CreateTable (sequences).
	Prelude     []string
	CreateTable string
	Indexes     []string
	// ForeignKeys are the table-level clauses embedded in CreateTable.
	ForeignKeys []string
	// Warnings describe schema features the dialect could not express.
	Warnings []string
}

// Statements returns every statement of the plan in execution order.
func (p *Plan) Statements() []string {
	out := make([]string, 0, len(p.Prelude)+1+len(p.Indexes))
	out = append(out, p.Prelude...)
	out = append(out, p.CreateTable)
	out = append(out, p.Indexes...)
	return out
}

// IndexName returns the name of the secondary index on table.column.
func IndexName(table, column string) string {
	return fmt.Sprintf("idx_%s_%s", table, column)
}

// SequenceName returns the name of the sequence backing an auto-increment column.
func SequenceName(table, column string) string {
	return fmt.Sprintf("seq_%s_%s", table, column)
}

// Compile produces the DDL plan for s in dialect d.
func Compile(s *core.ModelSchema, d *dialect.Dialect) (*Plan, error) {
	if d == nil {
		return nil, dialect.ErrDialectRequired
	}
	if len(s.Columns) == 0 {
		return nil, fmt.Errorf("%w: %s has no columns", core.ErrInvalidSchema, s.Name)
	}

	p := &Plan{Model: s.Name, Table: s.Table}
	table := d.QuoteIdentifier(s.Table)

	defs := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		defs = append(defs, columnDef(p, s, c, d))

		if c.Index {
			p.Indexes = append(p.Indexes, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
				d.QuoteIdentifier(IndexName(s.Table, c.Name)), table, d.QuoteIdentifier(c.Name)))
		}

		if c.ForeignKey != nil {
			p.ForeignKeys = append(p.ForeignKeys, foreignKeyClause(p, c, d))
		}
	}
	defs = append(defs, p.ForeignKeys...)

	p.CreateTable = fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", table, strings.Join(defs, ",\n\t"))
	return p, nil
}

func columnDef(p *Plan, s *core.ModelSchema, c *core.Column, d *dialect.Dialect) string {
	name := d.QuoteIdentifier(c.Name)
	sqlType := d.ColumnType(c.Type())

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte(' ')

	switch {
	case c.IsAutoIncrement():
		switch d.AutoIncrement {
		case core.AutoIncrementIdentity:
			b.WriteString(sqlType + " GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY")
		case core.AutoIncrementSequence:
			seq := SequenceName(s.Table, c.Name)
			p.Prelude = append(p.Prelude, "CREATE SEQUENCE IF NOT EXISTS "+d.QuoteIdentifier(seq))
			fmt.Fprintf(&b, "%s PRIMARY KEY DEFAULT nextval(%s)", sqlType, d.QuoteLiteral(seq))
		default:
			// SQLite only aliases the rowid for the exact spelling INTEGER.
			b.WriteString("INTEGER PRIMARY KEY AUTOINCREMENT")
		}
	case c.PrimaryKey:
		b.WriteString(sqlType + " PRIMARY KEY")
	default:
		b.WriteString(sqlType)
	}

	if c.Unique && !c.PrimaryKey {
		b.WriteString(" UNIQUE")
	}
	return b.String()
}

func foreignKeyClause(p *Plan, c *core.Column, d *dialect.Dialect) string {
	clause := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
		d.QuoteIdentifier(c.Name),
		d.QuoteIdentifier(c.ForeignKey.ToTable),
		d.QuoteIdentifier(c.ForeignKey.ToColumn))

	if !d.ForeignKeyActions {
		p.Warnings = append(p.Warnings, fmt.Sprintf(
			"%s does not support ON DELETE %s; foreign key on %s.%s created without it",
			d.Name, c.ForeignKey.OnDelete, p.Table, c.Name))
		return clause
	}
	return clause + " ON DELETE " + string(c.ForeignKey.OnDelete)
}

// Order sorts schemas so every table comes after the tables it references.
// Self references and references to tables outside the set are ignored.
// Reference cycles are reported as *dag.CycleError.
func Order(schemas []*core.ModelSchema) ([]*core.ModelSchema, error) {
	g := dag.NewGraph[*core.ModelSchema]()
	for _, s := range schemas {
		g.AddNode(s.Table, s)
	}
	for _, s := range schemas {
		for _, ref := range s.References() {
			if ref == s.Table || !g.HasNode(ref) {
				continue
			}
			if err := g.AddEdge(ref, s.Table); err != nil {
				return nil, err
			}
		}
	}
	return g.TopologicalSort()
}

// CompileAll orders schemas by dependency and compiles each of them.
func CompileAll(schemas []*core.ModelSchema, d *dialect.Dialect) ([]*Plan, error) {
	ordered, err := Order(schemas)
	if err != nil {
		return nil, fmt.Errorf("failed to order tables: %w", err)
	}
	plans := make([]*Plan, 0, len(ordered))
	for _, s := range ordered {
		p, err := Compile(s, d)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}
