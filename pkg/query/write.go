package query

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaporm/pkg/core"
)

// InsertStatement is a compiled single-row upsert.
type InsertStatement struct {
	Statement
	// Key is the bind value of a caller-supplied primary key, or nil when
	// the database generates it.
	Key any
	// Returning reports that the statement yields the primary key as a row.
	Returning bool
}

// Insert compiles an insert-or-update of one record.
//
// An auto-increment key that is absent or null is left out of the column
// list. When the key is supplied, or cannot be generated, a conflict on the
// key updates every other supplied column.
func (c *Compiler) Insert(s *core.ModelSchema, record map[string]any) (InsertStatement, error) {
	if err := checkRecord(s, record); err != nil {
		return InsertStatement{}, err
	}

	pk := s.PrimaryKey()
	var out InsertStatement
	supplied := false
	if pk != nil {
		if v, ok := record[pk.Name]; ok && v != nil {
			supplied = true
			key, err := Arg(v, pk)
			if err != nil {
				return InsertStatement{}, fmt.Errorf("column %q: %w", pk.Name, err)
			}
			out.Key = key
		}
	}

	b := c.newBuilder()
	var cols, vals, updates []string
	for _, col := range s.Columns {
		v, ok := record[col.Name]
		if !ok {
			continue
		}
		if col == pk && !supplied && col.IsAutoIncrement() {
			continue
		}
		arg, err := Arg(v, col)
		if err != nil {
			return InsertStatement{}, fmt.Errorf("column %q: %w", col.Name, err)
		}
		name := b.ident(col.Name)
		cols = append(cols, name)
		vals = append(vals, b.bind(arg))
		if col != pk {
			updates = append(updates, name+" = excluded."+name)
		}
	}

	b.write("INSERT INTO ", b.ident(s.Table))
	if len(cols) == 0 {
		b.write(" DEFAULT VALUES")
	} else {
		b.write(" (", strings.Join(cols, ", "), ") VALUES (", strings.Join(vals, ", "), ")")
	}

	if pk != nil && len(cols) > 0 && (supplied || !pk.IsAutoIncrement()) {
		b.write(" ON CONFLICT (", b.ident(pk.Name), ")")
		if len(updates) == 0 {
			b.write(" DO NOTHING")
		} else {
			b.write(" DO UPDATE SET ", strings.Join(updates, ", "))
		}
	}

	if pk != nil && c.d.InsertID == core.InsertIDReturning {
		b.write(" RETURNING ", b.ident(pk.Name))
		out.Returning = true
	}

	out.Statement = b.statement()
	return out, nil
}

// BulkInsert compiles a multi-row INSERT over the union of the records'
// columns in schema order. Missing values are bound as NULL. An
// auto-increment key is only included when every record supplies it.
func (c *Compiler) BulkInsert(s *core.ModelSchema, records []map[string]any) (Statement, error) {
	if len(records) == 0 {
		return Statement{}, fmt.Errorf("%w: no records", core.ErrInvalidRecord)
	}
	present := make(map[string]int)
	for i, r := range records {
		if err := checkRecord(s, r); err != nil {
			return Statement{}, fmt.Errorf("records[%d]: %w", i, err)
		}
		for k, v := range r {
			if v != nil {
				present[k]++
			} else if _, seen := present[k]; !seen {
				present[k] = 0
			}
		}
	}

	var cols []*core.Column
	for _, col := range s.Columns {
		n, ok := present[col.Name]
		if !ok {
			continue
		}
		if col.IsAutoIncrement() && n < len(records) {
			if n > 0 {
				return Statement{}, fmt.Errorf("%w: %q must be set on every record or none", core.ErrInvalidRecord, col.Name)
			}
			continue
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		return Statement{}, fmt.Errorf("%w: records have no columns", core.ErrInvalidRecord)
	}

	b := c.newBuilder()
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = b.ident(col.Name)
	}
	b.write("INSERT INTO ", b.ident(s.Table), " (", strings.Join(names, ", "), ") VALUES ")

	row := make([]string, len(cols))
	for i, r := range records {
		for j, col := range cols {
			arg, err := Arg(r[col.Name], col)
			if err != nil {
				return Statement{}, fmt.Errorf("records[%d] column %q: %w", i, col.Name, err)
			}
			row[j] = b.bind(arg)
		}
		if i > 0 {
			b.write(", ")
		}
		b.write("(", strings.Join(row, ", "), ")")
	}
	return b.statement(), nil
}

// LastInsertID returns the dialect's generated-key query, if it has one.
func (c *Compiler) LastInsertID() (Statement, bool) {
	if c.d.LastInsertIDQuery == "" {
		return Statement{}, false
	}
	return Statement{SQL: c.d.LastInsertIDQuery}, true
}

func checkRecord(s *core.ModelSchema, record map[string]any) error {
	if record == nil {
		return fmt.Errorf("%w: nil record", core.ErrInvalidRecord)
	}
	for k := range record {
		if _, ok := s.Column(k); !ok {
			return fmt.Errorf("%w: unknown column %q on %s", core.ErrInvalidRecord, k, s.Name)
		}
	}
	return nil
}
