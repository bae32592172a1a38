// Package query compiles filter trees and record writes into parameterized
// SQL for a dialect.
package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/dialect"
)

// Statement is compiled SQL plus its bind values in placeholder order.
type Statement struct {
	SQL  string
	Args []any
}

// Compiler builds statements for one dialect. It holds no mutable state and
// is safe for concurrent use.
type Compiler struct {
	d *dialect.Dialect
}

// NewCompiler creates a compiler for d.
func NewCompiler(d *dialect.Dialect) *Compiler {
	return &Compiler{d: d}
}

// Dialect returns the compiler's dialect.
func (c *Compiler) Dialect() *dialect.Dialect { return c.d }

// builder accumulates SQL text and bind values. Placeholders are numbered
// by append order so $n always matches Args[n-1].
type builder struct {
	d    *dialect.Dialect
	sb   strings.Builder
	args []any
}

func (c *Compiler) newBuilder() *builder {
	return &builder{d: c.d}
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.d.FormatPlaceholder(len(b.args))
}

func (b *builder) ident(name string) string {
	return b.d.QuoteIdentifier(name)
}

func (b *builder) write(parts ...string) {
	for _, p := range parts {
		b.sb.WriteString(p)
	}
}

func (b *builder) statement() Statement {
	return Statement{SQL: b.sb.String(), Args: b.args}
}

func (b *builder) columnList(s *core.ModelSchema) string {
	cols := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		cols[i] = b.ident(col.Name)
	}
	return strings.Join(cols, ", ")
}

// Select compiles a SELECT of every schema column.
func (c *Compiler) Select(s *core.ModelSchema, def *core.QueryDef) (Statement, error) {
	if err := checkModel(s, def); err != nil {
		return Statement{}, err
	}
	b := c.newBuilder()
	b.write("SELECT ", b.columnList(s), " FROM ", b.ident(s.Table))
	if err := b.where(s, def); err != nil {
		return Statement{}, err
	}
	if err := b.orderBy(s, def.OrderBy); err != nil {
		return Statement{}, err
	}
	b.paging(def.Limit, def.Offset)
	return b.statement(), nil
}

// Count compiles SELECT COUNT(*). Ordering and paging are ignored.
func (c *Compiler) Count(s *core.ModelSchema, def *core.QueryDef) (Statement, error) {
	if err := checkModel(s, def); err != nil {
		return Statement{}, err
	}
	b := c.newBuilder()
	b.write("SELECT COUNT(*) FROM ", b.ident(s.Table))
	if err := b.where(s, def); err != nil {
		return Statement{}, err
	}
	return b.statement(), nil
}

// Delete compiles a filtered DELETE. Ordering and paging are ignored.
func (c *Compiler) Delete(s *core.ModelSchema, def *core.QueryDef) (Statement, error) {
	if err := checkModel(s, def); err != nil {
		return Statement{}, err
	}
	b := c.newBuilder()
	b.write("DELETE FROM ", b.ident(s.Table))
	if err := b.where(s, def); err != nil {
		return Statement{}, err
	}
	return b.statement(), nil
}

// Update compiles a filtered UPDATE. Assignments are emitted in key order
// and their placeholders precede the WHERE placeholders.
func (c *Compiler) Update(s *core.ModelSchema, def *core.QueryDef, assignments map[string]any) (Statement, error) {
	if err := checkModel(s, def); err != nil {
		return Statement{}, err
	}
	if len(assignments) == 0 {
		return Statement{}, fmt.Errorf("%w: update requires at least one assignment", core.ErrInvalidRecord)
	}

	keys := make([]string, 0, len(assignments))
	for k := range assignments {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b := c.newBuilder()
	b.write("UPDATE ", b.ident(s.Table), " SET ")
	for i, k := range keys {
		col, ok := s.Column(k)
		if !ok {
			return Statement{}, fmt.Errorf("%w: unknown column %q on %s", core.ErrInvalidRecord, k, s.Name)
		}
		v, err := Arg(assignments[k], col)
		if err != nil {
			return Statement{}, fmt.Errorf("column %q: %w", k, err)
		}
		if i > 0 {
			b.write(", ")
		}
		b.write(b.ident(k), " = ", b.bind(v))
	}
	if err := b.where(s, def); err != nil {
		return Statement{}, err
	}
	return b.statement(), nil
}

// SelectByKey compiles a SELECT of the row whose primary key equals pk.
func (c *Compiler) SelectByKey(s *core.ModelSchema, pk string) (Statement, error) {
	b := c.newBuilder()
	b.write("SELECT ", b.columnList(s), " FROM ", b.ident(s.Table))
	if err := b.keyPredicate(s, pk); err != nil {
		return Statement{}, err
	}
	return b.statement(), nil
}

// DeleteByKey compiles a DELETE of the row whose primary key equals pk.
func (c *Compiler) DeleteByKey(s *core.ModelSchema, pk string) (Statement, error) {
	b := c.newBuilder()
	b.write("DELETE FROM ", b.ident(s.Table))
	if err := b.keyPredicate(s, pk); err != nil {
		return Statement{}, err
	}
	return b.statement(), nil
}

func (b *builder) keyPredicate(s *core.ModelSchema, pk string) error {
	col := s.PrimaryKey()
	if col == nil {
		return fmt.Errorf("%w: %s", core.ErrNoPrimaryKey, s.Name)
	}
	v, err := KeyArg(pk, col)
	if err != nil {
		return err
	}
	b.write(" WHERE ", b.ident(col.Name), " = ", b.bind(v))
	return nil
}

func checkModel(s *core.ModelSchema, def *core.QueryDef) error {
	if def == nil {
		return fmt.Errorf("%w: nil query", core.ErrInvalidQuery)
	}
	if def.Model != "" && def.Model != s.Name {
		return fmt.Errorf("%w: query targets %q, not %q", core.ErrInvalidQuery, def.Model, s.Name)
	}
	return nil
}

// where appends the WHERE clause: every top-level node plus the m2m
// restriction, joined by AND.
func (b *builder) where(s *core.ModelSchema, def *core.QueryDef) error {
	var preds []string
	for i, node := range def.Where {
		p, err := b.node(s, node)
		if err != nil {
			return fmt.Errorf("where_clause[%d]: %w", i, err)
		}
		preds = append(preds, p)
	}
	if def.M2M != nil {
		p, err := b.m2m(s, def.M2M)
		if err != nil {
			return err
		}
		preds = append(preds, p)
	}
	if len(preds) > 0 {
		b.write(" WHERE ", strings.Join(preds, " AND "))
	}
	return nil
}

func (b *builder) m2m(s *core.ModelSchema, m *core.M2MContext) (string, error) {
	pk := s.PrimaryKey()
	if pk == nil {
		return "", fmt.Errorf("%w: %s", core.ErrNoPrimaryKey, s.Name)
	}
	src, err := Arg(m.SourceID, nil)
	if err != nil {
		return "", fmt.Errorf("m2m source_id: %w", err)
	}
	return fmt.Sprintf("%s IN (SELECT %s FROM %s WHERE %s = %s)",
		b.ident(pk.Name), b.ident(m.TargetCol), b.ident(m.JoinTable), b.ident(m.SourceCol), b.bind(src)), nil
}

// node compiles one filter node depth-first, left before right, so bind
// order follows placeholder order.
func (b *builder) node(s *core.ModelSchema, n *core.QueryNode) (string, error) {
	if n == nil {
		return "", fmt.Errorf("%w: empty node", core.ErrInvalidQuery)
	}
	if n.Compound {
		return b.compound(s, n)
	}
	return b.simple(s, n)
}

func (b *builder) compound(s *core.ModelSchema, n *core.QueryNode) (string, error) {
	op := strings.ToUpper(n.Operator)
	if op != core.OpAnd && op != core.OpOr {
		return "", fmt.Errorf("%w: unknown compound operator %q", core.ErrInvalidQuery, n.Operator)
	}
	if n.Left == nil || n.Right == nil {
		return "", fmt.Errorf("%w: %s requires left and right operands", core.ErrInvalidQuery, op)
	}
	left, err := b.node(s, n.Left)
	if err != nil {
		return "", err
	}
	right, err := b.node(s, n.Right)
	if err != nil {
		return "", err
	}
	return "(" + left + " " + op + " " + right + ")", nil
}

var comparisons = map[string]string{
	core.OpEq:  "=",
	core.OpNe:  "<>",
	core.OpGt:  ">",
	core.OpGte: ">=",
	core.OpLt:  "<",
	core.OpLte: "<=",
}

func (b *builder) simple(s *core.ModelSchema, n *core.QueryNode) (string, error) {
	col, ok := s.Column(n.Column)
	if !ok {
		return "", fmt.Errorf("%w: unknown column %q on %s", core.ErrInvalidQuery, n.Column, s.Name)
	}
	name := b.ident(col.Name)

	switch op := strings.ToUpper(n.Operator); op {
	case core.OpIn:
		items, ok := n.Value.([]any)
		if !ok {
			return "", fmt.Errorf("%w: IN on %q requires an array, got %T", core.ErrInvalidOperand, n.Column, n.Value)
		}
		if len(items) == 0 {
			return "1 = 0", nil
		}
		ph := make([]string, len(items))
		for i, item := range items {
			v, err := Arg(item, col)
			if err != nil {
				return "", err
			}
			ph[i] = b.bind(v)
		}
		return name + " IN (" + strings.Join(ph, ", ") + ")", nil

	case core.OpLike:
		text, err := likeText(n.Value)
		if err != nil {
			return "", err
		}
		return name + " LIKE " + b.bind(text), nil

	default:
		sqlOp, ok := comparisons[op]
		if !ok {
			return "", fmt.Errorf("%w: unknown operator %q", core.ErrInvalidQuery, n.Operator)
		}
		if n.Value == nil {
			switch op {
			case core.OpEq:
				return name + " IS NULL", nil
			case core.OpNe:
				return name + " IS NOT NULL", nil
			default:
				return "", fmt.Errorf("%w: %s on %q requires a non-null operand", core.ErrInvalidOperand, op, n.Column)
			}
		}
		v, err := Arg(n.Value, col)
		if err != nil {
			return "", err
		}
		return name + " " + sqlOp + " " + b.bind(v), nil
	}
}

func (b *builder) orderBy(s *core.ModelSchema, terms []core.OrderBy) error {
	if len(terms) == 0 {
		return nil
	}
	parts := make([]string, len(terms))
	for i, o := range terms {
		if _, ok := s.Column(o.Column); !ok {
			return fmt.Errorf("%w: unknown order column %q on %s", core.ErrInvalidQuery, o.Column, s.Name)
		}
		dir := "ASC"
		if strings.EqualFold(o.Direction, "desc") {
			dir = "DESC"
		}
		parts[i] = b.ident(o.Column) + " " + dir
	}
	b.write(" ORDER BY ", strings.Join(parts, ", "))
	return nil
}

func (b *builder) paging(limit, offset *int64) {
	switch {
	case limit != nil:
		b.write(" LIMIT ", b.bind(*limit))
	case offset != nil && b.d.UnboundedLimit != "":
		b.write(" LIMIT ", b.d.UnboundedLimit)
	}
	if offset != nil {
		b.write(" OFFSET ", b.bind(*offset))
	}
}
