package query

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaporm/pkg/core"
)

func checkLink(link *core.M2MContext) error {
	if link == nil || link.JoinTable == "" || link.SourceCol == "" || link.TargetCol == "" {
		return fmt.Errorf("%w: link requires join_table, source_col and target_col", core.ErrInvalidQuery)
	}
	if link.SourceID == nil {
		return fmt.Errorf("%w: link requires a source_id", core.ErrInvalidOperand)
	}
	return nil
}

// AddLinks compiles one join-table row per target.
func (c *Compiler) AddLinks(link *core.M2MContext, targets []any) (Statement, error) {
	if err := checkLink(link); err != nil {
		return Statement{}, err
	}
	if len(targets) == 0 {
		return Statement{}, fmt.Errorf("%w: no link targets", core.ErrInvalidOperand)
	}
	src, err := Arg(link.SourceID, nil)
	if err != nil {
		return Statement{}, err
	}

	b := c.newBuilder()
	b.write("INSERT INTO ", b.ident(link.JoinTable),
		" (", b.ident(link.SourceCol), ", ", b.ident(link.TargetCol), ") VALUES ")
	for i, t := range targets {
		tgt, err := Arg(t, nil)
		if err != nil {
			return Statement{}, err
		}
		if i > 0 {
			b.write(", ")
		}
		b.write("(", b.bind(src), ", ", b.bind(tgt), ")")
	}
	return b.statement(), nil
}

// RemoveLinks compiles a DELETE of the join rows from the source to targets.
func (c *Compiler) RemoveLinks(link *core.M2MContext, targets []any) (Statement, error) {
	if err := checkLink(link); err != nil {
		return Statement{}, err
	}
	if len(targets) == 0 {
		return Statement{}, fmt.Errorf("%w: no link targets", core.ErrInvalidOperand)
	}
	src, err := Arg(link.SourceID, nil)
	if err != nil {
		return Statement{}, err
	}

	b := c.newBuilder()
	b.write("DELETE FROM ", b.ident(link.JoinTable), " WHERE ", b.ident(link.SourceCol), " = ", b.bind(src))
	ph := make([]string, len(targets))
	for i, t := range targets {
		tgt, err := Arg(t, nil)
		if err != nil {
			return Statement{}, err
		}
		ph[i] = b.bind(tgt)
	}
	b.write(" AND ", b.ident(link.TargetCol), " IN (", strings.Join(ph, ", "), ")")
	return b.statement(), nil
}

// ClearLinks compiles a DELETE of every join row from the source.
func (c *Compiler) ClearLinks(link *core.M2MContext) (Statement, error) {
	if err := checkLink(link); err != nil {
		return Statement{}, err
	}
	src, err := Arg(link.SourceID, nil)
	if err != nil {
		return Statement{}, err
	}
	b := c.newBuilder()
	b.write("DELETE FROM ", b.ident(link.JoinTable), " WHERE ", b.ident(link.SourceCol), " = ", b.bind(src))
	return b.statement(), nil
}
