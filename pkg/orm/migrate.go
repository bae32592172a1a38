package orm

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/ddl"
)

// RegisterSchema parses and registers a model schema, replacing any prior
// registration under name.
func (e *Engine) RegisterSchema(name string, schemaJSON []byte) error {
	s, err := e.registry.Register(name, schemaJSON)
	if err != nil {
		return err
	}
	e.logger.Debug("registered schema", "model", s.Name, "table", s.Table, "columns", len(s.Columns))
	return nil
}

// Compile returns the DDL plan of a registered model for the connected dialect.
func (e *Engine) Compile(model string) (*ddl.Plan, error) {
	s, c, err := e.prepare(model)
	if err != nil {
		return nil, err
	}
	return ddl.Compile(s, c.Dialect())
}

// CreateTables creates every registered model's table, referenced tables first.
func (e *Engine) CreateTables(ctx context.Context) error {
	a, err := e.Adapter()
	if err != nil {
		return err
	}

	plans, err := ddl.CompileAll(e.registry.Snapshot(), a.Dialect())
	if err != nil {
		return err
	}

	for _, p := range plans {
		for _, w := range p.Warnings {
			e.logger.Warn(w, "model", p.Model)
		}
		for _, stmt := range p.Statements() {
			if err := a.Exec(ctx, stmt); err != nil {
				return &core.SQLError{Model: p.Model, Op: "create table", Err: err}
			}
		}
		e.logger.Debug("created table", "model", p.Model, "table", p.Table)
	}
	e.logger.Info("tables created", "count", len(plans))
	return nil
}

// TableMetadata returns the column metadata of a table from the connected database.
func (e *Engine) TableMetadata(ctx context.Context, table string) (*core.TableMetadata, error) {
	a, err := e.Adapter()
	if err != nil {
		return nil, err
	}
	meta, err := a.GetTableMetadata(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	return meta, nil
}
