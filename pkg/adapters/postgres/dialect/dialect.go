// Package dialect provides the PostgreSQL SQL dialect definition.
// This package is lightweight and has no database driver dependencies,
// making it suitable for compiling statements without a live connection.
package dialect

import (
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/dialect"
)

func init() {
	dialect.Register(Postgres)
}

// Postgres is the PostgreSQL dialect configuration.
var Postgres = dialect.NewDialect("postgres").
	DefaultSchema("public").
	PlaceholderStyle(core.PlaceholderDollar).
	InsertID(core.InsertIDReturning, "").
	AutoIncrement(core.AutoIncrementIdentity).
	Types(map[core.ColumnType]string{
		core.TypeInteger:  "BIGINT",
		core.TypeText:     "VARCHAR",
		core.TypeFloat:    "DOUBLE PRECISION",
		core.TypeBoolean:  "BIGINT",
		core.TypeJSON:     "TEXT",
		core.TypeDateTime: "TIMESTAMP",
		core.TypeDate:     "DATE",
		core.TypeUUID:     "UUID",
		core.TypeBlob:     "BYTEA",
		core.TypeDecimal:  "NUMERIC",
	}).
	Build()
