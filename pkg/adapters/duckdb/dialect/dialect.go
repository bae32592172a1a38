// Package dialect provides the DuckDB SQL dialect definition.
package dialect

import (
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/dialect"
)

func init() {
	dialect.Register(DuckDB)
}

// DuckDB is the DuckDB dialect configuration.
// DuckDB parses ON DELETE actions other than the default but rejects them,
// so foreign keys are emitted without one.
var DuckDB = dialect.NewDialect("duckdb").
	DefaultSchema("main").
	PlaceholderStyle(core.PlaceholderQuestion).
	InsertID(core.InsertIDReturning, "").
	AutoIncrement(core.AutoIncrementSequence).
	ForeignKeyActions(false).
	Types(map[core.ColumnType]string{
		core.TypeInteger:  "BIGINT",
		core.TypeText:     "VARCHAR",
		core.TypeFloat:    "DOUBLE",
		core.TypeBoolean:  "BIGINT",
		core.TypeJSON:     "VARCHAR",
		core.TypeDateTime: "TIMESTAMP",
		core.TypeDate:     "DATE",
		core.TypeUUID:     "UUID",
		core.TypeBlob:     "BLOB",
		core.TypeDecimal:  "VARCHAR",
	}).
	Build()
