// Package dialect provides the SQLite SQL dialect definition.
package dialect

import (
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/dialect"
)

func init() {
	dialect.Register(SQLite)
}

// SQLite is the SQLite dialect configuration.
var SQLite = dialect.NewDialect("sqlite").
	DefaultSchema("main").
	PlaceholderStyle(core.PlaceholderQuestion).
	InsertID(core.InsertIDLastInsert, "SELECT last_insert_rowid()").
	AutoIncrement(core.AutoIncrementKeyword).
	UnboundedLimit("-1").
	Types(map[core.ColumnType]string{
		core.TypeInteger:  "INTEGER",
		core.TypeText:     "TEXT",
		core.TypeFloat:    "REAL",
		core.TypeBoolean:  "INTEGER",
		core.TypeJSON:     "TEXT",
		core.TypeDateTime: "DATETIME",
		core.TypeDate:     "DATE",
		core.TypeUUID:     "TEXT",
		core.TypeBlob:     "BLOB",
		core.TypeDecimal:  "TEXT",
	}).
	Build()
