package core

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (DuckDB, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// IdentifierConfig defines how identifiers are quoted.
type IdentifierConfig struct {
	Quote    string // Quote character: ", `
	QuoteEnd string // End quote character (usually same as Quote)
	Escape   string // Escape sequence for QuoteEnd inside a name: "", ``
}

// InsertIDStrategy selects how a generated primary key is read back after INSERT.
type InsertIDStrategy int

const (
	// InsertIDLastInsert reads sql.Result.LastInsertId and falls back to
	// the dialect's LastInsertIDQuery on the same connection.
	InsertIDLastInsert InsertIDStrategy = iota
	// InsertIDReturning appends RETURNING <pk> to the INSERT.
	InsertIDReturning
)

// AutoIncrementStyle selects how an auto-increment primary key is declared.
type AutoIncrementStyle int

const (
	// AutoIncrementKeyword emits "INTEGER PRIMARY KEY AUTOINCREMENT" (SQLite).
	AutoIncrementKeyword AutoIncrementStyle = iota
	// AutoIncrementIdentity emits "GENERATED BY DEFAULT AS IDENTITY" (PostgreSQL).
	AutoIncrementIdentity
	// AutoIncrementSequence creates a sequence and defaults the column to nextval (DuckDB).
	AutoIncrementSequence
)
