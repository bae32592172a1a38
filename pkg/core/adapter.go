package core

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	// PoolSize caps open connections. Zero means DefaultPoolSize.
	PoolSize int
	Options  map[string]string
	Params   map[string]any
}

// DefaultPoolSize is the connection cap used when AdapterConfig.PoolSize is unset.
const DefaultPoolSize = 5

// ColumnMetadata describes a column of a live database table.
type ColumnMetadata struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
	Position   int
}

// TableMetadata holds metadata about a database table.
type TableMetadata struct {
	Schema   string
	Name     string
	Columns  []ColumnMetadata
	RowCount int64
}
