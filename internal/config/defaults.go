package config

// Default configuration values.
const (
	DefaultSchemasDir   = "schemas"
	DefaultOutput       = "table"
	DefaultDatabaseType = "sqlite"
	DefaultDatabasePath = "leaporm.db"
	DefaultPoolSize     = 5
	DefaultPostgresPort = 5432
)

// ConfigFileNames are the file names searched for in the project root.
var ConfigFileNames = []string{"leaporm.yaml", "leaporm.yml"}

// OutputFormats lists the accepted values of the output setting.
var OutputFormats = []string{"table", "json"}
