// Package config loads leaporm project configuration.
//
// Values come from, in increasing priority: built-in defaults, a
// leaporm.yaml file, LEAPORM_ environment variables and explicitly set
// command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaporm/pkg/adapter"
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/dialect"
)

// TargetConfig describes the database the engine connects to.
type TargetConfig struct {
	Type string `koanf:"type"` // sqlite, postgres, duckdb

	// File path for sqlite/duckdb, database name for postgres.
	Database string `koanf:"database"`

	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Schema   string `koanf:"schema"`

	// Options are driver options (postgres sslmode, driver=pq).
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific settings such as sqlite pragmas.
	Params map[string]any `koanf:"params"`
}

// Config is the resolved leaporm configuration.
type Config struct {
	Database TargetConfig `koanf:"database"`

	// URL overrides Database when set (sqlite::memory:, postgres://...).
	URL string `koanf:"url"`

	SchemasDir  string `koanf:"schemas_dir"`
	AutoMigrate bool   `koanf:"auto_migrate"`
	PoolSize    int    `koanf:"pool_size"`
	Verbose     bool   `koanf:"verbose"`
	Output      string `koanf:"output"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
	// FileUsed is the config file that was loaded, empty if none.
	FileUsed string `koanf:"-"`
}

// DefaultSchemaForType returns the default schema of a database type.
func DefaultSchemaForType(dbType string) string {
	if d, ok := dialect.Get(dbType); ok && d.DefaultSchema != "" {
		return d.DefaultSchema
	}
	return "main"
}

// ApplyDefaults fills in type-dependent target values.
func (t *TargetConfig) ApplyDefaults() {
	t.Type = strings.ToLower(t.Type)
	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}
	if t.Type == "postgres" {
		if t.Port == 0 {
			t.Port = DefaultPostgresPort
		}
		if t.Host == "" {
			t.Host = "localhost"
		}
	}
}

// Validate checks the target against the adapter registry.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("database type is required")
	}
	typ := strings.ToLower(t.Type)
	if !adapter.IsRegistered(typ) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}
	if typ == "postgres" && t.Database == "" {
		return fmt.Errorf("database name is required for postgres")
	}
	return nil
}

// IsFileBased reports whether the target stores data in a local file.
func (t *TargetConfig) IsFileBased() bool {
	return t.Type == "sqlite" || t.Type == "duckdb"
}

// AdapterConfig converts the configuration into the form adapters accept.
// A URL takes precedence over the database block.
func (c *Config) AdapterConfig() (core.AdapterConfig, error) {
	if c.URL != "" {
		ac, err := adapter.ParseURL(c.URL)
		if err != nil {
			return core.AdapterConfig{}, err
		}
		ac.PoolSize = c.PoolSize
		return ac, nil
	}

	t := c.Database
	ac := core.AdapterConfig{
		Type:     t.Type,
		Host:     t.Host,
		Port:     t.Port,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		PoolSize: c.PoolSize,
		Options:  t.Options,
		Params:   t.Params,
	}
	if t.IsFileBased() {
		ac.Path = t.Database
	} else {
		ac.Database = t.Database
	}
	return ac, nil
}
