package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LEAPORM_"

const maxUpwardSearchLevels = 10

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

type loggerKey struct{}

// Load reads configuration from defaults, the config file, the environment
// and flags, in that order of precedence. cfgFile may be empty, in which
// case leaporm.yaml is searched for upward from the working directory.
// Only flags that were explicitly set override other sources.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"database.type":     DefaultDatabaseType,
		"database.database": DefaultDatabasePath,
		"schemas_dir":       DefaultSchemasDir,
		"auto_migrate":      false,
		"pool_size":         DefaultPoolSize,
		"verbose":           false,
		"output":            DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	projectRoot, cfgFile := locate(cfgFile)
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// LEAPORM_SCHEMAS_DIR -> schemas_dir, LEAPORM_DATABASE__HOST -> database.host
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var flagSchemasDir string
	if flags != nil {
		if flags.Changed("schemas-dir") {
			if v, _ := flags.GetString("schemas-dir"); v != "" {
				flagSchemasDir, _ = filepath.Abs(v)
			}
		}
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			// --database takes a connection URL.
			if key == "database" {
				return "url", posflag.FlagVal(flags, f)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot
	cfg.FileUsed = cfgFile

	if flagSchemasDir != "" {
		cfg.SchemasDir = flagSchemasDir
	} else {
		cfg.SchemasDir = resolvePathRelativeTo(cfg.SchemasDir, projectRoot)
	}

	expandTargetEnvVars(&cfg.Database)
	cfg.URL = expandEnvVars(cfg.URL)
	cfg.Database.ApplyDefaults()
	if cfg.Database.IsFileBased() && cfg.Database.Database != ":memory:" {
		cfg.Database.Database = resolvePathRelativeTo(cfg.Database.Database, projectRoot)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	if !slices.Contains(OutputFormats, c.Output) {
		return fmt.Errorf("invalid output format %q (expected one of %s)", c.Output, strings.Join(OutputFormats, ", "))
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("pool_size must not be negative, got %d", c.PoolSize)
	}
	if c.URL != "" {
		return nil
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("invalid database configuration: %w", err)
	}
	return nil
}

// locate returns the project root and the config file to read.
// An explicit file anchors the project root at its directory.
func locate(explicit string) (root, cfgFile string) {
	if explicit != "" {
		if abs, err := filepath.Abs(explicit); err == nil {
			return filepath.Dir(abs), abs
		}
		return filepath.Dir(explicit), explicit
	}

	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		cwd = "."
	}
	dir := cwd
	for range maxUpwardSearchLevels {
		if name := configIn(dir); name != "" {
			return dir, name
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd, ""
}

// configIn returns the config file in dir, empty if there is none.
func configIn(dir string) string {
	for _, name := range ConfigFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// expandEnvVars replaces ${VAR} with the value of VAR.
// Unset variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}

func expandTargetEnvVars(t *TargetConfig) {
	t.Password = expandEnvVars(t.Password)
	t.User = expandEnvVars(t.User)
	t.Host = expandEnvVars(t.Host)
	t.Database = expandEnvVars(t.Database)
	for k, v := range t.Options {
		t.Options[k] = expandEnvVars(v)
	}
}

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger stored by WithLogger.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

type configKey struct{}

// WithConfig returns a context carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the configuration stored by WithConfig.
// It returns nil when none was stored.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(configKey{}).(*Config)
	return cfg
}
