// Package config loads the phpcr-migrate configuration from config.yaml
// and parses source DSNs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/phpcrmigrate/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "PHPCR_MIGRATE"
)

// Config keys.
const (
	KeyDSN              = "dsn"
	KeyDataDir          = "data_dir"
	KeyTargetConnection = "target.connection"
	KeyDocumentTypes    = "document_types"
	KeyLogLevel         = "log.level"
	KeyLogFormat        = "log.format"
)

// DefaultConfigYAML is written to config.yaml on first run.
const DefaultConfigYAML = `# phpcr-migrate configuration

# Source of the PHPCR nodes:
#   dbal://<connection>?workspace=<name>  Jackalope DBAL tables in a connection below
#   jsonl://<dir>?workspace=<name>        JSONL exports, <dir>/<workspace>.jsonl
# The live workspace is <name>_live.
dsn: "dbal://source?workspace=default"

# Database connections. Drivers: sqlite, pgx. Relative sqlite paths are
# resolved against the data directory.
connections:
  source:
    driver: sqlite
    dsn: phpcr.db
  target:
    driver: sqlite
    dsn: content.db

target:
  connection: target

document_types:
  - article

log:
  level: info
  format: console

# Data directory (optional; overridable by --data-dir flag)
# data_dir:
`

// Config is the decoded configuration file.
type Config struct {
	DSN           string                      `mapstructure:"dsn"`
	DataDir       string                      `mapstructure:"data_dir"`
	Connections   map[string]types.Connection `mapstructure:"connections"`
	Target        Target                      `mapstructure:"target"`
	DocumentTypes []string                    `mapstructure:"document_types"`
	Log           Log                         `mapstructure:"log"`
}

// Target selects the connection migrated content is written to.
type Target struct {
	Connection string `mapstructure:"connection"`
}

// Log configures the logger.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config.yaml from configDir, creating the directory and a
// default file on first run. Keys can be overridden by PHPCR_MIGRATE_*
// environment variables, e.g. PHPCR_MIGRATE_DSN or PHPCR_MIGRATE_LOG_LEVEL.
func Load(configDir string) (*Config, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(KeyDSN, "")
	v.SetDefault(KeyDataDir, "")
	v.SetDefault(KeyTargetConnection, "target")
	v.SetDefault(KeyDocumentTypes, []string{"article"})
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(DefaultConfigYAML), 0o644)
}

// Validate checks that the target connection exists and every connection is
// well-formed.
func (c *Config) Validate() error {
	if len(c.DocumentTypes) == 0 {
		return errors.New("document_types must not be empty")
	}
	for name, conn := range c.Connections {
		if err := conn.Validate(); err != nil {
			return fmt.Errorf("connection %q: %w", name, err)
		}
	}
	if _, err := c.Connection(c.Target.Connection); err != nil {
		return fmt.Errorf("target: %w", err)
	}
	return nil
}

// Connection returns the named connection. Relative sqlite paths are
// resolved against DataDir.
func (c *Config) Connection(name string) (types.Connection, error) {
	conn, ok := c.Connections[name]
	if !ok {
		return types.Connection{}, fmt.Errorf("%w: %q", types.ErrConnectionNotFound, name)
	}
	if conn.Driver == types.DriverSQLite && c.DataDir != "" && isRelativeFile(conn.DSN) {
		conn.DSN = filepath.Join(c.DataDir, conn.DSN)
	}
	return conn, nil
}

// TargetConnection returns the connection migrated content is written to.
func (c *Config) TargetConnection() (types.Connection, error) {
	return c.Connection(c.Target.Connection)
}

// SourceDir resolves the directory of a jsonl DSN against DataDir.
func (c *Config) SourceDir(d *DSN) string {
	if d.Dir == "" || filepath.IsAbs(d.Dir) || c.DataDir == "" {
		return d.Dir
	}
	return filepath.Join(c.DataDir, d.Dir)
}

// isRelativeFile reports whether a sqlite DSN is a plain relative file path.
func isRelativeFile(dsn string) bool {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return false
	}
	return !filepath.IsAbs(dsn)
}
