package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/dbctl/db"
)

// Default configuration values.
const (
	DefaultDriver         = db.DriverPgx
	DefaultHost           = "localhost"
	DefaultPort           = 5432
	DefaultUser           = "postgres"
	DefaultPassword       = "postgres"
	DefaultName           = "postgres"
	DefaultMaxConnections = 10
	DefaultRootDir        = "src/db"
)

// Config represents the application configuration, backed by a filesystem for
// persistence.
type Config struct {
	Database Database
	// RootDir is the directory that contains the migrations and seeders
	// directories.
	RootDir sql.Null[string]

	fs   vfs.FileSystem
	path string
}

// Database defines the database connection options.
type Database struct {
	Driver         sql.Null[string]
	Host           sql.Null[string]
	Port           sql.Null[uint16]
	User           sql.Null[string]
	Password       sql.Null[string]
	Name           sql.Null[string]
	SSLMode        sql.Null[string]
	MaxConnections sql.Null[int]
}

// NewConfig creates a new Config instance with the specified filesystem
// and configuration file path.
func NewConfig(fs vfs.FileSystem, path string) *Config {
	return &Config{fs: fs, path: path}
}

// Load reads and parses the configuration file from the filesystem.
// If the file doesn't exist, it initializes with an empty configuration.
func (c *Config) Load() error {
	configJSON, err := vfs.ReadFile(c.fs, c.path)
	if err != nil && !vfs.IsErrNotExist(err) {
		return fmt.Errorf("failed reading configuration file: %w", err)
	}

	// Ensure that unmarshalling JSON doesn't fail if the file doesn't exist or is empty.
	if len(configJSON) == 0 {
		configJSON = []byte("{}")
	}

	if err = json.Unmarshal(configJSON, c); err != nil {
		return fmt.Errorf("failed parsing configuration file: %w", err)
	}

	return nil
}

// Path returns the filesystem path where the configuration is stored.
func (c *Config) Path() string {
	return c.path
}

type cfgWrapper struct {
	Database dbCfgWrapper `json:"database"`
	RootDir  string       `json:"root_dir,omitempty"`
}
type dbCfgWrapper struct {
	Driver         string `json:"driver,omitempty"`
	Host           string `json:"host,omitempty"`
	Port           uint16 `json:"port,omitempty"`
	User           string `json:"user,omitempty"`
	Password       string `json:"password,omitempty"`
	Name           string `json:"name,omitempty"`
	SSLMode        string `json:"sslmode,omitempty"`
	MaxConnections int    `json:"max_connections,omitempty"`
}

// UnmarshalJSON implements custom JSON unmarshaling to convert plain values
// into sql.Null types. Zero values are treated as unset.
func (c *Config) UnmarshalJSON(data []byte) error {
	var w cfgWrapper
	if err := json.Unmarshal(data, &w); err != nil {
		//nolint:wrapcheck // This is fine.
		return err
	}

	setStr(&c.Database.Driver, w.Database.Driver)
	setStr(&c.Database.Host, w.Database.Host)
	if w.Database.Port > 0 {
		c.Database.Port = sql.Null[uint16]{V: w.Database.Port, Valid: true}
	}
	setStr(&c.Database.User, w.Database.User)
	setStr(&c.Database.Password, w.Database.Password)
	setStr(&c.Database.Name, w.Database.Name)
	setStr(&c.Database.SSLMode, w.Database.SSLMode)
	if w.Database.MaxConnections < 0 {
		return fmt.Errorf("invalid max_connections value: %d", w.Database.MaxConnections)
	}
	if w.Database.MaxConnections > 0 {
		c.Database.MaxConnections = sql.Null[int]{V: w.Database.MaxConnections, Valid: true}
	}
	setStr(&c.RootDir, w.RootDir)

	return nil
}

// ApplyEnv overrides configuration values with the ones found in the process
// environment. getenv returns an empty string for unset variables.
// Values that can't be parsed are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	setStr(&c.Database.Driver, getenv("DB_DRIVER"))
	setStr(&c.Database.Host, getenv("DB_HOST"))
	if port, err := strconv.ParseUint(getenv("DB_PORT"), 10, 16); err == nil && port > 0 {
		c.Database.Port = sql.Null[uint16]{V: uint16(port), Valid: true}
	}
	setStr(&c.Database.User, getenv("DB_USER"))
	setStr(&c.Database.Password, getenv("DB_PASS"))
	setStr(&c.Database.Name, getenv("DB_NAME"))
	setStr(&c.Database.SSLMode, getenv("DB_SSLMODE"))
	if maxConns, err := strconv.Atoi(getenv("DB_MAX_CONNECTIONS")); err == nil && maxConns > 0 {
		c.Database.MaxConnections = sql.Null[int]{V: maxConns, Valid: true}
	}
	setStr(&c.RootDir, getenv("DB_ROOT_DIR"))
}

// SetDefaults sets default configuration values if they weren't set already.
func (c *Config) SetDefaults() {
	setDefault(&c.Database.Driver, DefaultDriver)
	setDefault(&c.Database.Host, DefaultHost)
	setDefault(&c.Database.Port, DefaultPort)
	setDefault(&c.Database.User, DefaultUser)
	setDefault(&c.Database.Password, DefaultPassword)
	setDefault(&c.Database.Name, DefaultName)
	setDefault(&c.Database.MaxConnections, DefaultMaxConnections)
	setDefault(&c.RootDir, DefaultRootDir)
}

// PoolConfig returns the configuration of the database connection pool.
// SetDefaults should be called first.
func (d Database) PoolConfig() db.Config {
	return db.Config{
		Driver:         d.Driver.V,
		Host:           d.Host.V,
		Port:           d.Port.V,
		User:           d.User.V,
		Password:       d.Password.V,
		Name:           d.Name.V,
		SSLMode:        d.SSLMode.V,
		MaxConnections: d.MaxConnections.V,
	}
}

func setStr(field *sql.Null[string], val string) {
	if val != "" {
		*field = sql.Null[string]{V: val, Valid: true}
	}
}

func setDefault[T any](field *sql.Null[T], val T) {
	if !field.Valid {
		*field = sql.Null[T]{V: val, Valid: true}
	}
}
