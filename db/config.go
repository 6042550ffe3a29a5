package db

import (
	"errors"
	"net"
	"net/url"
	"strconv"

	"github.com/go-sql-driver/mysql"

	//nolint:revive,nolintlint // Idiomatic way of loading DB libraries.
	_ "github.com/glebarez/go-sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"go.hackfix.me/dbctl/db/types"
)

// Supported database/sql driver names.
const (
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

type driver struct {
	dialect types.Dialect
}

var drivers = map[string]driver{
	DriverPgx:      {dialect: types.Postgres},
	DriverPostgres: {dialect: types.Postgres},
	DriverMySQL:    {dialect: types.MySQL},
	DriverSQLite:   {dialect: types.SQLite},
}

// Drivers returns the names of all supported drivers.
func Drivers() []string {
	return []string{DriverPgx, DriverPostgres, DriverMySQL, DriverSQLite}
}

// Config holds the parameters used to connect to the database.
type Config struct {
	Driver   string
	Host     string
	Port     uint16
	User     string
	Password string
	// Name is the database name. For SQLite it's the path to the database file,
	// or any DSN accepted by the driver.
	Name string
	// SSLMode is passed to the Postgres drivers if set.
	SSLMode        string
	MaxConnections int
}

// Address returns the host:port pair of the database server, or the database
// name for file-based databases.
func (c Config) Address() string {
	if c.Driver == DriverSQLite {
		return c.Name
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
}

// DSN returns the data source name passed to the database/sql driver.
func (c Config) DSN() (string, error) {
	switch c.Driver {
	case DriverPgx, DriverPostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.User, c.Password),
			Host:   c.Address(),
			Path:   "/" + c.Name,
		}
		if c.SSLMode != "" {
			u.RawQuery = url.Values{"sslmode": []string{c.SSLMode}}.Encode()
		}
		return u.String(), nil
	case DriverMySQL:
		mcfg := mysql.NewConfig()
		mcfg.User = c.User
		mcfg.Passwd = c.Password
		mcfg.Net = "tcp"
		mcfg.Addr = c.Address()
		mcfg.DBName = c.Name
		// Change-set bodies usually contain more than one statement.
		mcfg.MultiStatements = true
		mcfg.ParseTime = true
		return mcfg.FormatDSN(), nil
	case DriverSQLite:
		if c.Name == "" {
			return "", errors.New("the SQLite database path is required")
		}
		return c.Name, nil
	default:
		return "", errors.New("unsupported database driver")
	}
}
