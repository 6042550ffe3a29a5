package config_test

import (
	"database/sql"
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/dbctl/app/config"
	"go.hackfix.me/dbctl/db"
)

func TestConfigLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		contents string
		expCfg   func(*config.Config)
		expErr   string
	}{
		{
			name:   "ok/missing_file",
			expCfg: func(*config.Config) {},
		},
		{
			name:     "err/blank_file",
			contents: " ",
			expErr:   "failed parsing configuration file",
		},
		{
			name: "ok/full",
			contents: `{
  "database": {
    "driver": "mysql",
    "host": "db.local",
    "port": 3306,
    "user": "app",
    "password": "secret",
    "name": "appdb",
    "sslmode": "disable",
    "max_connections": 3
  },
  "root_dir": "db"
}`,
			expCfg: func(c *config.Config) {
				c.Database = config.Database{
					Driver:         sql.Null[string]{V: "mysql", Valid: true},
					Host:           sql.Null[string]{V: "db.local", Valid: true},
					Port:           sql.Null[uint16]{V: 3306, Valid: true},
					User:           sql.Null[string]{V: "app", Valid: true},
					Password:       sql.Null[string]{V: "secret", Valid: true},
					Name:           sql.Null[string]{V: "appdb", Valid: true},
					SSLMode:        sql.Null[string]{V: "disable", Valid: true},
					MaxConnections: sql.Null[int]{V: 3, Valid: true},
				}
				c.RootDir = sql.Null[string]{V: "db", Valid: true}
			},
		},
		{
			name:     "ok/partial",
			contents: `{"database": {"host": "db.local"}}`,
			expCfg: func(c *config.Config) {
				c.Database.Host = sql.Null[string]{V: "db.local", Valid: true}
			},
		},
		{
			name:     "err/invalid_json",
			contents: `{"database": `,
			expErr:   "failed parsing configuration file",
		},
		{
			name:     "err/negative_max_connections",
			contents: `{"database": {"max_connections": -1}}`,
			expErr:   "invalid max_connections value: -1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := memoryfs.New()
			if tt.contents != "" {
				require.NoError(t, vfs.WriteFile(fs, "/config.json", []byte(tt.contents), 0o644))
			}

			cfg := config.NewConfig(fs, "/config.json")
			err := cfg.Load()
			if tt.expErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expErr)
				return
			}
			require.NoError(t, err)

			exp := config.NewConfig(fs, "/config.json")
			tt.expCfg(exp)
			assert.Equal(t, exp, cfg)
		})
	}
}

func TestConfigEnvAndDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		env     map[string]string
		expPool db.Config
		expRoot string
	}{
		{
			name: "ok/defaults",
			expPool: db.Config{
				Driver: db.DriverPgx, Host: "localhost", Port: 5432, User: "postgres",
				Password: "postgres", Name: "postgres", MaxConnections: 10,
			},
			expRoot: "src/db",
		},
		{
			name: "ok/env",
			env: map[string]string{
				"DB_DRIVER": "postgres", "DB_HOST": "pg", "DB_PORT": "6543", "DB_USER": "u",
				"DB_PASS": "p", "DB_NAME": "n", "DB_SSLMODE": "require",
				"DB_MAX_CONNECTIONS": "2", "DB_ROOT_DIR": "/srv/db",
			},
			expPool: db.Config{
				Driver: db.DriverPostgres, Host: "pg", Port: 6543, User: "u", Password: "p",
				Name: "n", SSLMode: "require", MaxConnections: 2,
			},
			expRoot: "/srv/db",
		},
		{
			name: "ok/invalid_numbers_ignored",
			env:  map[string]string{"DB_PORT": "nope", "DB_MAX_CONNECTIONS": "-4"},
			expPool: db.Config{
				Driver: db.DriverPgx, Host: "localhost", Port: 5432, User: "postgres",
				Password: "postgres", Name: "postgres", MaxConnections: 10,
			},
			expRoot: "src/db",
		},
		{
			name: "ok/port_out_of_range",
			env:  map[string]string{"DB_PORT": "70000"},
			expPool: db.Config{
				Driver: db.DriverPgx, Host: "localhost", Port: 5432, User: "postgres",
				Password: "postgres", Name: "postgres", MaxConnections: 10,
			},
			expRoot: "src/db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewConfig(memoryfs.New(), "/config.json")
			require.NoError(t, cfg.Load())
			cfg.ApplyEnv(func(key string) string { return tt.env[key] })
			cfg.SetDefaults()

			assert.Equal(t, tt.expPool, cfg.Database.PoolConfig())
			assert.Equal(t, tt.expRoot, cfg.RootDir.V)
		})
	}
}

func TestConfigEnvOverridesFile(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	require.NoError(t, vfs.WriteFile(fs, "/config.json",
		[]byte(`{"database": {"host": "file-host", "user": "file-user"}}`), 0o644))

	cfg := config.NewConfig(fs, "/config.json")
	require.NoError(t, cfg.Load())
	cfg.ApplyEnv(func(key string) string {
		if key == "DB_HOST" {
			return "env-host"
		}
		return ""
	})
	cfg.SetDefaults()

	assert.Equal(t, "env-host", cfg.Database.Host.V)
	assert.Equal(t, "file-user", cfg.Database.User.V)
	assert.Equal(t, "/config.json", cfg.Path())
}
