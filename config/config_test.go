package config_test

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/seshat/config"
	"github.com/stokaro/seshat/core/platform"
)

func lookupMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected string
	}{
		{
			name:     "no host selects embedded",
			env:      map[string]string{},
			expected: platform.SQLite,
		},
		{
			name:     "empty host selects embedded",
			env:      map[string]string{config.EnvHost: ""},
			expected: platform.SQLite,
		},
		{
			name:     "host selects postgres",
			env:      map[string]string{config.EnvHost: "db.internal"},
			expected: platform.Postgres,
		},
		{
			name:     "host with mysql dialect",
			env:      map[string]string{config.EnvHost: "db.internal", config.EnvDialect: "mysql"},
			expected: platform.MySQL,
		},
		{
			name:     "embedded dialect value cannot force a networked backend off",
			env:      map[string]string{config.EnvHost: "db.internal", config.EnvDialect: "sqlite"},
			expected: platform.Postgres,
		},
		{
			name:     "dialect without host stays embedded",
			env:      map[string]string{config.EnvDialect: "postgres"},
			expected: platform.SQLite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(config.Detect(lookupMap(tt.env)), qt.Equals, tt.expected)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{
			name:    "embedded with path",
			cfg:     config.Config{Dialect: platform.SQLite, Path: "app.db"},
			wantErr: false,
		},
		{
			name:    "embedded without path",
			cfg:     config.Config{Dialect: platform.SQLite},
			wantErr: true,
		},
		{
			name: "postgres complete",
			cfg: config.Config{
				Dialect: platform.Postgres, Host: "db", Port: 5432,
				Database: "app", User: "app",
			},
			wantErr: false,
		},
		{
			name:    "postgres missing everything",
			cfg:     config.Config{Dialect: platform.Postgres},
			wantErr: true,
		},
		{
			name: "postgres missing user",
			cfg: config.Config{
				Dialect: platform.Postgres, Host: "db", Port: 5432, Database: "app",
			},
			wantErr: true,
		},
		{
			name: "port out of range",
			cfg: config.Config{
				Dialect: platform.Postgres, Host: "db", Port: 99999,
				Database: "app", User: "app",
			},
			wantErr: true,
		},
		{
			name:    "unknown dialect",
			cfg:     config.Config{Dialect: "oracle"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			err := tt.cfg.Validate()
			if tt.wantErr {
				c.Assert(err, qt.IsNotNil)
				c.Assert(errors.Is(err, config.ErrInvalidConfig), qt.IsTrue)
			} else {
				c.Assert(err, qt.IsNil)
			}
		})
	}
}

func TestLoad_EmbeddedDefaults(t *testing.T) {
	c := qt.New(t)

	cfg, err := config.Load()
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Dialect, qt.Equals, platform.SQLite)
	c.Assert(cfg.Path, qt.Equals, "seshat.db")
	c.Assert(cfg.Networked(), qt.IsFalse)
	c.Assert(cfg.Retry.MaxAttempts > 0, qt.IsTrue)
}

func TestLoad_Clustered(t *testing.T) {
	c := qt.New(t)

	t.Setenv("SESHAT_DB_HOST", "db.internal")
	t.Setenv("SESHAT_DB_NAME", "app")
	t.Setenv("SESHAT_DB_USER", "app")
	t.Setenv("SESHAT_MASTER_EMAIL", "Admin@Example.COM")

	cfg, err := config.Load()
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Dialect, qt.Equals, platform.Postgres)
	c.Assert(cfg.Port, qt.Equals, 5432)
	c.Assert(cfg.Addr(), qt.Equals, "db.internal:5432")
	c.Assert(cfg.MasterEmail, qt.Equals, "Admin@Example.COM")
	c.Assert(cfg.Networked(), qt.IsTrue)
}

func TestLoad_ClusteredMissingParams(t *testing.T) {
	c := qt.New(t)

	t.Setenv("SESHAT_DB_HOST", "db.internal")

	_, err := config.Load()
	c.Assert(err, qt.IsNotNil)
	c.Assert(errors.Is(err, config.ErrInvalidConfig), qt.IsTrue)
}
