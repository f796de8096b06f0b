// Package config provides explicit configuration for the seshat
// persistence layer.
//
// Backend selection is driven by the environment at the process edge
// only: Load reads the SESHAT_* variables once and produces a Config
// value that is injected into every constructor. Components never read
// the environment themselves, which keeps them independently testable.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/viper"

	"github.com/stokaro/seshat/core/platform"
	"github.com/stokaro/seshat/retry"
)

// Environment variable names consumed by Load and Detect.
const (
	EnvDialect     = "SESHAT_DB_DIALECT"
	EnvHost        = "SESHAT_DB_HOST"
	EnvPort        = "SESHAT_DB_PORT"
	EnvName        = "SESHAT_DB_NAME"
	EnvUser        = "SESHAT_DB_USER"
	EnvPassword    = "SESHAT_DB_PASSWORD"
	EnvPath        = "SESHAT_DB_PATH"
	EnvMasterEmail = "SESHAT_MASTER_EMAIL"
	EnvMasterPass  = "SESHAT_MASTER_PASSWORD"
)

// ErrInvalidConfig marks fatal configuration errors. They surface at
// startup and are never retried.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the explicit configuration value passed to store, bootstrap
// and identity constructors.
type Config struct {
	// Dialect is one of the platform dialect constants.
	Dialect string

	// Networked backend parameters. Required for postgres and mysql.
	Host     string
	Port     int
	Database string
	User     string
	Password string

	// Path is the database file for the embedded backend. Defaults to
	// seshat.db in the working directory.
	Path string

	// MasterEmail designates the single identity whose effective status
	// and roles are overridden during authentication. MasterPassword is
	// only consulted when seeding that identity for the first time.
	MasterEmail    string
	MasterPassword string

	// Retry bounds the readiness gate's probe loop.
	Retry retry.Policy
}

// Detect decides the backend dialect from environment state. It is a
// pure function of the supplied lookup: presence of a non-empty host
// value selects a networked dialect (postgres unless SESHAT_DB_DIALECT
// names mysql), absence always selects the embedded backend. Detect
// performs no I/O and never fails.
func Detect(lookup func(string) (string, bool)) string {
	host, ok := lookup(EnvHost)
	if !ok || host == "" {
		return platform.SQLite
	}
	if d, ok := lookup(EnvDialect); ok {
		if n := platform.NormalizeDialect(d); platform.IsNetworked(n) {
			return n
		}
	}
	return platform.Postgres
}

// Load builds a Config from the SESHAT_* environment variables and
// validates it. The returned value is complete: defaults are filled in
// and the dialect is already detected.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SESHAT")
	v.AutomaticEnv()
	v.SetDefault("DB_PATH", "seshat.db")

	cfg := Config{
		Dialect:        Detect(lookupViper(v)),
		Host:           v.GetString("DB_HOST"),
		Port:           v.GetInt("DB_PORT"),
		Database:       v.GetString("DB_NAME"),
		User:           v.GetString("DB_USER"),
		Password:       v.GetString("DB_PASSWORD"),
		Path:           v.GetString("DB_PATH"),
		MasterEmail:    v.GetString("MASTER_EMAIL"),
		MasterPassword: v.GetString("MASTER_PASSWORD"),
		Retry:          retry.DefaultPolicy(),
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// lookupViper adapts a viper instance to the Detect lookup contract.
func lookupViper(v *viper.Viper) func(string) (string, bool) {
	return func(key string) (string, bool) {
		// Keys arrive fully prefixed (SESHAT_DB_HOST); viper wants the
		// suffix relative to its prefix.
		const prefix = "SESHAT_"
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			key = key[len(prefix):]
		}
		// AutomaticEnv does not register keys with IsSet, so presence is
		// judged by value. Detect treats empty the same as absent.
		val := v.GetString(key)
		return val, val != ""
	}
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		switch c.Dialect {
		case platform.Postgres:
			c.Port = 5432
		case platform.MySQL:
			c.Port = 3306
		}
	}
	if c.Path == "" {
		c.Path = "seshat.db"
	}
	if c.Retry == (retry.Policy{}) {
		c.Retry = retry.DefaultPolicy()
	}
}

// Validate checks that every parameter required by the selected dialect
// is present. Networked dialects fail fast on missing host, database or
// user; the embedded dialect only needs a path.
func (c Config) Validate() error {
	switch platform.NormalizeDialect(c.Dialect) {
	case platform.SQLite:
		if c.Path == "" {
			return fmt.Errorf("%w: embedded backend requires a database path", ErrInvalidConfig)
		}
		return nil
	case platform.Postgres, platform.MySQL:
		var missing []string
		if c.Host == "" {
			missing = append(missing, "host")
		}
		if c.Database == "" {
			missing = append(missing, "database")
		}
		if c.User == "" {
			missing = append(missing, "user")
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %s backend requires %v", ErrInvalidConfig, c.Dialect, missing)
		}
		if c.Port <= 0 || c.Port > 65535 {
			return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown dialect %q", ErrInvalidConfig, c.Dialect)
	}
}

// Addr returns the host:port pair probed by the readiness gate.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Networked reports whether the configured backend requires the
// readiness gate before bootstrap.
func (c Config) Networked() bool {
	return platform.IsNetworked(c.Dialect)
}
