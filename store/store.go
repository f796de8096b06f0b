// Package store opens the persistence backend selected by the
// configuration and hands back the uniform data-access contract.
//
// Consumers depend on types.Store only; which adapter is active is a
// deployment detail. The embedded backend serves local and development
// topologies, the networked backends serve clustered deployments.
package store

import (
	"fmt"

	"github.com/stokaro/seshat/config"
	"github.com/stokaro/seshat/core/platform"
	"github.com/stokaro/seshat/store/mysql"
	"github.com/stokaro/seshat/store/postgres"
	"github.com/stokaro/seshat/store/sqlite"
	"github.com/stokaro/seshat/store/types"
)

// Open constructs the store adapter for cfg.Dialect. The returned
// connection is exclusively owned by the caller and closed only at
// process shutdown.
func Open(cfg config.Config) (types.Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch platform.NormalizeDialect(cfg.Dialect) {
	case platform.SQLite:
		return sqlite.New(cfg)
	case platform.Postgres:
		return postgres.New(cfg)
	case platform.MySQL:
		return mysql.New(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown dialect %q", config.ErrInvalidConfig, cfg.Dialect)
	}
}
