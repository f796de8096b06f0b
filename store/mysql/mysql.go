// Package mysql implements the alternate networked store adapter on
// top of go-sql-driver/mysql.
package mysql

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/stokaro/seshat/config"
	"github.com/stokaro/seshat/core/platform"
	"github.com/stokaro/seshat/store/internal/sqlbase"
	"github.com/stokaro/seshat/store/types"
)

// Store is the MySQL store adapter.
type Store struct {
	*sqlbase.DB
}

// New connects to the configured MySQL server.
func New(cfg config.Config) (*Store, error) {
	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to mysql at %s: %w", cfg.Addr(), classify(err))
	}

	return &Store{DB: sqlbase.New(db, platform.MySQL, classify)}, nil
}

// DSN builds the driver connection string from the explicit
// configuration. MultiStatements stays disabled: the schema
// bootstrapper splits documents itself and executes one statement per
// call.
func DSN(cfg config.Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Addr()
	mc.DBName = cfg.Database
	mc.ParseTime = true
	return mc.FormatDSN()
}

// MySQL server error numbers used for classification.
const (
	errTableExists    = 1050
	errDupKeyName     = 1061
	errDupEntry       = 1062
	errSyntax         = 1064
	errColumnExists   = 1060
	errNoReferenced   = 1452
	errColumnNotNull  = 1048
	errLockWaitExpire = 1205
)

// classify maps driver errors onto the store taxonomy.
func classify(err error) error {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		if errors.Is(err, mysql.ErrInvalidConn) || sqlbase.IsNetworkError(err) {
			return fmt.Errorf("%w: %w", types.ErrUnavailable, err)
		}
		return err
	}

	switch myErr.Number {
	case errTableExists, errDupKeyName, errColumnExists:
		return fmt.Errorf("%w: %w", types.ErrAlreadyExists, err)
	case errDupEntry, errNoReferenced, errColumnNotNull:
		return fmt.Errorf("%w: %w", types.ErrConstraint, err)
	case errSyntax:
		return fmt.Errorf("%w: %w", types.ErrMalformed, err)
	case errLockWaitExpire:
		return fmt.Errorf("%w: %w", types.ErrTimeout, err)
	default:
		return err
	}
}
