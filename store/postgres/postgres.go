// Package postgres implements the networked store adapter on top of
// the pgx driver. It is the backend used by clustered deployments.
package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver "pgx"

	"github.com/stokaro/seshat/config"
	"github.com/stokaro/seshat/core/platform"
	"github.com/stokaro/seshat/store/internal/sqlbase"
	"github.com/stokaro/seshat/store/types"
)

// Store is the PostgreSQL store adapter.
type Store struct {
	*sqlbase.DB
}

// New connects to the configured PostgreSQL server. The connection
// handle is owned by the returned Store until Close. New fails with a
// classified error when the server is unreachable; callers that need to
// wait out an undetermined startup ordering run the readiness gate
// first.
func New(cfg config.Config) (*Store, error) {
	db, err := sql.Open("pgx", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to postgres at %s: %w", cfg.Addr(), classify(err))
	}

	return &Store{DB: sqlbase.New(db, platform.Postgres, classify)}, nil
}

// DSN builds the pgx connection URL from the explicit configuration.
func DSN(cfg config.Config) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   cfg.Addr(),
		Path:   "/" + cfg.Database,
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		u.User = url.User(cfg.User)
	}
	u.RawQuery = "sslmode=prefer"
	return u.String()
}

// classify maps pgx errors onto the store taxonomy using SQLSTATE
// classes.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		if sqlbase.IsNetworkError(err) {
			return fmt.Errorf("%w: %w", types.ErrUnavailable, err)
		}
		return err
	}

	switch {
	case pgErr.Code == "42P07" || pgErr.Code == "42710" || pgErr.Code == "42701" || pgErr.Code == "42P06":
		// duplicate_table, duplicate_object, duplicate_column, duplicate_schema
		return fmt.Errorf("%w: %w", types.ErrAlreadyExists, err)
	case strings.HasPrefix(pgErr.Code, "23"):
		// integrity_constraint_violation class
		return fmt.Errorf("%w: %w", types.ErrConstraint, err)
	case pgErr.Code == "42601":
		return fmt.Errorf("%w: %w", types.ErrMalformed, err)
	case pgErr.Code == "57014":
		// query_canceled: the statement exceeded its deadline server-side
		return fmt.Errorf("%w: %w", types.ErrTimeout, err)
	case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"):
		// connection_exception class, server shutdown
		return fmt.Errorf("%w: %w", types.ErrUnavailable, err)
	default:
		return err
	}
}
