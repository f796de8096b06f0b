// Package sqlite implements the embedded store adapter on top of
// mattn/go-sqlite3. It is the backend used by local and development
// topologies: a single-file database with no server process.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/stokaro/seshat/config"
	"github.com/stokaro/seshat/core/platform"
	"github.com/stokaro/seshat/store/internal/sqlbase"
	"github.com/stokaro/seshat/store/types"
)

// Store is the embedded store adapter.
type Store struct {
	*sqlbase.DB
}

// New opens the database file named by cfg.Path. WAL mode keeps readers
// from blocking the single writer, and the foreign_keys pragma is
// required for referential cascades to fire: without it an identity
// rename would silently orphan dependent rows.
func New(cfg config.Config) (*Store, error) {
	db, err := sql.Open("sqlite3", DSN(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// One connection, one active transaction. Mirrors the networked
	// backends' one-transaction-per-connection rule.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite database %s: %w", cfg.Path, classify(err))
	}

	return &Store{DB: sqlbase.New(db, platform.SQLite, classify)}, nil
}

// DSN builds the go-sqlite3 connection string for the given file path.
func DSN(path string) string {
	return fmt.Sprintf("file:%s?%s", path, url.Values{
		"_journal_mode": {"WAL"},
		"_busy_timeout": {"5000"},
		"_foreign_keys": {"on"},
	}.Encode())
}

// classify maps go-sqlite3 errors onto the store taxonomy.
func classify(err error) error {
	var sqErr sqlite3.Error
	if !errors.As(err, &sqErr) {
		if sqlbase.IsNetworkError(err) {
			return fmt.Errorf("%w: %w", types.ErrUnavailable, err)
		}
		return err
	}

	msg := sqErr.Error()
	switch {
	case sqErr.Code == sqlite3.ErrConstraint:
		return fmt.Errorf("%w: %w", types.ErrConstraint, err)
	case strings.Contains(msg, "already exists"):
		return fmt.Errorf("%w: %w", types.ErrAlreadyExists, err)
	case strings.Contains(msg, "syntax error"):
		return fmt.Errorf("%w: %w", types.ErrMalformed, err)
	case sqErr.Code == sqlite3.ErrCantOpen || sqErr.Code == sqlite3.ErrBusy || sqErr.Code == sqlite3.ErrLocked:
		return fmt.Errorf("%w: %w", types.ErrUnavailable, err)
	default:
		return err
	}
}
