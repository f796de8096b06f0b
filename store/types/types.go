// Package types defines the backend-neutral persistence contract shared
// by every seshat store adapter.
package types

import (
	"context"
	"database/sql"
)

// Row is a single result row keyed by column name.
type Row map[string]any

// Store is the uniform data-access contract. Both the embedded and the
// networked adapters implement it with identical semantics: callers must
// never depend on which backend variant is active.
//
// Queries use neutral `?` placeholders; adapters rebind them to the
// native placeholder syntax before execution. Every mutating call made
// outside a Transaction scope commits immediately on both backends.
type Store interface {
	// Exec runs a mutating statement and commits it if no transaction
	// scope is active.
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)

	// Query runs a statement and returns a cursor for row iteration.
	// The caller owns the cursor and must close it.
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// GetOne returns the first matching row, or (nil, nil) when no row
	// matches. Zero rows is never an error.
	GetOne(ctx context.Context, query string, args ...any) (Row, error)

	// GetAll returns every matching row as a fully materialized ordered
	// slice. No matches yields an empty slice, not an error.
	GetAll(ctx context.Context, query string, args ...any) ([]Row, error)

	// Transaction runs fn inside a transaction scope, committing on nil
	// return and rolling back on error or panic. Both backends serialize
	// one active transaction per connection, so a nested call fails with
	// ErrTxNested.
	Transaction(ctx context.Context, fn func(Store) error) error

	// Dialect returns the canonical dialect name of the active backend.
	Dialect() string
}

// Conn is a Store that owns its underlying connection handle. The
// handle is exclusively owned for the process lifetime and closed only
// at shutdown.
type Conn interface {
	Store
	Close() error
}
