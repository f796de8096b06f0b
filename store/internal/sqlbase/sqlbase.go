// Package sqlbase implements the shared database/sql execution core
// used by every dialect adapter. Adapters contribute a DSN, a driver
// and an error classifier; sqlbase contributes placeholder rebinding,
// row materialization and transaction scoping.
package sqlbase

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/stokaro/seshat/core/sqlutil"
	"github.com/stokaro/seshat/store/types"
)

// Classifier maps a raw driver error onto the store error taxonomy.
// It must return the original error unchanged when no sentinel applies.
type Classifier func(err error) error

// runner is the subset of database/sql shared by *sql.DB and *sql.Tx.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// DB owns one database handle for the process lifetime and implements
// the full store contract on top of it.
type DB struct {
	db       *sql.DB
	dialect  string
	classify Classifier
	logger   *slog.Logger
}

// New wraps an opened handle. The handle is exclusively owned by the
// returned DB and closed only through Close.
func New(db *sql.DB, dialect string, classify Classifier) *DB {
	return &DB{
		db:       db,
		dialect:  dialect,
		classify: classify,
		logger:   slog.Default(),
	}
}

// WithLogger returns a copy of the DB using the given logger.
func (d *DB) WithLogger(l *slog.Logger) *DB {
	tmp := *d
	tmp.logger = l
	return &tmp
}

// Handle exposes the underlying database handle for adapter-level
// setup (pragmas, ping). It must not escape to store consumers.
func (d *DB) Handle() *sql.DB {
	return d.db
}

// Dialect returns the canonical dialect name.
func (d *DB) Dialect() string {
	return d.dialect
}

// Close releases the connection handle. Called once at shutdown.
func (d *DB) Close() error {
	return d.db.Close()
}

// Exec runs a mutating statement in autocommit scope.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return execOn(ctx, d.db, d, query, args...)
}

// Query runs a statement and returns the row cursor.
func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return queryOn(ctx, d.db, d, query, args...)
}

// GetOne returns the first matching row or (nil, nil) on no rows.
func (d *DB) GetOne(ctx context.Context, query string, args ...any) (types.Row, error) {
	return getOneOn(ctx, d.db, d, query, args...)
}

// GetAll returns all matching rows as a materialized slice.
func (d *DB) GetAll(ctx context.Context, query string, args ...any) ([]types.Row, error) {
	return getAllOn(ctx, d.db, d, query, args...)
}

// Transaction runs fn in a transaction scope. Commit on nil return,
// rollback on error or panic. fn receives a Store whose own Transaction
// fails with ErrTxNested: both backends serialize one active
// transaction per connection.
func (d *DB) Transaction(ctx context.Context, fn func(types.Store) error) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return d.wrap(fmt.Errorf("begin transaction: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	scoped := &Tx{tx: tx, owner: d}
	if err := fn(scoped); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			d.logger.Error("transaction rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return d.wrap(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// Tx is the store view handed to transaction bodies.
type Tx struct {
	tx    *sql.Tx
	owner *DB
}

func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return execOn(ctx, t.tx, t.owner, query, args...)
}

func (t *Tx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return queryOn(ctx, t.tx, t.owner, query, args...)
}

func (t *Tx) GetOne(ctx context.Context, query string, args ...any) (types.Row, error) {
	return getOneOn(ctx, t.tx, t.owner, query, args...)
}

func (t *Tx) GetAll(ctx context.Context, query string, args ...any) ([]types.Row, error) {
	return getAllOn(ctx, t.tx, t.owner, query, args...)
}

func (t *Tx) Transaction(_ context.Context, _ func(types.Store) error) error {
	return types.ErrTxNested
}

func (t *Tx) Dialect() string {
	return t.owner.dialect
}

func execOn(ctx context.Context, r runner, d *DB, query string, args ...any) (sql.Result, error) {
	if err := checkArgs(query, args); err != nil {
		return nil, err
	}
	res, err := r.ExecContext(ctx, sqlutil.Rebind(query, d.dialect), args...)
	if err != nil {
		return nil, d.wrap(err)
	}
	return res, nil
}

func queryOn(ctx context.Context, r runner, d *DB, query string, args ...any) (*sql.Rows, error) {
	if err := checkArgs(query, args); err != nil {
		return nil, err
	}
	rows, err := r.QueryContext(ctx, sqlutil.Rebind(query, d.dialect), args...)
	if err != nil {
		return nil, d.wrap(err)
	}
	return rows, nil
}

// checkArgs enforces the placeholder/parameter invariant before the
// statement reaches a driver: the count of rewritable placeholders must
// equal the count of bound values.
func checkArgs(query string, args []any) error {
	if n := sqlutil.CountPlaceholders(query); n != len(args) {
		return fmt.Errorf("%w: %d placeholders, %d bound arguments", types.ErrMalformed, n, len(args))
	}
	return nil
}

func getOneOn(ctx context.Context, r runner, d *DB, query string, args ...any) (types.Row, error) {
	all, err := getAllOn(ctx, r, d, query, args...)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func getAllOn(ctx context.Context, r runner, d *DB, query string, args ...any) ([]types.Row, error) {
	rows, err := queryOn(ctx, r, d, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out, err := ScanRows(rows)
	if err != nil {
		return nil, d.wrap(err)
	}
	return out, nil
}

// ScanRows materializes a cursor into ordered rows. Byte slices are
// converted to strings so results compare cleanly across drivers.
func ScanRows(rows *sql.Rows) ([]types.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := make([]types.Row, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(types.Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// wrap applies context classification first, then the adapter's driver
// classifier.
func (d *DB) wrap(err error) error {
	if err == nil {
		return nil
	}
	if classified, ok := types.ClassifyContext(err); ok {
		return fmt.Errorf("%w: %w", classified, err)
	}
	if d.classify != nil {
		return d.classify(err)
	}
	return err
}
