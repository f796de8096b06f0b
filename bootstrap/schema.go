// Package bootstrap implements the startup choreography for the seshat
// persistence layer: readiness gate, schema application and baseline
// seeding. The sequence is strictly ordered (gate, then schema, then
// seed) and every step is idempotent against an already-initialized
// store.
package bootstrap

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stokaro/seshat/core/sqlutil"
	"github.com/stokaro/seshat/store/types"
)

//go:embed base/schema.sql
var baselineSchemaSQL string

// BaselineSchema returns the embedded baseline schema document.
func BaselineSchema() string {
	return baselineSchemaSQL
}

// ErrSchemaApply marks a DDL statement that failed for a reason other
// than the target object already existing. It aborts the remaining
// statement sequence and surfaces to the operator.
var ErrSchemaApply = errors.New("schema apply failed")

// Bootstrapper applies schema documents and seed records to one store.
type Bootstrapper struct {
	store  types.Store
	logger *slog.Logger
}

// New creates a bootstrapper for the given store.
func New(st types.Store) *Bootstrapper {
	return &Bootstrapper{
		store:  st,
		logger: slog.Default(),
	}
}

// WithLogger returns a copy of the bootstrapper using the given logger.
func (b *Bootstrapper) WithLogger(l *slog.Logger) *Bootstrapper {
	tmp := *b
	tmp.logger = l
	return &tmp
}

// ApplySchema splits the schema document into ordered statements and
// executes each one through the store as its own commit unit. The
// networked backends cannot reliably run multiple DDL statements inside
// a single prepared call, so a shared transaction is deliberately not
// used.
//
// A statement rejected because its object already exists is logged and
// counted as applied; this makes re-running the bootstrapper against an
// initialized store a no-op rather than a failure. Any other error
// aborts the remaining sequence. Referenced-before-referencing ordering
// within the document is the caller's invariant.
//
// Returns the number of statements applied or skipped.
func (b *Bootstrapper) ApplySchema(ctx context.Context, doc string) (int, error) {
	statements := sqlutil.SplitStatements(doc)

	applied := 0
	for i, stmt := range statements {
		_, err := b.store.Exec(ctx, stmt)
		switch {
		case err == nil:
			applied++
		case errors.Is(err, types.ErrAlreadyExists):
			b.logger.Debug("schema statement already applied", "statement", i+1, "total", len(statements))
			applied++
		default:
			return applied, fmt.Errorf("%w: statement %d/%d: %w", ErrSchemaApply, i+1, len(statements), err)
		}
	}

	b.logger.Info("schema applied", "statements", applied, "dialect", b.store.Dialect())
	return applied, nil
}
