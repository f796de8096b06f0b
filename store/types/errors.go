package types

import (
	"context"
	"errors"
)

// Sentinel errors forming the store failure taxonomy. Adapters classify
// driver errors onto these so callers can branch with errors.Is without
// knowing which backend is active.
var (
	// ErrUnavailable marks transient network or store unreachability.
	// The readiness gate and the retry package treat it as retryable.
	ErrUnavailable = errors.New("store unavailable")

	// ErrTimeout marks a caller-specified deadline expiring mid
	// operation. Deliberately distinct from ErrUnavailable.
	ErrTimeout = errors.New("operation timed out")

	// ErrConstraint marks a constraint violation (unique, foreign key,
	// check, not null).
	ErrConstraint = errors.New("constraint violation")

	// ErrAlreadyExists marks an attempt to create a database object that
	// is already present. The schema bootstrapper treats it as an
	// already-applied statement.
	ErrAlreadyExists = errors.New("object already exists")

	// ErrMalformed marks a statement the backend could not parse.
	ErrMalformed = errors.New("malformed statement")

	// ErrTxNested marks a Transaction call inside an active transaction
	// scope. Programmer error: fatal, never retried.
	ErrTxNested = errors.New("nested transaction not supported")
)

// IsRetryable reports whether the error is a transient failure worth
// another attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// ClassifyContext maps context expiry onto the taxonomy. Adapters call
// it first, before any driver-specific classification. Only errors that
// themselves carry the context failure are classified: an unrelated
// driver error racing an expiring deadline keeps its own kind.
func ClassifyContext(err error) (error, bool) {
	if err == nil {
		return nil, false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout, true
	}
	if errors.Is(err, context.Canceled) {
		return context.Canceled, true
	}
	return nil, false
}
