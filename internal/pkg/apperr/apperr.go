// Package apperr defines the error kinds the analytical core reports.
// All fallible operations return (value, error); the outer layer maps kinds
// to HTTP statuses. Nothing in the core panics for control flow.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel kinds, matched with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid_input")
	ErrMissingData  = errors.New("missing_data")
	ErrNotFound     = errors.New("not_found")
	ErrUpstream     = errors.New("upstream_failure")
	ErrTransient    = errors.New("transient_storage")
	ErrAI           = errors.New("ai_failure")
	ErrInternal     = errors.New("internal_invariant")
)

// E wraps a kind with an operation name and a one-sentence explanation.
func E(kind error, op, msg string) error {
	return fmt.Errorf("%s: %w: %s", op, kind, msg)
}

// Ef is E with formatting.
func Ef(kind error, op, format string, args ...interface{}) error {
	return E(kind, op, fmt.Sprintf(format, args...))
}

// Wrap attaches a kind and operation to an underlying error.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", op, kind, err)
}

// Kind returns the machine-readable kind string for an error, or "internal_invariant".
func Kind(err error) string {
	for _, k := range []error{ErrInvalidInput, ErrMissingData, ErrNotFound, ErrUpstream, ErrTransient, ErrAI, ErrInternal} {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return ErrInternal.Error()
}
