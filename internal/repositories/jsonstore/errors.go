// Package jsonstore implements the repository contracts on top of the
// collections store, persisting every entity as a flat JSON collection.
package jsonstore

import (
	"errors"
	"fmt"

	"github.com/simple-store/api/internal/platform/collections"
)

// Error implements repositories.RepositoryError for collection backed repositories.
type Error struct {
	op          string
	err         error
	notFound    bool
	conflict    bool
	unavailable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.op != "" {
		return fmt.Sprintf("%s: %v", e.op, e.err)
	}
	return e.err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// IsNotFound reports whether the error represents a missing record.
func (e *Error) IsNotFound() bool {
	return e != nil && e.notFound
}

// IsConflict reports whether the error represents a conflicting record.
func (e *Error) IsConflict() bool {
	return e != nil && e.conflict
}

// IsUnavailable reports whether the error represents a storage failure.
func (e *Error) IsUnavailable() bool {
	return e != nil && e.unavailable
}

func notFoundError(op string, err error) *Error {
	return &Error{op: op, err: err, notFound: true}
}

func conflictError(op string, err error) *Error {
	return &Error{op: op, err: err, conflict: true}
}

func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	e := &Error{op: op, err: err}
	if errors.Is(err, collections.ErrUnavailable) || errors.Is(err, collections.ErrInvalidName) {
		e.unavailable = true
	}
	return e
}
