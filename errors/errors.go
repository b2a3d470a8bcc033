// Package errors provides error handling for the engine.
//
// It re-exports github.com/cockroachdb/errors, giving stack traces, error
// wrapping, and hint/detail annotations, plus the sentinel errors shared
// across the query pipeline, ledger, and gateway.
//
// Usage:
//
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	if errors.Is(err, errors.ErrNotFound) {
//	    // handle not found
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is     = crdb.Is
	IsAny  = crdb.IsAny
	As     = crdb.As
	Unwrap = crdb.Unwrap
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors shared across the engine. Use with errors.Is after
// wrapping for type-safe checks.
var (
	// ErrNotFound indicates the requested resource, tool, or entry does
	// not exist.
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates a malformed or invalid request.
	ErrInvalidRequest = New("invalid request")

	// ErrTimeout indicates the query pipeline exceeded its wall-time bound.
	ErrTimeout = New("operation timed out")

	// ErrStoreNotBuilt indicates a query arrived before any triple store
	// was built and attached.
	ErrStoreNotBuilt = New("triple store not built")
)

// IsNotFoundError checks whether an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsTimeoutError checks whether an error is or wraps ErrTimeout.
func IsTimeoutError(err error) bool {
	return err != nil && Is(err, ErrTimeout)
}

// NewNotFoundError creates a not-found error with a formatted message.
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidRequestError creates an invalid-request error with a formatted
// message.
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}
