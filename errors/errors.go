// Package errors provides error handling for epicdash.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := fetch(); err != nil {
//	    return errors.Wrap(err, "failed to fetch feed")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "is the ECU reachable at 192.168.4.1?")
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
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
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions
var AssertionFailedf = crdb.AssertionFailedf

// Sentinel errors. Wrap these with errors.Wrap() to add context while
// preserving the type; check them with errors.Is().
var (
	// ErrValidation rejects a malformed widget index, slot reference or
	// variable id. Nothing is mutated when it is returned.
	ErrValidation = New("validation failed")

	// ErrCatalogUnavailable means the variable catalog could not be loaded or
	// parsed. Callers fall back to the built-in table.
	ErrCatalogUnavailable = New("variable catalog unavailable")

	// ErrFeedUnavailable means a data feed poll failed. Slots keep their last
	// value until the next successful tick.
	ErrFeedUnavailable = New("data feed unavailable")

	// ErrDuplicateSelection marks a pick of a variable that is already shown
	// in a gauge. It is resolved by the engine and only used for reporting.
	ErrDuplicateSelection = New("variable already assigned")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrServiceUnavailable indicates a required service is not available
	ErrServiceUnavailable = New("service unavailable")
)

// IsValidationError checks if an error is or wraps ErrValidation
func IsValidationError(err error) bool {
	return err != nil && Is(err, ErrValidation)
}

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsServiceUnavailableError checks if an error is or wraps ErrServiceUnavailable
func IsServiceUnavailableError(err error) bool {
	return err != nil && Is(err, ErrServiceUnavailable)
}

// NewValidationError creates a validation error with a formatted message
func NewValidationError(format string, args ...interface{}) error {
	return Wrap(ErrValidation, Newf(format, args...).Error())
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// WrapCatalogUnavailable marks err as a catalog load failure
func WrapCatalogUnavailable(err error, context string) error {
	return Wrap(WithSecondaryError(ErrCatalogUnavailable, err), context+": "+err.Error())
}

// WrapFeedUnavailable marks err as a feed poll failure
func WrapFeedUnavailable(err error, context string) error {
	return Wrap(WithSecondaryError(ErrFeedUnavailable, err), context+": "+err.Error())
}
