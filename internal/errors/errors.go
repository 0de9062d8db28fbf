// Package errors contains helper functions for wrapping errors with stack traces, multiple error
// aggregation, and panic recovery.
package errors

import (
	"context"
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// New wraps the given value in an error type that contains the stack trace. If the value is
// already an error with a stack trace, the existing trace is kept.
func New(val any) error {
	if val == nil {
		return nil
	}

	if err, ok := val.(error); ok {
		if ContainsStackTrace(err) {
			return err
		}

		return goerrors.Wrap(err, 1)
	}

	return goerrors.Wrap(fmt.Errorf("%v", val), 1) //nolint:err113
}

// Errorf creates a new error with a formatted message and wraps it with the stack trace.
// The format specifier supports `%w` for error wrapping just like `fmt.Errorf`.
func Errorf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	return goerrors.Wrap(err, 1)
}

// WithStackTrace wraps the given error in an error type that contains the stack trace.
// If the given error is nil, returns nil.
func WithStackTrace(err error) error {
	if err == nil {
		return nil
	}

	return goerrors.Wrap(err, 1)
}

// WithStackTraceAndPrefix wraps the given error in an error type that contains the stack trace
// and has the given message prepended to the error message. If the given error is nil, returns nil.
func WithStackTraceAndPrefix(err error, message string, args ...any) error {
	if err == nil {
		return nil
	}

	return goerrors.WrapPrefix(err, fmt.Sprintf(message, args...), 1)
}

// ErrorWithExitCode is a custom error that is used to specify the app exit code.
type ErrorWithExitCode struct {
	Err      error
	ExitCode int
}

func (err ErrorWithExitCode) Error() string {
	return err.Err.Error()
}

func (err ErrorWithExitCode) Unwrap() error {
	return err.Err
}

// IsContextCanceled returns `true` if the error was caused by `context.Canceled`, which is not really an error.
func IsContextCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Recover tries to recover from panics, and if it succeeds, calls the given onPanic function with an
// error that explains the cause of the panic. This function should only be called from a defer statement.
func Recover(onPanic func(cause error)) {
	if rec := recover(); rec != nil {
		err, isError := rec.(error)
		if !isError {
			err = fmt.Errorf("%v", rec) //nolint:err113
		}

		onPanic(New(err))
	}
}

// As finds the first error in err's tree that matches target, and if one is found, sets
// target to that error value and returns true. Otherwise, it returns false.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Unwrap returns the result of calling the Unwrap method on err, if err's
// type contains an Unwrap method returning error. Otherwise, Unwrap returns nil.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}
