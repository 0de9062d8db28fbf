package errors

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// MultiError is an error type to track multiple errors.
type MultiError struct {
	inner *multierror.Error
}

// Error implements the error interface.
func (errs *MultiError) Error() string {
	wrappedErrs := errs.WrappedErrors()

	lines := make([]string, 0, len(wrappedErrs))
	for _, err := range wrappedErrs {
		lines = append(lines, addIndent(err.Error()))
	}

	errStr := strings.Join(lines, "\n\n")

	if len(wrappedErrs) == 1 {
		return fmt.Sprintf("error occurred:\n\n%s\n", errStr)
	}

	return fmt.Sprintf("%d errors occurred:\n\n%s\n", len(wrappedErrs), errStr)
}

// WrappedErrors returns the error slice that this MultiError is wrapping.
func (errs *MultiError) WrappedErrors() []error {
	if errs == nil || errs.inner == nil {
		return nil
	}

	return errs.inner.WrappedErrors()
}

func (errs *MultiError) Unwrap() []error {
	return errs.WrappedErrors()
}

// ErrorOrNil returns an error interface if this MultiError represents
// a list of errors, or returns nil if the list of errors is empty.
func (errs *MultiError) ErrorOrNil() error {
	if errs == nil || errs.inner == nil {
		return nil
	}

	if err := errs.inner.ErrorOrNil(); err != nil {
		return errs
	}

	return nil
}

// Append is a helper function that will append more errors
// onto a MultiError in order to create a larger aggregate error.
func (errs *MultiError) Append(appendErrs ...error) *MultiError {
	if errs == nil {
		errs = &MultiError{inner: new(multierror.Error)}
	}

	return &MultiError{inner: multierror.Append(errs.inner, appendErrs...)}
}

// Len returns the number of wrapped errors.
func (errs *MultiError) Len() int {
	if errs == nil || errs.inner == nil {
		return 0
	}

	return len(errs.inner.Errors)
}

func addIndent(str string) string {
	// for output on Windows OS
	str = strings.ReplaceAll(str, "\r\n", "\n")
	rawLines := strings.Split(str, "\n")

	lines := make([]string, 0, len(rawLines))

	for i, line := range rawLines {
		format := "  %s"
		if i == 0 {
			format = "* %s"
		}

		lines = append(lines, fmt.Sprintf(format, line))
	}

	return strings.Join(lines, "\n")
}
