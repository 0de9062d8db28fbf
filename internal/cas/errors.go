package cas

import (
	"fmt"

	"github.com/treeline-io/treeline/internal/errors"
)

// Error types that can be returned by the cas package
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrObjectNotFound is returned when an object id is not present in the store
	ErrObjectNotFound Error = "object not found"
	// ErrParseTree is returned when a tree object cannot be decoded
	ErrParseTree Error = "invalid tree entry format"
	// ErrUnknownKind is returned for an entry mode the store does not model
	ErrUnknownKind Error = "unknown entry kind"
	// ErrNotTree is returned when a revision does not resolve to a tree
	ErrNotTree Error = "revision does not name a tree"
	// ErrCreateDir is returned when failing to create a directory
	ErrCreateDir Error = "failed to create directory"
	// ErrReadFile is returned when failing to read a file
	ErrReadFile Error = "failed to read file"
)

// IsNotFound reports whether err stems from a missing object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// WrappedError provides additional context for errors
type WrappedError struct {
	Op      string // Operation that failed
	Path    string // File path or object id if applicable
	Err     error  // Original error
	Context string // Additional context
}

func (e *WrappedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Context, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *WrappedError) Unwrap() error {
	return e.Err
}

func wrapError(op, path string, err error) error {
	return &WrappedError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}

func wrapErrorWithContext(op, context string, err error) error {
	return &WrappedError{
		Op:      op,
		Context: context,
		Err:     err,
	}
}
