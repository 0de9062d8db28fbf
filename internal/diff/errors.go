package diff

// Error is a sentinel error raised for contract violations detected
// before the walk starts. Failures during the walk are never returned as
// errors; they flow through the callback's DiffError method.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrNilContext is returned when Trees is called without a context.
	ErrNilContext Error = "diff context is nil"
	// ErrNilCallback is returned when the context carries no callback.
	ErrNilCallback Error = "diff callback is nil"
	// ErrNilStore is returned when the context carries no store.
	ErrNilStore Error = "diff store is nil"
)
