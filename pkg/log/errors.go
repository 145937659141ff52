package log

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Engine errors.
var (
	// ErrUninitialized is returned for an instance that was never registered.
	ErrUninitialized = errors.New("log: instance not registered")

	// ErrFiltered is returned when an entry is below the instance level.
	// It is an expected outcome, not a failure.
	ErrFiltered = errors.New("log: entry filtered by level")

	// ErrNotSupported is returned by handlers that cannot perform an operation.
	ErrNotSupported = errors.New("log: operation not supported")

	// ErrStopWalk may be returned by a WalkFunc to end a walk early.
	ErrStopWalk = errors.New("log: stop walk")

	// ErrPartialAppend marks an append error after which the entry is
	// nevertheless stored, such as a failed mirror of a MultiHandler. The
	// engine keeps the entry's index.
	ErrPartialAppend = errors.New("log: entry stored, secondary append failed")
)

// IsFiltered reports whether err is the level-filter outcome.
func IsFiltered(err error) bool {
	return errors.Is(err, ErrFiltered)
}

// HandlerError wraps a failure reported by a backend Handler.
// The cause is preserved unchanged and reachable through Unwrap.
type HandlerError struct {
	// Op is the handler operation: append, walk, read or flush.
	Op string

	// Log is the name of the instance the operation ran on.
	Log string

	// Cause is the error returned by the handler.
	Cause error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("log %q: %s: %v", e.Log, e.Op, e.Cause)
}

// Unwrap returns the handler's error.
func (e *HandlerError) Unwrap() error {
	return e.Cause
}
