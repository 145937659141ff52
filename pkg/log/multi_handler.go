package log

import "github.com/cockroachdb/errors"

// MultiHandler sends entries to multiple handlers.
// Useful when you want both console output and a persistent store at once.
// The first handler is the primary: it decides whether an entry is stored
// and serves Walk and Read. The others are mirrors.
type MultiHandler struct {
	handlers []Handler
}

// NewMultiHandler creates a MultiHandler. The first handler is the primary.
func NewMultiHandler(handlers ...Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

// Append stores the entry in the primary, then in every mirror.
// A primary failure is returned as is and the mirrors are skipped. Mirror
// failures are combined and marked with ErrPartialAppend, since the entry
// is stored.
func (m *MultiHandler) Append(inst *Instance, data []byte) error {
	if len(m.handlers) == 0 {
		return nil
	}
	if err := m.handlers[0].Append(inst, data); err != nil {
		return err
	}
	var err error
	for _, h := range m.handlers[1:] {
		err = errors.CombineErrors(err, h.Append(inst, data))
	}
	if err != nil {
		return &partialError{err: err}
	}
	return nil
}

// partialError wraps mirror failures and matches ErrPartialAppend.
type partialError struct {
	err error
}

func (e *partialError) Error() string {
	return "mirror append: " + e.err.Error()
}

func (e *partialError) Unwrap() error { return e.err }

func (e *partialError) Is(target error) bool { return target == ErrPartialAppend }

// Walk walks the primary handler.
func (m *MultiHandler) Walk(inst *Instance, fn WalkFunc) error {
	if len(m.handlers) == 0 {
		return nil
	}
	return m.handlers[0].Walk(inst, fn)
}

// Read reads from the primary handler.
func (m *MultiHandler) Read(inst *Instance, cur Cursor, buf []byte, off int) (int, error) {
	if len(m.handlers) == 0 {
		return 0, ErrNotSupported
	}
	return m.handlers[0].Read(inst, cur, buf, off)
}

// Flush flushes every handler.
func (m *MultiHandler) Flush(inst *Instance) error {
	var err error
	for _, h := range m.handlers {
		err = errors.CombineErrors(err, h.Flush(inst))
	}
	return err
}

// Compile-time interface satisfaction check.
var _ Handler = (*MultiHandler)(nil)
