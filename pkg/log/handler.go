package log

// Cursor is an opaque position token produced by a Handler during Walk.
// Only the handler that produced it can interpret it.
type Cursor any

// WalkFunc is called once per stored entry. length is the size of the
// entry in bytes, header included. Return ErrStopWalk to end the walk early;
// any other error aborts the walk and is returned by it.
type WalkFunc func(inst *Instance, cur Cursor, length int) error

// Handler is a storage backend for log instances.
// Implementations must be safe for concurrent use; Append and Flush are
// serialized by the engine, Walk and Read are not.
type Handler interface {
	// Append stores one entry. data is the encoded EntryHeader followed by
	// the payload; the handler must not retain data after returning.
	Append(inst *Instance, data []byte) error

	// Walk visits the stored entries of inst in backend-defined order.
	Walk(inst *Instance, fn WalkFunc) error

	// Read copies len(buf) bytes of the entry at cur, starting off bytes
	// into the entry, and returns the number of bytes copied.
	Read(inst *Instance, cur Cursor, buf []byte, off int) (int, error)

	// Flush discards all stored entries of inst.
	Flush(inst *Instance) error
}

// NoopHandler discards all entries and stores nothing.
// NoopHandler is safe for concurrent use and usable as a zero value.
type NoopHandler struct{}

// Append discards the entry.
func (NoopHandler) Append(*Instance, []byte) error { return nil }

// Walk visits nothing.
func (NoopHandler) Walk(*Instance, WalkFunc) error { return nil }

// Read always fails; there is nothing to read.
func (NoopHandler) Read(*Instance, Cursor, []byte, int) (int, error) {
	return 0, ErrNotSupported
}

// Flush does nothing.
func (NoopHandler) Flush(*Instance) error { return nil }

// Compile-time interface satisfaction check.
var _ Handler = NoopHandler{}
