package file

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"

	"github.com/mash-protocol/devlog/pkg/log"
)

var (
	// ErrOutOfRange is returned when a cursor no longer names a record of
	// the instance, or the offset is past the end of the entry.
	ErrOutOfRange = errors.New("file: read out of range")

	// ErrBadCursor is returned for a cursor not produced by this handler.
	ErrBadCursor = errors.New("file: invalid cursor")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("file: handler closed")
)

// Cursor is the ordinal of a record in the file.
type Cursor int

// Handler appends entries to a CBOR file. Several instances may share one
// file; records are tagged with the instance name.
// It is safe for concurrent use from multiple goroutines.
type Handler struct {
	path    string
	file    *os.File
	encoder *cbor.Encoder
	mu      sync.Mutex
	closed  bool
}

// Open creates a Handler that writes to path. If the file exists, new
// records are appended. The file is created with permissions 0644 if it
// doesn't exist.
func Open(path string) (*Handler, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &Handler{
		path:    path,
		file:    f,
		encoder: NewEncoder(f),
	}, nil
}

// Path returns the file path.
func (h *Handler) Path() string {
	return h.path
}

// Append writes one record for inst.
func (h *Handler) Append(inst *log.Instance, data []byte) error {
	rec, err := NewRecord(inst.Name(), data)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	return h.encoder.Encode(rec)
}

// Walk visits the records of inst in file order.
func (h *Handler) Walk(inst *log.Instance, fn log.WalkFunc) error {
	r, err := NewFilteredReader(h.path, Filter{Log: inst.Name()})
	if err != nil {
		return err
	}
	defer r.Close()

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(inst, Cursor(r.Ordinal()), log.HeaderSize+len(rec.Payload)); err != nil {
			return err
		}
	}
}

// Read re-scans the file to the record at cur and copies its entry bytes
// starting at off.
func (h *Handler) Read(inst *log.Instance, cur log.Cursor, buf []byte, off int) (int, error) {
	c, ok := cur.(Cursor)
	if !ok || c < 0 {
		return 0, ErrBadCursor
	}

	r, err := NewReader(h.path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return 0, errors.Wrapf(ErrOutOfRange, "record %d", c)
		}
		if err != nil {
			return 0, err
		}
		if r.Ordinal() < int(c) {
			continue
		}
		if rec.Log != inst.Name() {
			return 0, errors.Wrapf(ErrOutOfRange, "record %d belongs to %q", c, rec.Log)
		}
		entry := rec.Bytes()
		if off < 0 || off > len(entry) {
			return 0, errors.Wrapf(ErrOutOfRange, "offset %d of %d", off, len(entry))
		}
		return copy(buf, entry[off:]), nil
	}
}

// Flush removes the records of inst by rewriting the file without them.
func (h *Handler) Flush(inst *log.Instance) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}

	keep, err := ReadAll(h.path, Filter{})
	if err != nil {
		return errors.Wrap(err, "file: scan")
	}

	tmp, err := os.CreateTemp(filepath.Dir(h.path), filepath.Base(h.path)+".*")
	if err != nil {
		return err
	}
	enc := NewEncoder(tmp)
	for _, rec := range keep {
		if rec.Log == inst.Name() {
			continue
		}
		if err := enc.Encode(rec); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return err
		}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	if err := h.file.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	renameErr := os.Rename(tmp.Name(), h.path)
	if renameErr != nil {
		os.Remove(tmp.Name())
	}

	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		h.closed = true
		return errors.CombineErrors(renameErr, err)
	}
	h.file = f
	h.encoder = NewEncoder(f)
	return renameErr
}

// Close closes the log file.
// It is safe to call Close multiple times.
func (h *Handler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	h.closed = true
	return h.file.Close()
}

// Compile-time interface satisfaction check.
var _ log.Handler = (*Handler)(nil)
