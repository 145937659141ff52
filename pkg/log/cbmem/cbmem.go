// Package cbmem implements an in-memory circular log handler.
//
// The buffer is bounded by total bytes. When an entry does not fit, the
// oldest entries are evicted until it does. Cursors are entry sequence
// numbers, so a cursor taken during a walk stays valid until its entry is
// evicted or the buffer is flushed.
package cbmem

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/mash-protocol/devlog/pkg/log"
)

var (
	// ErrEntryTooLarge is returned when a single entry exceeds the capacity.
	ErrEntryTooLarge = errors.New("cbmem: entry larger than buffer")

	// ErrOutOfRange is returned for an evicted entry or an offset past its end.
	ErrOutOfRange = errors.New("cbmem: read out of range")

	// ErrBadCursor is returned for a cursor not produced by this handler.
	ErrBadCursor = errors.New("cbmem: invalid cursor")
)

// Cursor identifies an entry by its sequence number in the buffer.
type Cursor uint64

// Handler is a byte-bounded ring buffer of entries.
// It is safe for concurrent use.
type Handler struct {
	mu       sync.RWMutex
	capacity int
	used     int
	first    uint64 // sequence number of entries[0]
	entries  [][]byte
}

// New creates a Handler that holds at most capacity bytes of entries.
func New(capacity int) *Handler {
	return &Handler{capacity: capacity}
}

// Append copies data into the buffer, evicting the oldest entries as needed.
func (h *Handler) Append(_ *log.Instance, data []byte) error {
	if len(data) > h.capacity {
		return errors.Wrapf(ErrEntryTooLarge, "%d > %d bytes", len(data), h.capacity)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for h.used+len(data) > h.capacity {
		h.used -= len(h.entries[0])
		h.entries[0] = nil
		h.entries = h.entries[1:]
		h.first++
	}
	h.entries = append(h.entries, append([]byte(nil), data...))
	h.used += len(data)
	return nil
}

// Walk visits the entries from oldest to newest. The set of entries is
// fixed when the walk starts; entries appended during the walk are not visited.
func (h *Handler) Walk(inst *log.Instance, fn log.WalkFunc) error {
	h.mu.RLock()
	first := h.first
	lengths := make([]int, len(h.entries))
	for i, e := range h.entries {
		lengths[i] = len(e)
	}
	h.mu.RUnlock()

	for i, n := range lengths {
		if err := fn(inst, Cursor(first+uint64(i)), n); err != nil {
			if errors.Is(err, log.ErrStopWalk) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Read copies bytes of the entry at cur starting at off.
func (h *Handler) Read(_ *log.Instance, cur log.Cursor, buf []byte, off int) (int, error) {
	c, ok := cur.(Cursor)
	if !ok {
		return 0, ErrBadCursor
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if uint64(c) < h.first || uint64(c) >= h.first+uint64(len(h.entries)) {
		return 0, errors.Wrapf(ErrOutOfRange, "entry %d", uint64(c))
	}
	e := h.entries[uint64(c)-h.first]
	if off < 0 || off > len(e) {
		return 0, errors.Wrapf(ErrOutOfRange, "offset %d of %d", off, len(e))
	}
	return copy(buf, e[off:]), nil
}

// Flush discards all entries.
func (h *Handler) Flush(*log.Instance) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.first += uint64(len(h.entries))
	h.entries = nil
	h.used = 0
	return nil
}

// Len returns the number of buffered entries.
func (h *Handler) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Used returns the number of buffered bytes.
func (h *Handler) Used() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.used
}

// Compile-time interface satisfaction check.
var _ log.Handler = (*Handler)(nil)
