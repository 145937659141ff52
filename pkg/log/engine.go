package log

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cockroachdb/errors"
)

// DefaultMaxEntryLen bounds the payload produced by Printf.
const DefaultMaxEntryLen = 128

// Options configures an Engine.
type Options struct {
	// MaxEntryLen bounds formatted payloads; longer text is truncated to
	// MaxEntryLen-1 bytes.
	MaxEntryLen int

	// Clock timestamps entries. Defaults to a SystemClock.
	Clock Clock

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Observer receives append/filter/flush events. Optional.
	Observer Observer
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxEntryLen: DefaultMaxEntryLen,
		Clock:       NewSystemClock(),
	}
}

// Engine ties a Registry, a Sequencer and a Clock together and dispatches
// entries to the handlers of registered instances.
//
// Appends and flushes are serialized by a single mutex held across the
// handler call, so global indices are committed in order and a failed
// append does not consume an index unless the error is ErrPartialAppend. Handlers must therefore not call back
// into the engine's Append, Printf or Flush.
type Engine struct {
	registry    *Registry
	seq         *Sequencer
	clock       Clock
	logger      *slog.Logger
	observer    Observer
	maxEntryLen int

	mu sync.Mutex
}

// New creates an engine with an empty registry and a sequencer at index 0.
func New(opts Options) *Engine {
	if opts.MaxEntryLen <= 0 {
		opts.MaxEntryLen = DefaultMaxEntryLen
	}
	if opts.Clock == nil {
		opts.Clock = NewSystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Observer == nil {
		opts.Observer = NoopObserver{}
	}
	return &Engine{
		registry:    NewRegistry(),
		seq:         NewSequencer(),
		clock:       opts.Clock,
		logger:      opts.Logger,
		observer:    opts.Observer,
		maxEntryLen: opts.MaxEntryLen,
	}
}

// Registry returns the engine's registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Register binds inst to h under name and adds it to the registry.
// See Registry.Register.
func (e *Engine) Register(inst *Instance, name string, h Handler, arg any, level Level) *Instance {
	inst = e.registry.Register(inst, name, h, arg, level)
	e.logger.Debug("log registered", slog.String("log", name), slog.String("level", level.String()))
	return inst
}

// Next enumerates registered instances. See Registry.Next.
func (e *Engine) Next(prev *Instance) *Instance {
	return e.registry.Next(prev)
}

// Info returns a snapshot of the global sequencer.
func (e *Engine) Info() Info {
	return e.seq.Info()
}

// MaxEntryLen returns the formatted payload bound.
func (e *Engine) MaxEntryLen() int {
	return e.maxEntryLen
}

// Append stores payload in inst's backend behind a freshly built header.
//
// It returns ErrUninitialized for an unregistered instance, ErrFiltered when
// level is below the instance level, and a *HandlerError when the backend
// fails. The global index is only advanced by stored entries: a failed
// append gives its index back unless the error is ErrPartialAppend.
func (e *Engine) Append(inst *Instance, module Module, level Level, payload []byte) error {
	b, ok := inst.snapshot()
	if !ok {
		return ErrUninitialized
	}
	if level < b.level {
		e.observer.ObserveFiltered(b.name, level)
		return ErrFiltered
	}

	data := make([]byte, HeaderSize+len(payload))
	copy(data[HeaderSize:], payload)
	return e.commit(inst, b, module, level, data)
}

// Printf formats a message and appends it. The rendered text is truncated
// to MaxEntryLen-1 bytes when it would reach MaxEntryLen; truncation is not
// an error. The scratch buffer is allocated once at HeaderSize+MaxEntryLen-1
// bytes and never grows.
func (e *Engine) Printf(inst *Instance, module Module, level Level, format string, args ...any) error {
	b, ok := inst.snapshot()
	if !ok {
		return ErrUninitialized
	}
	if level < b.level {
		e.observer.ObserveFiltered(b.name, level)
		return ErrFiltered
	}

	w := newBoundedBuffer(HeaderSize, e.maxEntryLen-1)
	fmt.Fprintf(w, format, args...)
	return e.commit(inst, b, module, level, w.buf)
}

// boundedBuffer is a scratch buffer that keeps the first limit bytes
// written after a reserved prefix and drops the rest without error.
type boundedBuffer struct {
	buf []byte
	max int
}

func newBoundedBuffer(reserve, limit int) *boundedBuffer {
	return &boundedBuffer{buf: make([]byte, reserve, reserve+limit), max: reserve + limit}
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if room := b.max - len(b.buf); room > 0 {
		b.buf = append(b.buf, p[:min(room, len(p))]...)
	}
	return len(p), nil
}

// commit assigns the next index and timestamp, fills the header at the start
// of data and hands data to the backend.
func (e *Engine) commit(inst *Instance, b binding, module Module, level Level, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ts := timestampMicros(e.clock)
	prev, cur := e.seq.advance(ts)

	hdr := EntryHeader{
		Timestamp: ts,
		Index:     cur.Index,
		Module:    module,
		Level:     level,
		Version:   cur.Version,
	}
	hdr.Put(data[:HeaderSize])

	if err := b.handler.Append(inst, data); err != nil {
		if !errors.Is(err, ErrPartialAppend) {
			e.seq.restore(prev)
			return e.handlerError(b.name, "append", err)
		}
		e.observer.ObserveAppend(b.name, cur.Index, len(data))
		return e.handlerError(b.name, "append", err)
	}
	e.observer.ObserveAppend(b.name, cur.Index, len(data))
	return nil
}

// Walk visits the entries stored for inst. Order and cursor meaning are
// defined by the backend. A WalkFunc returning ErrStopWalk ends the walk
// without error.
func (e *Engine) Walk(inst *Instance, fn WalkFunc) error {
	b, ok := inst.snapshot()
	if !ok {
		return ErrUninitialized
	}
	if err := b.handler.Walk(inst, fn); err != nil {
		if errors.Is(err, ErrStopWalk) {
			return nil
		}
		return e.handlerError(b.name, "walk", err)
	}
	return nil
}

// Read copies len(buf) bytes of the entry at cur, starting off bytes into
// the entry. cur must come from a Walk of the same instance; bounds are
// enforced by the backend only.
func (e *Engine) Read(inst *Instance, cur Cursor, buf []byte, off int) (int, error) {
	b, ok := inst.snapshot()
	if !ok {
		return 0, ErrUninitialized
	}
	n, err := b.handler.Read(inst, cur, buf, off)
	if err != nil {
		return n, e.handlerError(b.name, "read", err)
	}
	return n, nil
}

// ReadEntry reads and decodes the whole entry of the given length at cur.
func (e *Engine) ReadEntry(inst *Instance, cur Cursor, length int) (Entry, error) {
	if length < HeaderSize {
		return Entry{}, ErrShortEntry
	}
	buf := make([]byte, length)
	n, err := e.Read(inst, cur, buf, 0)
	if err != nil {
		return Entry{}, err
	}
	return DecodeEntry(buf[:n])
}

// Flush clears inst's backend. On success the global index is reset to 0
// for all instances; on failure it is left unchanged.
func (e *Engine) Flush(inst *Instance) error {
	b, ok := inst.snapshot()
	if !ok {
		return ErrUninitialized
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := b.handler.Flush(inst); err != nil {
		return e.handlerError(b.name, "flush", err)
	}
	e.seq.Reset()
	e.observer.ObserveFlush(b.name)
	e.logger.Debug("log flushed", slog.String("log", b.name))
	return nil
}

func (e *Engine) handlerError(name, op string, err error) error {
	e.observer.ObserveHandlerError(name, op)
	e.logger.LogAttrs(context.Background(), slog.LevelDebug, "log handler failed",
		slog.String("log", name),
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	return &HandlerError{Op: op, Log: name, Cause: err}
}
